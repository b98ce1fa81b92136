package model

import "testing"

func TestDedupeByPath_KeepsHighestScorePerFile(t *testing.T) {
	results := []Result{
		{Path: "a.go", Score: 40, FragmentOrdinal: 0},
		{Path: "a.go", Score: 90, FragmentOrdinal: 2},
		{Path: "b.go", Score: 60, FragmentOrdinal: 0},
	}

	out := DedupeByPath(results)

	if len(out) != 2 {
		t.Fatalf("expected 2 deduped results, got %d", len(out))
	}
	if out[0].Path != "a.go" || out[0].Score != 90 {
		t.Errorf("expected a.go with score 90 first, got %+v", out[0])
	}
}

func TestDedupeByPath_AnnotationsExemptFromDedup(t *testing.T) {
	results := []Result{
		{Path: "annotation:1", Score: 30, FragmentOrdinal: 0},
		{Path: "annotation:2", Score: 30, FragmentOrdinal: 0},
		{Path: "a.go", Score: 50, FragmentOrdinal: 0},
	}

	out := DedupeByPath(results)

	if len(out) != 3 {
		t.Fatalf("expected all 3 results kept (annotations exempt), got %d", len(out))
	}
}

func TestSortResults_OrdersDescendingByScore(t *testing.T) {
	results := []Result{
		{Path: "a.go", Score: 10},
		{Path: "b.go", Score: 90},
		{Path: "c.go", Score: 50},
	}

	SortResults(results)

	if results[0].Path != "b.go" || results[1].Path != "c.go" || results[2].Path != "a.go" {
		t.Errorf("unexpected order: %+v", results)
	}
}
