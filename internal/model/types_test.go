package model

import "testing"

func TestProviderIdentity_Equal(t *testing.T) {
	a := ProviderIdentity{Kind: ProviderKindLocal, Model: "bge-small", Dimension: 384}
	b := ProviderIdentity{Kind: ProviderKindLocal, Model: "bge-small", Dimension: 384}
	c := ProviderIdentity{Kind: ProviderKindRemote, Model: "bge-small", Dimension: 384}

	if !a.Equal(b) {
		t.Error("expected identical identities to be equal")
	}
	if a.Equal(c) {
		t.Error("expected different kinds to not be equal")
	}
}

func TestAnnotationPseudoPath(t *testing.T) {
	path := AnnotationPseudoPath("abc-123")
	if path != "annotation:abc-123" {
		t.Errorf("unexpected pseudo path: %s", path)
	}
}

func TestResult_Less_OrdersByScoreThenOrdinalThenPath(t *testing.T) {
	high := Result{Path: "b.go", Score: 90, FragmentOrdinal: 1}
	low := Result{Path: "a.go", Score: 50, FragmentOrdinal: 0}

	if !high.Less(low) {
		t.Error("expected higher score to sort first")
	}

	tieScore1 := Result{Path: "b.go", Score: 70, FragmentOrdinal: 0}
	tieScore2 := Result{Path: "a.go", Score: 70, FragmentOrdinal: 1}
	if !tieScore1.Less(tieScore2) {
		t.Error("expected lower fragment ordinal to sort first on score tie")
	}

	samePath1 := Result{Path: "a.go", Score: 70, FragmentOrdinal: 0}
	samePath2 := Result{Path: "b.go", Score: 70, FragmentOrdinal: 0}
	if !samePath1.Less(samePath2) {
		t.Error("expected lexically smaller path to sort first on full tie")
	}
}
