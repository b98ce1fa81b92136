package model

import "sort"

// SortResults orders results in place per Result.Less.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Less(results[j])
	})
}

// DedupeByPath keeps only the highest-scoring result per path, preserving
// the retrieval pipeline's per-file dedup invariant. Annotation pseudo-paths
// (those produced by AnnotationPseudoPath) are exempt and always kept.
func DedupeByPath(results []Result) []Result {
	best := make(map[string]Result, len(results))
	var annotations []Result
	order := make([]string, 0, len(results))

	for _, r := range results {
		if isAnnotationPath(r.Path) {
			annotations = append(annotations, r)
			continue
		}
		existing, ok := best[r.Path]
		if !ok {
			order = append(order, r.Path)
			best[r.Path] = r
			continue
		}
		if r.Less(existing) {
			best[r.Path] = r
		}
	}

	out := make([]Result, 0, len(order)+len(annotations))
	for _, path := range order {
		out = append(out, best[path])
	}
	out = append(out, annotations...)
	SortResults(out)
	return out
}

func isAnnotationPath(path string) bool {
	return len(path) > len("annotation:") && path[:len("annotation:")] == "annotation:"
}
