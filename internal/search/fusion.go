package search

import (
	"sort"

	"github.com/aman-cerp/semindex/internal/store"
)

// FusedResult is a single candidate after RRF fusion of the lexical and
// dense result lists.
type FusedResult struct {
	ChunkID      string   // fragment or annotation pseudo-path identifier
	RRFScore     float64  // combined RRF score, normalized 0-1
	BM25Score    float64  // original lexical score, preserved for tie-breaking
	BM25Rank     int      // position in the lexical list (1-indexed, 0 if absent)
	VecScore     float64  // original dense similarity score, preserved
	VecRank      int      // position in the dense list (1-indexed, 0 if absent)
	InBothLists  bool     // candidate appeared in both result lists
	MatchedTerms []string // lexical matched terms, for highlighting
}

// RRFFusion combines a lexical and a dense result list with Reciprocal Rank
// Fusion:
//
//	RRF_score(d) = Σ weight_i / (k + rank_i)
//
// k defaults to RRFConstant (60, kept fixed rather than tunable).
// weight_i lets an optional query classifier bias the sum; the default
// fusion pass uses Weights{1, 1}.
type RRFFusion struct {
	K int
}

// NewRRFFusion builds an RRFFusion using the fixed constant.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: RRFConstant}
}

// NewRRFFusionWithK builds an RRFFusion with a custom smoothing constant,
// used only by the annotation overlay's second RRF contribution and by
// tests. k<=0 falls back to RRFConstant.
func NewRRFFusionWithK(k int) *RRFFusion {
	if k <= 0 {
		k = RRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines lexical and dense candidate lists into one ranked slice.
// A candidate missing from one list contributes 0 for that list — only
// the list(s) it actually appears in add to its score.
//
// Sort order: RRFScore desc, InBothLists true-first, BM25Score desc,
// ChunkID asc.
func (f *RRFFusion) Fuse(bm25 []*store.BM25Result, vec []*store.VectorResult, weights Weights) []*FusedResult {
	if len(bm25) == 0 && len(vec) == 0 {
		return []*FusedResult{}
	}

	capacity := len(bm25) + len(vec)
	scores := make(map[string]*FusedResult, capacity)

	for rank, r := range bm25 {
		result := f.getOrCreate(scores, r.DocID)
		result.BM25Score = r.Score
		result.BM25Rank = rank + 1
		result.MatchedTerms = r.MatchedTerms
		result.RRFScore += weights.Lexical / float64(f.K+rank+1)
	}

	for rank, r := range vec {
		result := f.getOrCreate(scores, r.ID)
		result.VecScore = float64(r.Score)
		result.VecRank = rank + 1
		result.RRFScore += weights.Dense / float64(f.K+rank+1)

		if result.BM25Rank > 0 {
			result.InBothLists = true
		}
	}

	results := f.toSortedSlice(scores)
	f.normalize(results)
	return results
}

func (f *RRFFusion) getOrCreate(m map[string]*FusedResult, id string) *FusedResult {
	if r, ok := m[id]; ok {
		return r
	}
	r := &FusedResult{ChunkID: id}
	m[id] = r
	return r
}

func (f *RRFFusion) toSortedSlice(m map[string]*FusedResult) []*FusedResult {
	results := make([]*FusedResult, 0, len(m))
	for _, r := range m {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return f.compare(results[i], results[j])
	})
	return results
}

func (f *RRFFusion) compare(a, b *FusedResult) bool {
	if a.RRFScore != b.RRFScore {
		return a.RRFScore > b.RRFScore
	}
	if a.InBothLists != b.InBothLists {
		return a.InBothLists
	}
	if a.BM25Score != b.BM25Score {
		return a.BM25Score > b.BM25Score
	}
	return a.ChunkID < b.ChunkID
}

// normalize scales RRF scores to 0-1, the top result becoming 1.0.
func (f *RRFFusion) normalize(results []*FusedResult) {
	if len(results) == 0 {
		return
	}
	maxScore := results[0].RRFScore
	if maxScore == 0 {
		return
	}
	for _, r := range results {
		r.RRFScore = r.RRFScore / maxScore
	}
}

// mergeMax merges src into dst in place, keeping the higher RRFScore per
// ChunkID when a candidate exists in both — the rule the annotation overlay
// (step 6) uses to combine its own dense-only RRF pass with the primary
// fused list.
func mergeMax(dst map[string]*FusedResult, src []*FusedResult) {
	for _, s := range src {
		if existing, ok := dst[s.ChunkID]; ok {
			if s.RRFScore > existing.RRFScore {
				existing.RRFScore = s.RRFScore
			}
			continue
		}
		cp := *s
		dst[s.ChunkID] = &cp
	}
}
