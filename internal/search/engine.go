package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	ierrors "github.com/aman-cerp/semindex/internal/errors"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/store"
)

// Engine runs the hybrid retrieval pipeline: query expansion, dense and
// lexical candidate generation, RRF fusion, an annotation overlay,
// cross-encoder reranking, score normalization, per-file deduplication and
// final filtering.
type Engine struct {
	cfg EngineConfig
}

// NewEngine builds a retrieval engine. A zero-value EngineConfig disables
// the optional classification and decomposition layers, leaving the
// mandatory ten-step pipeline as the whole of its behavior.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// candidateKind distinguishes a regular fragment candidate from an
// annotation candidate, which carries its own dedup identity.
type candidateKind int

const (
	kindFragment candidateKind = iota
	kindAnnotation
)

// candidate is a resolved, text-bearing entry ready for reranking,
// normalization, dedup and filtering.
type candidate struct {
	id       string
	kind     candidateKind
	path     string // display path: the fragment's or annotation's owning file
	dedupKey string // fragment path, or an annotation's own pseudo-path
	ordinal  int
	language string
	text     string
	rrfScore float64
	score    float64 // final 0..100 score, set during normalize
}

// Search runs the ten-step retrieval pipeline against c and returns
// results ordered per model.Result.Less.
func (e *Engine) Search(ctx context.Context, c Container, q model.Query, opts Options) ([]model.Result, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ierrors.New(ierrors.ErrCodeBadInput, "query text must not be empty", nil)
	}

	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	weights := DefaultWeights()
	if opts.Classify && e.cfg.Classifier != nil {
		if qt, w, err := e.cfg.Classifier.Classify(ctx, text); err == nil {
			_ = qt
			weights = w
		}
	}

	fused, err := e.fuseCandidates(ctx, c, text, topK, weights)
	if err != nil {
		return nil, err
	}

	if opts.Decompose && e.cfg.Decomposer != nil && e.cfg.Decomposer.ShouldDecompose(text) {
		fused, err = e.decomposedFuse(ctx, c, text, topK, weights)
		if err != nil {
			return nil, err
		}
	}

	if len(fused) > RerankCandidateCap {
		fused = fused[:RerankCandidateCap]
	}

	candidates, err := e.resolveCandidates(ctx, c, fused)
	if err != nil {
		return nil, err
	}

	e.rerank(ctx, c, text, candidates)

	contextBytes := opts.ContextBytes
	if contextBytes <= 0 {
		contextBytes = DefaultContextBytes
	}
	if contextBytes > MaxContextBytes {
		contextBytes = MaxContextBytes
	}

	results := e.filterAndRank(candidates, q, contextBytes, topK)
	return results, nil
}

// fuseCandidates implements steps 1-6 of the pipeline for a single query
// string: expansion, embedding, dense and lexical candidate generation,
// RRF fusion and the annotation overlay.
func (e *Engine) fuseCandidates(ctx context.Context, c Container, text string, topK int, weights Weights) ([]*FusedResult, error) {
	expanded := ExpandQuery(text)

	queryVec, err := c.Embedder().Embed(ctx, expanded.Embed)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if dim := c.Provider().Dimension; dim > 0 && len(queryVec) != dim {
		return nil, ierrors.ProviderMismatch(
			fmt.Sprintf("query embedding has %d dimensions, container expects %d", len(queryVec), dim), nil)
	}

	kDense := topK * 4
	if kDense < DenseCandidateFloor {
		kDense = DenseCandidateFloor
	}
	kLex := kDense

	denseResults, err := c.Vectors().Search(ctx, queryVec, kDense)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	var lexResults []*store.BM25Result
	if expanded.Keyword != "" {
		lexResults, err = c.Lexical().Search(ctx, expanded.Keyword, kLex)
		if err != nil {
			slog.Warn("lexical search failed, continuing dense-only", slog.String("error", err.Error()))
			lexResults = nil
		}
	}

	fusion := NewRRFFusion()
	fused := fusion.Fuse(lexResults, denseResults, weights)

	var annotationIDs []string
	for _, id := range c.Vectors().AllIDs() {
		if strings.HasPrefix(id, "annotation:") {
			annotationIDs = append(annotationIDs, id)
		}
	}
	if len(annotationIDs) == 0 {
		return fused, nil
	}

	annotationOnly, err := c.Vectors().SearchSubset(ctx, queryVec, annotationIDs, topK)
	if err != nil {
		slog.Warn("annotation overlay search failed, skipping", slog.String("error", err.Error()))
		return fused, nil
	}
	if len(annotationOnly) == 0 {
		return fused, nil
	}

	annFused := fusion.Fuse(nil, annotationOnly, weights)
	merged := make(map[string]*FusedResult, len(fused)+len(annFused))
	for _, f := range fused {
		cp := *f
		merged[f.ChunkID] = &cp
	}
	mergeMax(merged, annFused)

	out := make([]*FusedResult, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RRFScore != out[j].RRFScore {
			return out[i].RRFScore > out[j].RRFScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out, nil
}

// decomposedFuse runs fuseCandidates once per sub-query and merges the
// results with consensus-boosted RRF (multi_fusion.go), for queries whose
// phrasing the decomposer judges likely to miss a direct match.
func (e *Engine) decomposedFuse(ctx context.Context, c Container, text string, topK int, weights Weights) ([]*FusedResult, error) {
	subQueries := e.cfg.Decomposer.Decompose(text)
	if len(subQueries) == 0 {
		return e.fuseCandidates(ctx, c, text, topK, weights)
	}

	subResults := make([]SubQueryResult, 0, len(subQueries))
	for _, sq := range subQueries {
		results, err := e.fuseCandidates(ctx, c, sq.Query, topK, weights)
		if err != nil {
			slog.Warn("sub-query failed, skipping",
				slog.String("sub_query", sq.Query), slog.String("error", err.Error()))
			continue
		}
		subResults = append(subResults, SubQueryResult{SubQuery: sq, Results: results})
	}
	if len(subResults) == 0 {
		return e.fuseCandidates(ctx, c, text, topK, weights)
	}

	multiFusion := NewMultiRRFFusion()
	multiFused := multiFusion.FuseMultiQuery(subResults)

	out := make([]*FusedResult, len(multiFused))
	for i, mf := range multiFused {
		cp := mf.FusedResult
		out[i] = &cp
	}
	return out, nil
}

// resolveCandidates fetches fragment/annotation text and metadata for
// each fused candidate, skipping any that can no longer be found (deleted
// between index and query).
func (e *Engine) resolveCandidates(ctx context.Context, c Container, fused []*FusedResult) ([]*candidate, error) {
	var fragmentIDs []string
	var annotationEntries []*FusedResult
	for _, f := range fused {
		if strings.HasPrefix(f.ChunkID, "annotation:") {
			annotationEntries = append(annotationEntries, f)
		} else {
			fragmentIDs = append(fragmentIDs, f.ChunkID)
		}
	}

	byID := make(map[string]*FusedResult, len(fused))
	for _, f := range fused {
		byID[f.ChunkID] = f
	}

	out := make([]*candidate, 0, len(fused))

	if len(fragmentIDs) > 0 {
		frags, err := c.Fragments().GetFragments(ctx, fragmentIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve fragments: %w", err)
		}
		for _, frag := range frags {
			f := byID[frag.ID]
			if f == nil {
				continue
			}
			out = append(out, &candidate{
				id:       frag.ID,
				kind:     kindFragment,
				path:     frag.Path,
				dedupKey: frag.Path,
				ordinal:  frag.Ordinal,
				language: frag.Language,
				text:     frag.Text,
				rrfScore: f.RRFScore,
			})
		}
	}

	for _, f := range annotationEntries {
		annID := strings.TrimPrefix(f.ChunkID, "annotation:")
		ann, err := c.Fragments().GetAnnotation(ctx, annID)
		if err != nil || ann == nil {
			continue
		}
		out = append(out, &candidate{
			id:       f.ChunkID,
			kind:     kindAnnotation,
			path:     ann.Path,
			dedupKey: f.ChunkID, // each annotation is its own dedup bucket
			ordinal:  0,
			text:     ann.Note,
			rrfScore: f.RRFScore,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		si, sj := byID[out[i].id], byID[out[j].id]
		if si.RRFScore != sj.RRFScore {
			return si.RRFScore > sj.RRFScore
		}
		return out[i].id < out[j].id
	})
	return out, nil
}

// rerank implements step 7-8: send candidates to the reranker when one is
// available and the deadline allows it, then normalize scores to [0,100].
// Candidates are modified in place.
func (e *Engine) rerank(ctx context.Context, c Container, query string, candidates []*candidate) {
	if len(candidates) == 0 {
		return
	}

	reranker := c.Reranker()
	if reranker == nil || ctx.Err() != nil || !reranker.Available(ctx) {
		e.normalizeByMinMax(candidates)
		return
	}

	documents := make([]string, len(candidates))
	for i, cd := range candidates {
		documents[i] = cd.text
	}

	results, err := reranker.Rerank(ctx, query, documents, 0)
	if err != nil {
		slog.Warn("reranking failed, falling back to RRF order", slog.String("error", err.Error()))
		e.normalizeByMinMax(candidates)
		return
	}

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		// LocalReranker.Rerank already applies sigmoid; scale to [0,100].
		candidates[r.Index].score = r.Score * 100
	}
}

// normalizeByMinMax implements step 8's fallback: when reranking is
// skipped, RRF scores are min-max normalized to [0,100].
func (e *Engine) normalizeByMinMax(candidates []*candidate) {
	if len(candidates) == 0 {
		return
	}
	min, max := candidates[0].rrfScore, candidates[0].rrfScore
	for _, cd := range candidates {
		if cd.rrfScore < min {
			min = cd.rrfScore
		}
		if cd.rrfScore > max {
			max = cd.rrfScore
		}
	}
	spread := max - min
	for _, cd := range candidates {
		if spread <= 0 {
			cd.score = 100
			continue
		}
		cd.score = ((cd.rrfScore - min) / spread) * 100
	}
}

// filterAndRank implements steps 9-10: deduplicate to at most one
// fragment per owning path (annotations excluded from this rule via their
// own pseudo-path dedup key), drop candidates below min_score, apply
// extension/path-prefix filters, sort by the tie-break rule and truncate
// to topK.
// apply extension/path-prefix filters, deduplicate per file, sort by the
// tie-break rule and truncate to topK.
func (e *Engine) filterAndRank(candidates []*candidate, q model.Query, contextBytes, topK int) []model.Result {
	best := make(map[string]*candidate, len(candidates))
	for _, cd := range candidates {
		existing, ok := best[cd.dedupKey]
		if !ok || cd.score > existing.score {
			best[cd.dedupKey] = cd
		}
	}

	allowExt := make(map[string]bool, len(q.ExtAllowList))
	for _, ext := range q.ExtAllowList {
		allowExt[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	results := make([]model.Result, 0, len(best))
	for _, cd := range best {
		if cd.score < q.MinScore {
			continue
		}
		if len(allowExt) > 0 && !allowExt[extOf(cd.path)] {
			continue
		}
		if q.PathPrefix != "" && !strings.HasPrefix(cd.path, q.PathPrefix) {
			continue
		}
		results = append(results, model.Result{
			Path:            cd.path,
			Snippet:         truncateSnippet(cd.text, contextBytes),
			Score:           math.Round(cd.score*100) / 100,
			FragmentOrdinal: cd.ordinal,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Less(results[j])
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func extOf(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}

func truncateSnippet(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	return text[:maxBytes]
}
