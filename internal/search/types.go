// Package search implements the hybrid retrieval pipeline: dense (ANN) and
// lexical (BM25) candidate generation fused by Reciprocal Rank Fusion,
// optionally reranked by a cross-encoder, deduplicated per file and
// filtered down to a final ranked result list.
package search

import (
	"context"

	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/rerank"
	"github.com/aman-cerp/semindex/internal/store"

	"github.com/aman-cerp/semindex/internal/model"
)

// Container is everything the retrieval pipeline needs from a container:
// its bound provider and the three stores plus the embedder and reranker
// used to answer a query. Mirrors indexer.Container's shape deliberately —
// a container implements both directly rather than either package
// depending on the other.
type Container interface {
	Name() string
	Provider() model.ProviderIdentity
	Fragments() store.FragmentStore
	Vectors() store.VectorStore
	Lexical() store.BM25Index
	Embedder() embed.Embedder

	// Reranker returns the cross-encoder used by the rerank step, or a
	// rerank.NoOpReranker (never nil) when reranking is disabled or
	// unavailable for this container's provider.
	Reranker() rerank.Reranker
}

// Options configures one search call, beyond the bare model.Query fields.
type Options struct {
	// ContextBytes bounds how much fragment text a result's snippet
	// carries. 0 uses DefaultContextBytes. Spec ceiling: 10000.
	ContextBytes int

	// Decompose opts into running a complex query as several sub-queries
	// (internal/search's decomposer) merged by consensus-boosted RRF
	// before reranking. Off by default — §4.8's ten steps are the
	// mandatory path.
	Decompose bool

	// Classify opts into biasing the RRF fusion's two input lists by a
	// query-shape classification (lexical/semantic/mixed) instead of the
	// plain unweighted sum. Off by default — weights of 1.0/1.0 recover
	// the plain RRF step.
	Classify bool
}

// DefaultContextBytes bounds a result snippet's length when Options
// doesn't specify one.
const DefaultContextBytes = 2000

// DefaultTopK is used when a Query doesn't specify TopK.
const DefaultTopK = 10

// MaxTopK is the ceiling enforced on Query.TopK.
const MaxTopK = 50

// MaxContextBytes is the ceiling enforced on Options.ContextBytes.
const MaxContextBytes = 10000

// RRFConstant is the fixed RRF smoothing constant, kept non-configurable.
const RRFConstant = 60

// RerankCandidateCap bounds how many fused candidates are sent to the
// reranker: min(50, |candidates|).
const RerankCandidateCap = 50

// DenseCandidateFloor is the minimum k_dense regardless of top_k:
// k_dense = max(top_k*4, 50).
const DenseCandidateFloor = 50

// EngineConfig controls optional layers atop the mandatory ten-step
// pipeline.
type EngineConfig struct {
	// Classifier biases RRF fusion weights by query shape. Nil disables
	// classification; fusion uses weights of 1.0/1.0.
	Classifier Classifier

	// Decomposer splits a complex query into sub-queries for separate
	// consensus-fused runs. Nil disables decomposition.
	Decomposer QueryDecomposer
}

// Weights scales each input list's contribution to RRF fusion. The plain
// §4.8 algorithm uses {1.0, 1.0}; the optional classifier layer biases
// these toward whichever list a query shape favors.
type Weights struct {
	Lexical float64
	Dense   float64
}

// DefaultWeights recovers the plain, unweighted RRF sum.
func DefaultWeights() Weights {
	return Weights{Lexical: 1.0, Dense: 1.0}
}

// QueryType classifies a query's shape for the optional fusion-weighting
// layer.
type QueryType string

const (
	// QueryTypeLexical favors exact/keyword matching: error codes,
	// identifiers, quoted phrases, file paths.
	QueryTypeLexical QueryType = "LEXICAL"
	// QueryTypeSemantic favors meaning-based matching: questions,
	// conceptual queries, explanations.
	QueryTypeSemantic QueryType = "SEMANTIC"
	// QueryTypeMixed benefits from both; the pipeline's unbiased default.
	QueryTypeMixed QueryType = "MIXED"
)

// WeightsForQueryType returns the fusion bias for a classified query type.
func WeightsForQueryType(qt QueryType) Weights {
	switch qt {
	case QueryTypeLexical:
		return Weights{Lexical: 1.5, Dense: 0.5}
	case QueryTypeSemantic:
		return Weights{Lexical: 0.5, Dense: 1.5}
	default:
		return DefaultWeights()
	}
}

// SearchOptions is the minimal option set threaded through the optional
// multi-query decomposition path (decomposer.go, multi_query.go,
// multi_fusion.go). It is deliberately decoupled from Options/model.Query
// so those helper files don't need to know about the outer pipeline's
// filter vocabulary.
type SearchOptions struct {
	Limit  int
	Filter string
}

// Classifier determines a query's shape and the resulting fusion bias.
// Implementations may use pattern matching, a local LLM, or a hybrid of
// the two with the LLM as a first pass and patterns as fallback.
type Classifier interface {
	// Classify analyzes a query and returns its type and fusion weights.
	// On error, implementations should return (QueryTypeMixed,
	// DefaultWeights(), err) so callers can safely ignore the error.
	Classify(ctx context.Context, query string) (QueryType, Weights, error)
}
