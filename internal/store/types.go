// Package store provides the persistence layer for an indexed container:
// a vector index (HNSW), a full-text index (SQLite FTS5), and a metadata
// store holding fragment rows, file freshness tokens, and annotations.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-cerp/semindex/internal/model"
)

// FragmentStore persists per-container fragment metadata, file freshness
// tokens, and annotations. Vector
// and full-text search live in the separate VectorStore and BM25Index
// interfaces; a container wires all three behind one logical Store.
type FragmentStore interface {
	// UpsertFragments inserts or replaces fragments by fragment ID,
	// atomic per call.
	UpsertFragments(ctx context.Context, fragments []*model.Fragment) error

	// DeleteByPath removes all fragments owned by path.
	DeleteByPath(ctx context.Context, path string) error

	// GetFragmentsByPath returns all fragments owned by path, ordered by
	// ordinal.
	GetFragmentsByPath(ctx context.Context, path string) ([]*model.Fragment, error)

	// GetFragments batch-retrieves fragments by ID.
	GetFragments(ctx context.Context, ids []string) ([]*model.Fragment, error)

	// File record operations, for incremental freshness checks.
	UpsertFileRecord(ctx context.Context, file *model.FileRecord) error
	GetFileRecord(ctx context.Context, path string) (*model.FileRecord, error)
	DeleteFileRecord(ctx context.Context, path string) error
	ScanFileRecords(ctx context.Context) ([]*model.FileRecord, error)

	// Annotation operations. Annotations persist even if the owning file
	// is deleted, until explicitly removed.
	UpsertAnnotation(ctx context.Context, annotation *model.Annotation) error
	GetAnnotation(ctx context.Context, id string) (*model.Annotation, error)
	GetAnnotationsByPath(ctx context.Context, path string) ([]*model.Annotation, error)
	DeleteAnnotation(ctx context.Context, id string) error

	// Clear drops every row owned by this store (used by reindex_all and
	// container deletion).
	Clear(ctx context.Context) error

	// Stats reports row counts for index_status.
	Stats(ctx context.Context) (FragmentStoreStats, error)

	// Lifecycle
	Close() error
}

// FragmentStoreStats reports counts for the index_status command.
type FragmentStoreStats struct {
	TotalFiles     int
	TotalFragments int
	TotalAnnotations int
}

// Document represents a unit of text indexed in the full-text index,
// keyed the same way as a fragment or annotation pseudo-path.
type Document struct {
	ID      string // Fragment ID or annotation pseudo-path
	Content string
}

// BM25Result represents a single lexical search result.
type BM25Result struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// IndexStats provides statistics about the BM25 index.
type IndexStats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// BM25Index provides lexical full-text search.
type BM25Index interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)
	Delete(ctx context.Context, docIDs []string) error
	AllIDs() ([]string, error)
	Stats() *IndexStats
	Save(path string) error
	Load(path string) error
	Close() error
}

// BM25Config configures the lexical index.
type BM25Config struct {
	K1             float64
	B              float64
	StopWords      []string
	MinTokenLength int
}

// DefaultBM25Config returns default BM25 configuration.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:             1.2,
		B:              0.75,
		StopWords:      DefaultCodeStopWords,
		MinTokenLength: 2,
	}
}

// DefaultCodeStopWords contains programming keywords to filter out so
// lexical search over source code is not dominated by syntax noise.
var DefaultCodeStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}

// VectorResult represents a single ANN search result.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32
}

// VectorStoreConfig configures the HNSW vector store.
type VectorStoreConfig struct {
	Dimensions     int
	Quantization   string
	Metric         string
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible defaults for a container's
// vector store, sized to its provider's declared dimension.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Quantization:   "f16",
		Metric:         "cos",
		M:              32,
		EfConstruction: 128,
		EfSearch:       64,
	}
}

// VectorStore provides semantic nearest-neighbor search.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	// SearchSubset scores query against only the given candidate IDs
	// instead of the whole store, for callers restricting an ANN pass to
	// a known-relevant slice of documents (e.g. annotation-tagged
	// fragments).
	SearchSubset(ctx context.Context, query []float32, ids []string, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs() []string
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector's dimension does not match the
// container's bound ProviderIdentity.embedding-dimension; surfaced to
// callers as errors.ProviderMismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run 'semindex reindex --force')", e.Expected, e.Got)
}

// ContainerInfo reports comprehensive information about a container's
// store, for the `index_status`/info command surface.
type ContainerInfo struct {
	ContainerName string
	Roots         []string

	Provider   model.ProviderIdentity
	Compatible bool

	TotalFiles       int
	TotalFragments   int
	TotalAnnotations int

	VectorSizeBytes int64
	TextSizeBytes   int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentSchemaVersion is the current on-disk schema version.
const CurrentSchemaVersion = 1
