package indexer

import (
	"time"

	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/store"
)

// Container is everything the indexer needs from a container: its bound
// roots and provider, and the three stores a fragment's lifecycle touches.
// container.Container implements this directly, so the indexer does not
// depend on the container package.
type Container interface {
	Name() string
	Roots() []string
	Provider() model.ProviderIdentity
	Fragments() store.FragmentStore
	Vectors() store.VectorStore
	Lexical() store.BM25Index
	Embedder() embed.Embedder
}

// Stage identifies which part of the pipeline a ProgressEvent describes.
type Stage string

const (
	StageScan    Stage = "scan"
	StageExtract Stage = "extract"
	StageEmbed   Stage = "embed"
	StageCommit  Stage = "commit"
	StageDone    Stage = "done"
)

// ProgressEvent is emitted as a job advances, mirroring the
// indexing-progress/indexing-complete event pair callers forward to the
// command surface.
type ProgressEvent struct {
	Container string
	Stage     Stage
	Current   int
	Total     int
	Path      string
	Message   string
}

// ProgressFunc receives progress events. A nil func is a valid no-op.
type ProgressFunc func(ProgressEvent)

// JobResult summarizes a completed index_root/reindex_delta/reindex_all run.
type JobResult struct {
	Added     int
	Modified  int
	Deleted   int
	Skipped   int
	Errors    []error
	Duration  time.Duration
}

// Config controls the pipeline's execution discipline.
type Config struct {
	// Workers bounds the concurrent file-processing pool. 0 means
	// runtime.NumCPU().
	Workers int

	// EmbedBatchSize bounds how many fragment texts are embedded per
	// provider call.
	EmbedBatchSize int

	// MaxFileSize bounds the size of files the scanner will yield.
	// 0 uses scanner.DefaultMaxFileSize.
	MaxFileSize int64

	// GitEnrichEnabled turns on trailing gitlog metadata blocks for
	// files under a git-tracked root.
	GitEnrichEnabled bool
}

// DefaultConfig returns the pipeline's default execution parameters.
func DefaultConfig() Config {
	return Config{
		Workers:        0,
		EmbedBatchSize: 32,
	}
}

// fileTask is one file queued for extraction+chunking.
type fileTask struct {
	path    string
	absPath string
	mtime   time.Time
	size    int64
}


