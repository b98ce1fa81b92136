// Package model defines the core data types shared across the indexing and
// retrieval pipelines: containers, provider identities, file records,
// fragments, annotations, queries, and results.
package model

import "time"

// ProviderKind distinguishes a local, in-process embedding provider from a
// remote, HTTP-backed one.
type ProviderKind string

const (
	ProviderKindLocal  ProviderKind = "local"
	ProviderKindRemote ProviderKind = "remote"
)

// ProviderIdentity is the immutable tuple a Container binds to at creation.
// Changing it requires creating a new container or an explicit rebuild that
// clears all rows first.
type ProviderIdentity struct {
	Kind      ProviderKind `json:"kind" yaml:"kind"`
	Model     string       `json:"model" yaml:"model"`
	Dimension int          `json:"dimension" yaml:"dimension"`
}

// Equal reports whether two ProviderIdentity values describe the same
// provider binding.
func (p ProviderIdentity) Equal(other ProviderIdentity) bool {
	return p.Kind == other.Kind && p.Model == other.Model && p.Dimension == other.Dimension
}

// Container is a named isolated index: an ordered set of indexed root
// paths bound to a single ProviderIdentity.
type Container struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Roots       []string         `json:"roots" yaml:"roots"`
	Provider    ProviderIdentity `json:"provider" yaml:"provider"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
	Active      bool             `json:"active" yaml:"active"`
}

// DefaultContainerName is the reserved container that always exists and
// cannot be deleted.
const DefaultContainerName = "Default"

// ExtractorKind identifies which content extractor produced a FileRecord.
type ExtractorKind string

const (
	ExtractorText      ExtractorKind = "text"
	ExtractorPDF       ExtractorKind = "pdf"
	ExtractorImageOCR  ExtractorKind = "image-ocr"
	ExtractorBinarySkip ExtractorKind = "binary-skip"
)

// FileRecord tracks a single indexed file, scoped to a container by path.
type FileRecord struct {
	Path          string        `json:"path"`
	MTime         time.Time     `json:"mtime"`
	FreshnessHash string        `json:"freshness_hash"`
	Extractor     ExtractorKind `json:"extractor"`
	Language      string        `json:"language,omitempty"`
}

// ChunkKind classifies a Fragment's provenance.
type ChunkKind string

const (
	ChunkKindCode       ChunkKind = "code"
	ChunkKindDoc        ChunkKind = "doc"
	ChunkKindConfig     ChunkKind = "config"
	ChunkKindOCR        ChunkKind = "ocr"
	ChunkKindAnnotation ChunkKind = "annotation"
	ChunkKindGitLog     ChunkKind = "gitlog"
)

// Fragment is a single embedded unit belonging to a FileRecord (or, for
// annotation-kind fragments, directly to the Container).
type Fragment struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Ordinal     int       `json:"ordinal"`
	OffsetStart int       `json:"offset_start"`
	OffsetEnd   int       `json:"offset_end"`
	Text        string    `json:"text"`
	Vector      []float32 `json:"vector"`
	ChunkKind   ChunkKind `json:"chunk_kind"`
	Language    string    `json:"language,omitempty"`
	MTime       time.Time `json:"mtime"`
}

// AnnotationSource distinguishes a human-authored note from an
// agent-authored one.
type AnnotationSource string

const (
	AnnotationSourceUser  AnnotationSource = "user"
	AnnotationSourceAgent AnnotationSource = "agent"
)

// Annotation is a user- or agent-supplied note attached to a file path. It
// is embedded and indexed like a Fragment, tagged ChunkKindAnnotation, but
// persists independently of the underlying FileRecord.
type Annotation struct {
	ID        string           `json:"id"`
	Path      string           `json:"path"`
	Source    AnnotationSource `json:"source"`
	Note      string           `json:"note"`
	CreatedAt time.Time        `json:"created_at"`
}

// AnnotationPseudoPath returns the synthetic path used to address an
// annotation's fragment in the store: "annotation:<id>". It is excluded
// from per-file result deduplication.
func AnnotationPseudoPath(id string) string {
	return "annotation:" + id
}

// Query is a transient request to the retrieval pipeline.
type Query struct {
	Text          string   `json:"text"`
	ExtAllowList  []string `json:"ext_allow_list,omitempty"`
	PathPrefix    string   `json:"path_prefix,omitempty"`
	TopK          int      `json:"top_k"`
	MinScore      float64  `json:"min_score"`
}

// Result is a single ranked hit returned to the caller.
type Result struct {
	Path            string  `json:"path"`
	Snippet         string  `json:"snippet"`
	Score           float64 `json:"score"` // 0..100
	FragmentOrdinal int     `json:"fragment_ordinal"`
}

// Less orders results by descending score, then ascending fragment
// ordinal, then path — the tie-break rule the retrieval pipeline must
// apply before returning a response.
func (r Result) Less(other Result) bool {
	if r.Score != other.Score {
		return r.Score > other.Score
	}
	if r.FragmentOrdinal != other.FragmentOrdinal {
		return r.FragmentOrdinal < other.FragmentOrdinal
	}
	return r.Path < other.Path
}
