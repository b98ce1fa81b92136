package extract

import (
	"context"

	"github.com/aman-cerp/semindex/internal/model"
)

// MetadataBlock is a trailing, separately chunk-tagged block appended to an
// extracted body: OCR text, EXIF/GPS expansion, or a git log summary.
type MetadataBlock struct {
	Kind model.ChunkKind
	Text string
}

// ExtractedBody is the result of running a single file through the
// dispatch chain in Extract.
type ExtractedBody struct {
	Text      string
	Language  string
	Extractor model.ExtractorKind
	Blocks    []MetadataBlock
}

// SkippedError reports a non-fatal per-file extraction failure. The caller
// (the indexer) logs it and continues the batch.
type SkippedError struct {
	Path   string
	Reason string
}

func (e *SkippedError) Error() string {
	return "skipped " + e.Path + ": " + e.Reason
}

// Skipped constructs a SkippedError.
func Skipped(path, reason string) *SkippedError {
	return &SkippedError{Path: path, Reason: reason}
}

// GeoResolver reverse-geocodes a GPS coordinate to a human-readable
// "city, region, country" string. The default resolver is a no-op: bundling
// an offline geocoding dataset is out of scope, so GPS EXIF data is
// preserved numerically but not place-named unless a resolver is supplied.
type GeoResolver interface {
	Resolve(lat, lon float64) (string, bool)
}

// NoOpGeoResolver never resolves a coordinate.
type NoOpGeoResolver struct{}

// Resolve always returns ("", false).
func (NoOpGeoResolver) Resolve(lat, lon float64) (string, bool) { return "", false }

// GitEnricher appends recent commit history touching a path as a trailing
// gitlog metadata block. Implementations must not fail the extraction when
// git is unavailable or the path isn't tracked.
type GitEnricher interface {
	CommitSubjects(ctx context.Context, repoRoot, path string, limit int) ([]string, error)
}
