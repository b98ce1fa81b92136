package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/aman-cerp/semindex/internal/model"
)

var pdfExtensions = map[string]bool{".pdf": true}

// Options configures optional enrichment. A nil GeoResolver or GitEnricher
// disables that enrichment without affecting the rest of the extraction.
type Options struct {
	Geo              GeoResolver
	Git              GitEnricher
	GitEnrichEnabled bool
	RepoRoot         string
}

// Extract dispatches path to the extractor matching its extension and a
// binary content sniff, then appends git-log enrichment when enabled.
// Any per-file failure is returned as a *SkippedError and must not abort
// the caller's batch.
func Extract(ctx context.Context, path string, content []byte, opts Options) (*ExtractedBody, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		body *ExtractedBody
		err  error
	)
	switch {
	case pdfExtensions[ext]:
		body, err = extractPDF(path, content)
	case imageExtensions[ext]:
		body, err = extractImage(path, content, opts.Geo)
	default:
		body, err = extractText(path, content)
	}
	if err != nil {
		return nil, err
	}

	if opts.GitEnrichEnabled && opts.Git != nil && opts.RepoRoot != "" {
		subjects, gitErr := opts.Git.CommitSubjects(ctx, opts.RepoRoot, path, gitLogLimit)
		if gitErr == nil {
			if block := gitLogBlock(subjects); block != "" {
				body.Blocks = append(body.Blocks, MetadataBlock{Kind: model.ChunkKindGitLog, Text: block})
			}
		}
	}

	return body, nil
}
