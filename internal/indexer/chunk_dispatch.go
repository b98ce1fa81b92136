package indexer

import (
	"strings"

	"github.com/aman-cerp/semindex/internal/chunk"
)

// chunkerSet holds one instance of each chunker and dispatches a file to
// the right one by extension. CodeChunker claims anything neither the
// markdown nor the config chunker recognizes — its own tree-sitter
// registry picks a language grammar when one exists and otherwise falls
// back to fixed-size line chunking, so it also serves as the pipeline's
// generic/plain-text chunker.
type chunkerSet struct {
	markdown chunk.Chunker
	config   chunk.Chunker
	code     *chunk.CodeChunker
	byExtMD  map[string]bool
	byExtCfg map[string]bool
}

func newChunkerSet() *chunkerSet {
	md := chunk.NewMarkdownChunker()
	cfg := chunk.NewConfigChunker()
	code := chunk.NewCodeChunker()

	cs := &chunkerSet{
		markdown: md,
		config:   cfg,
		code:     code,
		byExtMD:  make(map[string]bool),
		byExtCfg: make(map[string]bool),
	}
	for _, ext := range md.SupportedExtensions() {
		cs.byExtMD[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.SupportedExtensions() {
		cs.byExtCfg[strings.ToLower(ext)] = true
	}
	return cs
}

// pick returns the chunker responsible for path, given its extension.
func (cs *chunkerSet) pick(ext string) chunk.Chunker {
	ext = strings.ToLower(ext)
	switch {
	case cs.byExtMD[ext]:
		return cs.markdown
	case cs.byExtCfg[ext]:
		return cs.config
	default:
		return cs.code
	}
}

// Close releases the tree-sitter parser pool backing CodeChunker.
func (cs *chunkerSet) Close() error {
	cs.code.Close()
	return nil
}
