package chunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ConfigChunker splits structured config files (YAML, TOML, INI, JSON) into
// fixed-size byte windows with overlap, since these formats rarely carry
// the header/symbol structure that markdown and code chunkers key off of.
type ConfigChunker struct {
	maxBytes     int
	overlapBytes int
}

// NewConfigChunker creates a ConfigChunker using the config chunk-size
// budget (600 bytes, 100-200 byte overlap).
func NewConfigChunker() *ConfigChunker {
	return &ConfigChunker{
		maxBytes:     MaxChunkBytesConfig,
		overlapBytes: MinOverlapBytes,
	}
}

// SupportedExtensions returns file extensions this chunker handles.
func (c *ConfigChunker) SupportedExtensions() []string {
	return []string{".yaml", ".yml", ".toml", ".ini", ".json", ".conf", ".cfg", ".env"}
}

// Chunk splits config content into overlapping byte windows aligned to
// line boundaries where possible.
func (c *ConfigChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	lines := strings.Split(content, "\n")
	now := time.Now()

	var chunks []*Chunk
	start := 0
	for start < len(lines) {
		end := start
		size := 0
		for end < len(lines) && size < c.maxBytes {
			size += len(lines[end]) + 1
			end++
		}
		if end == start {
			end = start + 1
		}

		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) != "" {
			chunks = append(chunks, &Chunk{
				ID:          configChunkID(file.Path, start),
				FilePath:    file.Path,
				Content:     body,
				RawContent:  body,
				ContentType: ContentTypeConfig,
				Language:    file.Language,
				StartLine:   start + 1,
				EndLine:     end,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		if end >= len(lines) {
			break
		}

		overlapLines := c.overlapBytes / 40 // ~40 bytes/line heuristic for config text
		if overlapLines < 1 {
			overlapLines = 1
		}
		next := end - overlapLines
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

func configChunkID(path string, startLine int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", path, startLine)))
	return hex.EncodeToString(h[:])[:16]
}
