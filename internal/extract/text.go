package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/aman-cerp/semindex/internal/model"
)

// sniffWindow is the prefix inspected for binary content before committing
// to a text decode.
const sniffWindow = 8 * 1024

// binaryNULThreshold is the fraction of NUL bytes in the sniff window above
// which a file is treated as binary.
const binaryNULThreshold = 0.01

// looksBinary reports whether content's NUL-byte density in the first
// 8 KiB exceeds 1%.
func looksBinary(content []byte) bool {
	window := content
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	if len(window) == 0 {
		return false
	}
	var nulCount int
	for _, b := range window {
		if b == 0 {
			nulCount++
		}
	}
	return float64(nulCount)/float64(len(window)) > binaryNULThreshold
}

// extractText decodes content as UTF-8 with replacement for invalid
// sequences, rejecting content that sniffs as binary.
func extractText(path string, content []byte) (*ExtractedBody, error) {
	if looksBinary(content) {
		return nil, Skipped(path, "binary content detected (NUL density above threshold)")
	}

	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}

	return &ExtractedBody{
		Text:      text,
		Extractor: model.ExtractorText,
	}, nil
}
