package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/aman-cerp/semindex/internal/model"
)

// pageBreakSentinel separates concatenated page text in the extracted body.
const pageBreakSentinel = "\n\f\n"

// extractPDF linearizes text from every page of a PDF, concatenated with a
// page-break sentinel between pages.
func extractPDF(path string, content []byte) (*ExtractedBody, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, Skipped(path, fmt.Sprintf("pdf open failed: %v", err))
	}

	var pages []string
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, Skipped(path, "pdf contained no extractable text")
	}

	return &ExtractedBody{
		Text:      strings.Join(pages, pageBreakSentinel),
		Extractor: model.ExtractorPDF,
	}, nil
}
