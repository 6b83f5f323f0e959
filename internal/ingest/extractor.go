package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText holds the extracted plain text of one PDF page.
type PageText struct {
	// Number is the 1-based page number.
	Number int
	// Text is the page's plain text, trimmed.
	Text string
}

// ExtractPages reads the PDF at path and returns the plain text of each
// page that yielded any. A page that fails to decode is skipped; the
// whole document fails only when no page produced text.
func ExtractPages(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := reader.NumPage()
	pages := make([]PageText, 0, total)
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
		if text == "" {
			continue
		}

		pages = append(pages, PageText{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted from PDF (%d pages)", total)
	}
	return pages, nil
}
