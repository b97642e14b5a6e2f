// Package extract reads per-page plain text out of PDF documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Page is the plain text of a single document page. Number is 1-based and
// follows the physical page order of the document.
type Page struct {
	Number int
	Text   string
}

// PDF extracts text from PDF content.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

// FromFile reads the file at path and extracts its pages.
func (p *PDF) FromFile(ctx context.Context, path string) ([]Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return p.FromBytes(ctx, content)
}

// FromBytes extracts the pages of a PDF given as raw bytes. Every physical
// page yields exactly one entry, so Number always matches the page position
// in the document; pages without extractable text come back empty.
func (p *PDF) FromBytes(ctx context.Context, content []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]Page, 0, total)
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pg := reader.Page(i)
		if pg.V.IsNull() {
			// Страница без содержимого всё равно занимает номер.
			pages = append(pages, Page{Number: i})
			continue
		}

		text, err := pg.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	return pages, nil
}
