package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	coreFontFamily    = "Arial"
	unicodeFontFamily = "portal"
	portraitWidth     = 190.0
	landscapeWidth    = 277.0
	landscapeColumns  = 7
)

// PDFExporter renders datasets into a basic tabular PDF.
//
// The core Arial font only covers cp1252. When fontFile points at a TTF with Thai glyphs it is
// embedded as a UTF-8 font and used for every cell.
type PDFExporter struct {
	fontFile string
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(fontFile string) *PDFExporter {
	return &PDFExporter{fontFile: fontFile}
}

// Render creates a PDF document with the dataset title and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	orientation, width := "P", portraitWidth
	if len(data.Headers) > landscapeColumns {
		orientation, width = "L", landscapeWidth
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	family := coreFontFamily
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if e.fontFile != "" {
		fontBytes, err := os.ReadFile(e.fontFile)
		if err != nil {
			return nil, fmt.Errorf("read pdf font: %w", err)
		}
		pdf.AddUTF8FontFromBytes(unicodeFontFamily, "", fontBytes)
		pdf.AddUTF8FontFromBytes(unicodeFontFamily, "B", fontBytes)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("load pdf font: %w", err)
		}
		family = unicodeFontFamily
		translate = func(s string) string { return s }
	}

	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, translate(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont(family, "B", 10)
	colWidth := width / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, translate(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, record := range data.Records() {
		for _, value := range record {
			pdf.CellFormat(colWidth, 7, translate(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
