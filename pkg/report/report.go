// Package report renders match results as a PDF: one page per scanned
// page, with the matched regions outlined on a scaled page diagram.
package report

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// Box is one highlighted region on a page, in page pixel coordinates.
type Box struct {
	Label          string
	X0, Y0, X1, Y1 float64
}

// PageReport is the set of highlighted regions found on one page.
type PageReport struct {
	DocumentCode string
	PageCode     string
	Width        float64
	Height       float64
	Boxes        []Box
}

const (
	margin     = 36.0
	headerSize = 12.0
	labelSize  = 8.0
)

// Render builds the PDF. Each page diagram is scaled to fit an A4 page
// under the header, preserving the page's aspect ratio.
func Render(title string, pages []PageReport) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, true)

	for _, page := range pages {
		pdf.AddPage()
		pageW, pageH := pdf.GetPageSize()

		pdf.SetFont("Helvetica", "B", headerSize)
		header := fmt.Sprintf("%s  document %s  page %s", title, page.DocumentCode, page.PageCode)
		pdf.Text(margin, margin, header)

		if page.Width <= 0 || page.Height <= 0 {
			continue
		}

		// Fit the page diagram under the header.
		top := margin + 2*headerSize
		availW := pageW - 2*margin
		availH := pageH - top - margin
		scale := availW / page.Width
		if s := availH / page.Height; s < scale {
			scale = s
		}

		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.5)
		pdf.Rect(margin, top, page.Width*scale, page.Height*scale, "D")

		pdf.SetDrawColor(200, 0, 0)
		pdf.SetFont("Helvetica", "", labelSize)
		for _, box := range page.Boxes {
			x := margin + box.X0*scale
			y := top + box.Y0*scale
			w := (box.X1 - box.X0) * scale
			h := (box.Y1 - box.Y0) * scale
			pdf.Rect(x, y, w, h, "D")
			if box.Label != "" {
				pdf.Text(x, y-2, box.Label)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
