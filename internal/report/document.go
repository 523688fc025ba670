package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Style selects the typography of a paragraph.
type Style int

const (
	StyleNormal Style = iota
	StyleTitle
	StyleSubtitle
	StyleHeading
	StyleBold
)

// Document is the rendering collaborator: the report only hands it
// formatted strings.
type Document interface {
	Paragraph(style Style, text string)
	Table(t Table)
	Bytes() ([]byte, error)
}

const (
	margin    = 12.0
	rowHeight = 7.0
	dateWidth = 24.0
)

type pdfDocument struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFDocument starts an A4 document. Landscape fits the wide per-day table
// of the split variant.
func NewPDFDocument(landscape bool) Document {
	orientation := "P"
	if landscape {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+5)
	pdf.AliasNbPages("")
	doc := &pdfDocument{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Pagina %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return doc
}

func (d *pdfDocument) Paragraph(style Style, text string) {
	p := d.pdf
	switch style {
	case StyleTitle:
		p.SetFont("Helvetica", "B", 18)
		p.SetTextColor(20, 20, 20)
		p.CellFormat(0, 9, d.tr(text), "", 1, "C", false, 0, "")
	case StyleSubtitle:
		p.SetFont("Helvetica", "", 12)
		p.SetTextColor(100, 100, 100)
		p.CellFormat(0, 7, d.tr(text), "", 1, "C", false, 0, "")
	case StyleHeading:
		p.Ln(3)
		p.SetFont("Helvetica", "B", 14)
		p.SetTextColor(40, 40, 40)
		p.CellFormat(0, 8, d.tr(text), "", 1, "C", false, 0, "")
	case StyleBold:
		p.SetFont("Helvetica", "B", 10)
		p.SetTextColor(0, 0, 0)
		p.MultiCell(0, 5, d.tr(text), "", "L", false)
	default:
		p.SetFont("Helvetica", "", 10)
		p.SetTextColor(0, 0, 0)
		p.MultiCell(0, 5, d.tr(text), "", "L", false)
	}
	p.Ln(2)
}

// Table draws a striped table. The header is repeated on every page the table
// spans.
func (d *pdfDocument) Table(t Table) {
	if len(t.Header) == 0 {
		return
	}
	widths := d.widths(len(t.Header))
	d.pdf.Ln(2)
	d.header(t.Header, widths)

	_, pageH := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	for i, row := range t.Rows {
		if d.pdf.GetY()+rowHeight > pageH-bottom {
			d.pdf.AddPage()
			d.header(t.Header, widths)
		}
		d.pdf.SetFont("Helvetica", "", 8)
		d.pdf.SetTextColor(0, 0, 0)
		d.pdf.SetFillColor(241, 245, 249)
		d.row(row, widths, i%2 == 1)
	}
	if len(t.Footer) > 0 {
		d.pdf.SetFont("Helvetica", "B", 8)
		d.pdf.SetTextColor(0, 0, 0)
		d.pdf.SetFillColor(226, 232, 240)
		d.row(t.Footer, widths, true)
	}
	d.pdf.Ln(4)
}

func (d *pdfDocument) header(cells []string, widths []float64) {
	d.pdf.SetFont("Helvetica", "B", 8)
	d.pdf.SetFillColor(51, 65, 85)
	d.pdf.SetTextColor(255, 255, 255)
	for i, c := range cells {
		d.pdf.CellFormat(widths[i], rowHeight, d.tr(c), "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *pdfDocument) row(cells []string, widths []float64, fill bool) {
	for i := range widths {
		align := "R"
		if i == 0 {
			align = "L"
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		d.pdf.CellFormat(widths[i], rowHeight, d.tr(text), "1", 0, align, fill, 0, "")
	}
	d.pdf.Ln(-1)
}

// widths gives the first column a fixed width and shares the rest equally.
func (d *pdfDocument) widths(n int) []float64 {
	pageW, _ := d.pdf.GetPageSize()
	left, _, right, _ := d.pdf.GetMargins()
	usable := pageW - left - right

	widths := make([]float64, n)
	if n == 1 {
		widths[0] = usable
		return widths
	}
	widths[0] = dateWidth
	rest := (usable - dateWidth) / float64(n-1)
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}

func (d *pdfDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
