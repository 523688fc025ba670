package report

import (
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
)

// Render writes the report of r into doc and finalizes it.
func Render(doc Document, r *domain.Result, s Settings) ([]byte, error) {
	s = s.withDefaults()
	p := NewPreview(r, s)

	doc.Paragraph(StyleTitle, s.Organization)
	doc.Paragraph(StyleSubtitle, s.RegimeNotice)
	doc.Paragraph(StyleHeading, p.Title)

	doc.Table(p.Days)
	doc.Paragraph(StyleBold, "Totale da registrare nel periodo: "+p.PeriodTotal)

	if p.Rates != nil {
		doc.Paragraph(StyleHeading, "Ripartizione per aliquota")
		doc.Table(*p.Rates)
	}
	for _, note := range p.Notes {
		doc.Paragraph(StyleNormal, note)
	}
	return doc.Bytes()
}

// BuildPDF renders r as a paginated A4 PDF.
func BuildPDF(r *domain.Result, s Settings) ([]byte, error) {
	landscape := len(columns(r.Features)) > 4
	return Render(NewPDFDocument(landscape), r, s)
}
