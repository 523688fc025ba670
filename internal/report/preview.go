package report

import (
	"strconv"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/shopspring/decimal"
)

// Table is a grid of already formatted cells.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Footer []string   `json:"footer,omitempty"`
}

// Preview is the on-screen rendition of a result.
type Preview struct {
	Title       string   `json:"title"`
	Days        Table    `json:"days"`
	Rates       *Table   `json:"rates,omitempty"`
	PeriodTotal string   `json:"period_total"`
	Notes       []string `json:"notes,omitempty"`
}

type column struct {
	header string
	value  func(domain.ReconciliationRow) decimal.Decimal
}

// columns lists the per-day money columns for the features of a run.
func columns(f domain.Features) []column {
	var cols []column
	if f.Split {
		cols = append(cols,
			column{"Contanti (note)", func(r domain.ReconciliationRow) decimal.Decimal { return r.OwnCash }},
			column{"POS (note)", func(r domain.ReconciliationRow) decimal.Decimal { return r.OwnElectronic }},
		)
	}
	cols = append(cols, column{"Totale (note)", func(r domain.ReconciliationRow) decimal.Decimal { return r.OwnGross }})
	if f.Terminal {
		cols = append(cols, column{"POS (SumUp)", func(r domain.ReconciliationRow) decimal.Decimal { return r.TerminalElectronic }})
	}
	if f.Split {
		cols = append(cols,
			column{"Contanti (Billy)", func(r domain.ReconciliationRow) decimal.Decimal { return r.LedgerCash }},
			column{"POS (Billy)", func(r domain.ReconciliationRow) decimal.Decimal { return r.LedgerElectronic }},
		)
	}
	cols = append(cols, column{"Trasmesso (Billy)", func(r domain.ReconciliationRow) decimal.Decimal { return r.LedgerGross }})
	if f.Split {
		cols = append(cols,
			column{"Diff. Contanti", func(r domain.ReconciliationRow) decimal.Decimal { return r.DiffCash }},
			column{"Diff. POS", func(r domain.ReconciliationRow) decimal.Decimal { return r.DiffElectronic }},
		)
	}
	if f.Terminal {
		cols = append(cols, column{"Diff. SumUp", func(r domain.ReconciliationRow) decimal.Decimal { return r.DiffTerminal }})
	}
	cols = append(cols, column{"Da registrare", func(r domain.ReconciliationRow) decimal.Decimal { return r.DiffTotal }})
	return cols
}

// DaysTable formats the per-day rows with a TOTALE footer.
func DaysTable(r *domain.Result, s Settings) Table {
	s = s.withDefaults()
	cols := columns(r.Features)

	t := Table{Header: []string{"Data"}}
	for _, c := range cols {
		t.Header = append(t.Header, c.header)
	}
	for _, row := range r.Rows {
		cells := []string{Date(row.Date)}
		for _, c := range cols {
			cells = append(cells, Money(c.value(row), s.CurrencySymbol))
		}
		t.Rows = append(t.Rows, cells)
	}
	t.Footer = []string{"TOTALE"}
	for _, c := range cols {
		t.Footer = append(t.Footer, Money(c.value(r.Totals), s.CurrencySymbol))
	}
	return t
}

// RatesTable formats the allocation summary, or returns nil when the run had
// no tax rates.
func RatesTable(r *domain.Result, s Settings) *Table {
	if !r.Features.TaxRates {
		return nil
	}
	s = s.withDefaults()
	t := &Table{Header: []string{"Aliquota", "Lordo", "Imponibile", "Imposta"}}
	gross, base, tax := decimal.Zero, decimal.Zero, decimal.Zero
	for _, rs := range r.RateSummary {
		t.Rows = append(t.Rows, []string{
			Rate(rs.Rate),
			Money(rs.Gross, s.CurrencySymbol),
			Money(rs.TaxableBase, s.CurrencySymbol),
			Money(rs.Tax, s.CurrencySymbol),
		})
		gross = gross.Add(rs.Gross)
		base = base.Add(rs.TaxableBase)
		tax = tax.Add(rs.Tax)
	}
	t.Footer = []string{"TOTALE", Money(gross, s.CurrencySymbol), Money(base, s.CurrencySymbol), Money(tax, s.CurrencySymbol)}
	return t
}

// NewPreview builds the tables shown on screen before the PDF is requested.
func NewPreview(r *domain.Result, s Settings) Preview {
	s = s.withDefaults()
	p := Preview{
		Title:       "Report Corrispettivi - " + Period(r),
		Days:        DaysTable(r, s),
		Rates:       RatesTable(r, s),
		PeriodTotal: Money(r.Totals.DiffTotal, s.CurrencySymbol),
	}
	for _, u := range r.Unallocated {
		p.Notes = append(p.Notes, "Residuo non ripartito il "+Date(u.Date)+": "+Money(u.Residual, s.CurrencySymbol))
	}
	if r.RejectedCount > 0 {
		p.Notes = append(p.Notes, pluralRows(r.RejectedCount)+" escluse per data non valida")
	}
	return p
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 riga"
	}
	return strconv.Itoa(n) + " righe"
}
