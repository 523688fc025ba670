package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/shopspring/decimal"
)

// Settings holds the document wording that does not come from the data.
type Settings struct {
	Organization   string
	RegimeNotice   string
	CurrencySymbol string
}

// DefaultSettings matches the header printed on the receipts reports.
var DefaultSettings = Settings{
	Organization:   "AZIENDA AGRICOLA PEDRA E LUNA",
	RegimeNotice:   "Regime Speciale IVA art.34 DPR 633/72",
	CurrencySymbol: "€",
}

func (s Settings) withDefaults() Settings {
	if s.Organization == "" {
		s.Organization = DefaultSettings.Organization
	}
	if s.RegimeNotice == "" {
		s.RegimeNotice = DefaultSettings.RegimeNotice
	}
	if s.CurrencySymbol == "" {
		s.CurrencySymbol = DefaultSettings.CurrencySymbol
	}
	return s
}

// Money formats d with two decimals after the currency symbol: "€ 1234.50".
func Money(d decimal.Decimal, symbol string) string {
	return symbol + " " + d.StringFixed(2)
}

// Date formats a calendar date day first.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}

// Rate formats a percentage as an integer: "10%".
func Rate(d decimal.Decimal) string {
	return d.Round(0).String() + "%"
}

var months = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

func monthYear(t time.Time) string {
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}

// Period names the months covered by the result: "gennaio 2024" or
// "gennaio 2024 - marzo 2024".
func Period(r *domain.Result) string {
	if len(r.Rows) == 0 {
		return ""
	}
	first, last := r.Rows[0].Date, r.Rows[len(r.Rows)-1].Date
	if first.Year() == last.Year() && first.Month() == last.Month() {
		return monthYear(first)
	}
	return monthYear(first) + " - " + monthYear(last)
}

// FileName is the download name of a report: "corrispettivi_gennaio_2024.pdf".
func FileName(r *domain.Result, ext string) string {
	name := "corrispettivi"
	if len(r.Rows) > 0 {
		name += "_" + strings.ReplaceAll(monthYear(r.Rows[0].Date), " ", "_")
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}
