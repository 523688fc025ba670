package report

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func formatTwoDecimalsComma(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// WriteCSV exports the per-day rows as ';'-separated Windows-1252 text with
// comma decimals, the format the accounting software imports.
func WriteCSV(r *domain.Result) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := charmap.Windows1252.NewEncoder()
	tw := transform.NewWriter(&buffer, encoder)
	writer := csv.NewWriter(tw)
	writer.Comma = ';'

	cols := columns(r.Features)
	header := []string{"Data"}
	for _, c := range cols {
		header = append(header, c.header)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, row := range r.Rows {
		record := []string{Date(row.Date)}
		for _, c := range cols {
			record = append(record, formatTwoDecimalsComma(c.value(row)))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	footer := []string{"TOTALE"}
	for _, c := range cols {
		footer = append(footer, formatTwoDecimalsComma(c.value(r.Totals)))
	}
	if err := writer.Write(footer); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
