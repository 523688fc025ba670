package normalize

import (
	"fmt"
	"strings"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/tabular"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
)

// Policy decides what happens to a row whose date cannot be parsed.
type Policy string

const (
	// PolicyDrop excludes the row and only counts it.
	PolicyDrop Policy = "drop"
	// PolicyFail aborts the run with *domain.ErrRowRejected.
	PolicyFail Policy = "fail"
	// PolicyCollect excludes the row and reports it in the result.
	PolicyCollect Policy = "collect"
)

// ParsePolicy accepts the policy names case-insensitively; "" means drop.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyDrop, nil
	case PolicyDrop, PolicyFail, PolicyCollect:
		return p, nil
	}
	return "", fmt.Errorf("invalid row policy %q", s)
}

// Outcome counts what the normalizer left out.
type Outcome struct {
	Rejected      []domain.RejectedRow
	RejectedCount int
}

func (o *Outcome) reject(policy Policy, row domain.RejectedRow) error {
	if policy == PolicyFail {
		return &domain.ErrRowRejected{Source: row.Source, Line: row.Line, Reason: row.Reason}
	}
	o.RejectedCount++
	if policy == PolicyCollect {
		o.Rejected = append(o.Rejected, row)
	}
	return nil
}

// Merge adds the counters of other to o.
func (o *Outcome) Merge(other Outcome) {
	o.RejectedCount += other.RejectedCount
	o.Rejected = append(o.Rejected, other.Rejected...)
}

type dataRow struct {
	line  int
	cells []string
}

func (r dataRow) get(m domain.ColumnMapping, role domain.ColumnRole) string {
	col, ok := m[role]
	if !ok || col.Index >= len(r.cells) {
		return ""
	}
	return r.cells[col.Index]
}

// dataRows yields the rows below the header, skipping blank rows and the
// footer rows spreadsheets add ("Totale", "TOTALI").
func dataRows(rows [][]string, header int, m domain.ColumnMapping) []dataRow {
	var out []dataRow
	for i := header + 1; i < len(rows); i++ {
		r := dataRow{line: i + 1, cells: rows[i]}
		if isBlank(r.cells) {
			continue
		}
		if strings.HasPrefix(tabular.Fold(r.get(m, domain.RoleDate)), "total") {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Transactions normalizes the rows of the own records or of the POS terminal
// export.
func Transactions(rows [][]string, header int, m domain.ColumnMapping, source domain.SourceKind, policy Policy) ([]domain.Transaction, Outcome, error) {
	var (
		txs     []domain.Transaction
		outcome Outcome
	)
	for _, r := range dataRows(rows, header, m) {
		date, err := ParseDate(r.get(m, domain.RoleDate))
		if err != nil {
			if err := outcome.reject(policy, domain.RejectedRow{Source: source, Line: r.line, Reason: err.Error()}); err != nil {
				return nil, outcome, err
			}
			continue
		}

		tx := domain.Transaction{
			Date:    date,
			Amount:  ParseDecimal(r.get(m, domain.RoleAmount)),
			TaxRate: ParseDecimal(r.get(m, domain.RoleTaxRate)),
			Line:    r.line,
		}
		if m.Has(domain.RolePaymentMethod) {
			tx.Method = ClassifyMethod(r.get(m, domain.RolePaymentMethod))
		}
		txs = append(txs, tx)
	}
	return txs, outcome, nil
}

// LedgerEntries normalizes the rows of the ledger export.
func LedgerEntries(rows [][]string, header int, m domain.ColumnMapping, policy Policy) ([]domain.LedgerEntry, Outcome, error) {
	var (
		entries []domain.LedgerEntry
		outcome Outcome
	)
	hasSplit := m.Has(domain.RoleCashTotal) && m.Has(domain.RoleElectronicTotal)
	hasGross := m.Has(domain.RoleGrossTotal)

	for _, r := range dataRows(rows, header, m) {
		date, err := ParseDate(r.get(m, domain.RoleDate))
		if err != nil {
			row := domain.RejectedRow{Source: domain.SourceLedgerSpreadsheet, Line: r.line, Reason: err.Error()}
			if err := outcome.reject(policy, row); err != nil {
				return nil, outcome, err
			}
			continue
		}

		entries = append(entries, domain.LedgerEntry{
			Date:       date,
			Cash:       ParseDecimal(r.get(m, domain.RoleCashTotal)),
			Electronic: ParseDecimal(r.get(m, domain.RoleElectronicTotal)),
			Gross:      ParseDecimal(r.get(m, domain.RoleGrossTotal)),
			HasSplit:   hasSplit,
			HasGross:   hasGross,
			Line:       r.line,
		})
	}
	return entries, outcome, nil
}
