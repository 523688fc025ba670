// Package reconcile joins the own and ledger aggregates and spreads day
// residuals over the individual transactions.
package reconcile

import (
	"sort"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
)

// Join outer-joins the aggregates by date. A date missing from one side gets
// zeros for that side. terminal may be nil.
func Join(own, ledger, terminal []domain.DailyAggregate) []domain.ReconciliationRow {
	rows := make(map[time.Time]*domain.ReconciliationRow)
	row := func(t time.Time) *domain.ReconciliationRow {
		key := domain.Day(t)
		r, ok := rows[key]
		if !ok {
			r = &domain.ReconciliationRow{Date: key}
			rows[key] = r
		}
		return r
	}

	for _, a := range own {
		r := row(a.Date)
		r.OwnCash = r.OwnCash.Add(a.Cash)
		r.OwnElectronic = r.OwnElectronic.Add(a.Electronic)
		r.OwnGross = r.OwnGross.Add(a.Gross)
	}
	for _, a := range ledger {
		r := row(a.Date)
		r.LedgerCash = r.LedgerCash.Add(a.Cash)
		r.LedgerElectronic = r.LedgerElectronic.Add(a.Electronic)
		r.LedgerGross = r.LedgerGross.Add(a.Gross)
	}
	for _, a := range terminal {
		r := row(a.Date)
		r.TerminalElectronic = r.TerminalElectronic.Add(a.Gross)
	}

	out := make([]domain.ReconciliationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, withDiffs(*r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func withDiffs(r domain.ReconciliationRow) domain.ReconciliationRow {
	r.DiffCash = r.OwnCash.Sub(r.LedgerCash)
	r.DiffElectronic = r.OwnElectronic.Sub(r.LedgerElectronic)
	r.DiffTotal = r.OwnGross.Sub(r.LedgerGross)
	r.DiffTerminal = r.OwnElectronic.Sub(r.TerminalElectronic)
	return r
}

// Totals sums every column over the period. Its Date is the zero time.
func Totals(rows []domain.ReconciliationRow) domain.ReconciliationRow {
	var t domain.ReconciliationRow
	for _, r := range rows {
		t.OwnCash = t.OwnCash.Add(r.OwnCash)
		t.OwnElectronic = t.OwnElectronic.Add(r.OwnElectronic)
		t.OwnGross = t.OwnGross.Add(r.OwnGross)
		t.LedgerCash = t.LedgerCash.Add(r.LedgerCash)
		t.LedgerElectronic = t.LedgerElectronic.Add(r.LedgerElectronic)
		t.LedgerGross = t.LedgerGross.Add(r.LedgerGross)
		t.DiffCash = t.DiffCash.Add(r.DiffCash)
		t.DiffElectronic = t.DiffElectronic.Add(r.DiffElectronic)
		t.DiffTotal = t.DiffTotal.Add(r.DiffTotal)
		t.TerminalElectronic = t.TerminalElectronic.Add(r.TerminalElectronic)
		t.DiffTerminal = t.DiffTerminal.Add(r.DiffTerminal)
	}
	return t
}
