package reconcile

import (
	"sort"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/aggregate"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/shopspring/decimal"
)

// Places is the precision kept for shares and allocated amounts.
const Places = 6

var hundred = decimal.NewFromInt(100)

// Allocation is the per-transaction spread of the day residuals.
type Allocation struct {
	Transactions []domain.AllocatedTransaction
	Unallocated  []domain.UnallocatedDay
}

// Allocate spreads each day residual (own gross - ledger gross) over the
// transactions of that day in proportion to their amount, then splits every
// allocated gross into taxable base and tax at the transaction's rate.
//
// The last transaction of a day absorbs the rounding, so the allocated gross
// of a day sums exactly to its residual. A day whose own total is zero cannot
// be spread: its transactions get a zero share and a non-zero residual is
// reported in Unallocated.
func Allocate(txs []domain.Transaction, rows []domain.ReconciliationRow, split bool) Allocation {
	byDay := make(map[time.Time][]domain.Transaction)
	for _, tx := range txs {
		if !aggregate.ContributesToGross(tx, split) {
			continue
		}
		key := domain.Day(tx.Date)
		byDay[key] = append(byDay[key], tx)
	}

	var out Allocation
	for _, row := range rows {
		residual := row.DiffTotal
		dayTxs := byDay[row.Date]

		dayTotal := decimal.Zero
		for _, tx := range dayTxs {
			dayTotal = dayTotal.Add(tx.Amount)
		}

		if dayTotal.IsZero() {
			for _, tx := range dayTxs {
				out.Transactions = append(out.Transactions, annotate(tx, residual, decimal.Zero, decimal.Zero))
			}
			if !residual.IsZero() {
				out.Unallocated = append(out.Unallocated, domain.UnallocatedDay{Date: row.Date, Residual: residual})
			}
			continue
		}

		assigned := decimal.Zero
		for i, tx := range dayTxs {
			share := tx.Amount.DivRound(dayTotal, Places)
			allocated := residual.Mul(tx.Amount).DivRound(dayTotal, Places)
			if i == len(dayTxs)-1 {
				allocated = residual.Sub(assigned)
			}
			assigned = assigned.Add(allocated)
			out.Transactions = append(out.Transactions, annotate(tx, residual, share, allocated))
		}
	}
	return out
}

// annotate fills the allocated gross and its taxable base / tax decomposition.
func annotate(tx domain.Transaction, residual, share, allocated decimal.Decimal) domain.AllocatedTransaction {
	divisor := decimal.NewFromInt(1).Add(tx.TaxRate.Div(hundred))
	base := allocated
	if !divisor.IsZero() {
		base = allocated.DivRound(divisor, Places)
	}
	return domain.AllocatedTransaction{
		Transaction:    tx,
		DayResidual:    residual,
		Share:          share,
		AllocatedGross: allocated,
		TaxableBase:    base,
		TaxAmount:      allocated.Sub(base),
	}
}

// SummarizeByRate totals the allocations per tax rate, lowest rate first.
func SummarizeByRate(allocs []domain.AllocatedTransaction) []domain.RateSummary {
	groups := make(map[string]*domain.RateSummary)
	for _, a := range allocs {
		key := a.TaxRate.String()
		s, ok := groups[key]
		if !ok {
			s = &domain.RateSummary{Rate: a.TaxRate}
			groups[key] = s
		}
		s.Gross = s.Gross.Add(a.AllocatedGross)
		s.TaxableBase = s.TaxableBase.Add(a.TaxableBase)
		s.Tax = s.Tax.Add(a.TaxAmount)
	}

	out := make([]domain.RateSummary, 0, len(groups))
	for _, s := range groups {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.LessThan(out[j].Rate) })
	return out
}
