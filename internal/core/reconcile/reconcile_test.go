package reconcile

import (
	"testing"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/aggregate"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	jan1 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jan2 = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	jan3 = time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestJoin_SplitDifferences(t *testing.T) {
	own := aggregate.ByDate([]domain.Transaction{
		{Date: jan1, Amount: d("100"), Method: domain.MethodCash},
		{Date: jan1, Amount: d("50"), Method: domain.MethodElectronic},
	}, true)
	ledger := aggregate.Ledger([]domain.LedgerEntry{
		{Date: jan1, Cash: d("90"), Electronic: d("50"), HasSplit: true},
	})

	rows := Join(own, ledger, nil)
	require.Len(t, rows, 1)
	r := rows[0]
	requireDecimal(t, "100", r.OwnCash)
	requireDecimal(t, "50", r.OwnElectronic)
	requireDecimal(t, "90", r.LedgerCash)
	requireDecimal(t, "50", r.LedgerElectronic)
	requireDecimal(t, "10", r.DiffCash)
	requireDecimal(t, "0", r.DiffElectronic)
	requireDecimal(t, "10", r.DiffTotal)
}

func TestJoin_OuterOnBothSides(t *testing.T) {
	own := []domain.DailyAggregate{
		{Date: jan1, Gross: d("100")},
		{Date: jan2, Gross: d("80")},
	}
	ledger := []domain.DailyAggregate{
		{Date: jan1, Gross: d("100")},
		{Date: jan3, Gross: d("40")},
	}

	rows := Join(own, ledger, nil)
	require.Len(t, rows, 3)
	require.True(t, rows[0].Date.Equal(jan1))
	require.True(t, rows[1].Date.Equal(jan2))
	require.True(t, rows[2].Date.Equal(jan3))

	requireDecimal(t, "0", rows[1].LedgerGross)
	requireDecimal(t, "0", rows[1].LedgerCash)
	requireDecimal(t, "80", rows[1].DiffTotal)
	requireDecimal(t, "-40", rows[2].DiffTotal)

	for _, r := range rows {
		require.True(t, r.DiffTotal.Equal(r.OwnGross.Sub(r.LedgerGross)))
	}
}

func TestJoin_Terminal(t *testing.T) {
	own := []domain.DailyAggregate{{Date: jan1, Electronic: d("50"), Gross: d("150"), Split: true}}
	terminal := []domain.DailyAggregate{{Date: jan1, Gross: d("45")}}

	rows := Join(own, nil, terminal)
	require.Len(t, rows, 1)
	requireDecimal(t, "45", rows[0].TerminalElectronic)
	requireDecimal(t, "5", rows[0].DiffTerminal)
}

func TestTotals(t *testing.T) {
	rows := Join(
		[]domain.DailyAggregate{{Date: jan1, Gross: d("100")}, {Date: jan2, Gross: d("80")}},
		[]domain.DailyAggregate{{Date: jan1, Gross: d("60")}},
		nil,
	)
	total := Totals(rows)
	requireDecimal(t, "180", total.OwnGross)
	requireDecimal(t, "60", total.LedgerGross)
	requireDecimal(t, "120", total.DiffTotal)
	require.True(t, total.Date.IsZero())
}

func TestAllocate_ConservesResidual(t *testing.T) {
	txs := []domain.Transaction{
		{Date: jan1, Amount: d("10"), TaxRate: d("10")},
		{Date: jan1, Amount: d("10"), TaxRate: d("22")},
		{Date: jan1, Amount: d("10"), TaxRate: d("4")},
	}
	rows := []domain.ReconciliationRow{{Date: jan1, OwnGross: d("30"), LedgerGross: d("20"), DiffTotal: d("10")}}

	alloc := Allocate(txs, rows, false)
	require.Len(t, alloc.Transactions, 3)
	require.Empty(t, alloc.Unallocated)

	sum := decimal.Zero
	for _, a := range alloc.Transactions {
		sum = sum.Add(a.AllocatedGross)
		require.True(t, a.TaxableBase.Add(a.TaxAmount).Equal(a.AllocatedGross))
		requireDecimal(t, "10", a.DayResidual)
	}
	requireDecimal(t, "10", sum)
	requireDecimal(t, "0.333333", alloc.Transactions[0].Share)
	requireDecimal(t, "3.333333", alloc.Transactions[0].AllocatedGross)
	requireDecimal(t, "3.333334", alloc.Transactions[2].AllocatedGross)
}

func TestAllocate_TaxDecomposition(t *testing.T) {
	txs := []domain.Transaction{{Date: jan1, Amount: d("11"), TaxRate: d("10")}}
	rows := []domain.ReconciliationRow{{Date: jan1, DiffTotal: d("11")}}

	alloc := Allocate(txs, rows, false)
	require.Len(t, alloc.Transactions, 1)
	a := alloc.Transactions[0]
	requireDecimal(t, "1", a.Share)
	requireDecimal(t, "11", a.AllocatedGross)
	requireDecimal(t, "10", a.TaxableBase)
	requireDecimal(t, "1", a.TaxAmount)

	summary := SummarizeByRate(alloc.Transactions)
	require.Len(t, summary, 1)
	requireDecimal(t, "10", summary[0].TaxableBase)
	requireDecimal(t, "1", summary[0].Tax)
}

func TestAllocate_ZeroDayTotalIsUnallocated(t *testing.T) {
	txs := []domain.Transaction{
		{Date: jan1, Amount: d("0"), TaxRate: d("10")},
		{Date: jan2, Amount: d("40"), TaxRate: d("10")},
	}
	rows := []domain.ReconciliationRow{
		{Date: jan1, DiffTotal: d("-25")},
		{Date: jan2, DiffTotal: d("0")},
		{Date: jan3, DiffTotal: d("-5")},
	}

	alloc := Allocate(txs, rows, false)
	require.Len(t, alloc.Transactions, 2)
	requireDecimal(t, "0", alloc.Transactions[0].Share)
	requireDecimal(t, "0", alloc.Transactions[0].AllocatedGross)

	require.Len(t, alloc.Unallocated, 2)
	require.True(t, alloc.Unallocated[0].Date.Equal(jan1))
	requireDecimal(t, "-25", alloc.Unallocated[0].Residual)
	require.True(t, alloc.Unallocated[1].Date.Equal(jan3))
}

func TestAllocate_SkipsUnknownMethodsWhenSplit(t *testing.T) {
	txs := []domain.Transaction{
		{Date: jan1, Amount: d("60"), Method: domain.MethodCash},
		{Date: jan1, Amount: d("40"), Method: domain.MethodElectronic},
		{Date: jan1, Amount: d("500"), Method: domain.MethodUnknown},
	}
	rows := []domain.ReconciliationRow{{Date: jan1, DiffTotal: d("10")}}

	alloc := Allocate(txs, rows, true)
	require.Len(t, alloc.Transactions, 2)
	requireDecimal(t, "6", alloc.Transactions[0].AllocatedGross)
	requireDecimal(t, "4", alloc.Transactions[1].AllocatedGross)
}

func TestSummarizeByRate_Order(t *testing.T) {
	summary := SummarizeByRate([]domain.AllocatedTransaction{
		{Transaction: domain.Transaction{TaxRate: d("22")}, AllocatedGross: d("1")},
		{Transaction: domain.Transaction{TaxRate: d("4")}, AllocatedGross: d("2")},
		{Transaction: domain.Transaction{TaxRate: d("10")}, AllocatedGross: d("3")},
		{Transaction: domain.Transaction{TaxRate: d("4")}, AllocatedGross: d("5")},
	})
	require.Len(t, summary, 3)
	require.Equal(t, "4", summary[0].Rate.String())
	requireDecimal(t, "7", summary[0].Gross)
	require.Equal(t, "22", summary[2].Rate.String())
}
