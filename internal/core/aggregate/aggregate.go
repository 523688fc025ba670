// Package aggregate groups normalized records by calendar date.
package aggregate

import (
	"sort"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
)

// ContributesToGross reports whether tx is part of the day gross total. With
// a payment-method split only recognized methods count.
func ContributesToGross(tx domain.Transaction, split bool) bool {
	return !split || tx.Method != domain.MethodUnknown
}

// ByDate sums transactions per date. With split, cash and electronic are
// summed separately and Gross is their sum; unknown methods go to
// Unclassified. Without split, Gross is the sum of every amount.
func ByDate(txs []domain.Transaction, split bool) []domain.DailyAggregate {
	days := make(map[time.Time]*domain.DailyAggregate)
	for _, tx := range txs {
		key := domain.Day(tx.Date)
		agg, ok := days[key]
		if !ok {
			agg = &domain.DailyAggregate{Date: key, Split: split}
			days[key] = agg
		}

		if !split {
			agg.Gross = agg.Gross.Add(tx.Amount)
			continue
		}
		switch tx.Method {
		case domain.MethodCash:
			agg.Cash = agg.Cash.Add(tx.Amount)
		case domain.MethodElectronic:
			agg.Electronic = agg.Electronic.Add(tx.Amount)
		default:
			agg.Unclassified = agg.Unclassified.Add(tx.Amount)
		}
		agg.Gross = agg.Cash.Add(agg.Electronic)
	}
	return sorted(days)
}

// Ledger sums ledger entries per date. When the sheet exposes both cash and
// electronic columns the gross is derived from them; otherwise the gross
// column stands alone.
func Ledger(entries []domain.LedgerEntry) []domain.DailyAggregate {
	days := make(map[time.Time]*domain.DailyAggregate)
	for _, e := range entries {
		key := domain.Day(e.Date)
		agg, ok := days[key]
		if !ok {
			agg = &domain.DailyAggregate{Date: key, Split: e.HasSplit}
			days[key] = agg
		}

		agg.Cash = agg.Cash.Add(e.Cash)
		agg.Electronic = agg.Electronic.Add(e.Electronic)
		if e.HasSplit {
			agg.Gross = agg.Cash.Add(agg.Electronic)
		} else {
			agg.Gross = agg.Gross.Add(e.Gross)
		}
	}
	return sorted(days)
}

// Merge re-aggregates daily rows by date. On input that already has one row
// per date it returns an identical table.
func Merge(aggs []domain.DailyAggregate) []domain.DailyAggregate {
	days := make(map[time.Time]*domain.DailyAggregate)
	for _, a := range aggs {
		key := domain.Day(a.Date)
		agg, ok := days[key]
		if !ok {
			agg = &domain.DailyAggregate{Date: key, Split: a.Split}
			days[key] = agg
		}
		agg.Cash = agg.Cash.Add(a.Cash)
		agg.Electronic = agg.Electronic.Add(a.Electronic)
		agg.Gross = agg.Gross.Add(a.Gross)
		agg.Unclassified = agg.Unclassified.Add(a.Unclassified)
		agg.Split = agg.Split && a.Split
	}
	return sorted(days)
}

type dateRate struct {
	date time.Time
	rate string
}

// ByDateAndRate sums amounts per (date, tax rate). Rates are compared by
// value, so "10" and "10.0" share a row.
func ByDateAndRate(txs []domain.Transaction, split bool) []domain.DailyRateAggregate {
	groups := make(map[dateRate]*domain.DailyRateAggregate)
	for _, tx := range txs {
		if !ContributesToGross(tx, split) {
			continue
		}
		key := dateRate{date: domain.Day(tx.Date), rate: tx.TaxRate.String()}
		agg, ok := groups[key]
		if !ok {
			agg = &domain.DailyRateAggregate{Date: key.date, Rate: tx.TaxRate}
			groups[key] = agg
		}
		agg.Gross = agg.Gross.Add(tx.Amount)
	}

	out := make([]domain.DailyRateAggregate, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Rate.LessThan(out[j].Rate)
	})
	return out
}

func sorted(days map[time.Time]*domain.DailyAggregate) []domain.DailyAggregate {
	out := make([]domain.DailyAggregate, 0, len(days))
	for _, agg := range days {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
