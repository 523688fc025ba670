// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind identifies which uploaded file a row came from.
type SourceKind int

const (
	SourceMarketCSV SourceKind = iota + 1
	SourceLedgerSpreadsheet
	SourcePOSTerminal
)

func (k SourceKind) String() string {
	switch k {
	case SourceMarketCSV:
		return "market"
	case SourceLedgerSpreadsheet:
		return "ledger"
	case SourcePOSTerminal:
		return "pos"
	}
	return "unknown"
}

func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ColumnRole is the semantic meaning of a column, independent of its label.
type ColumnRole int

const (
	RoleDate ColumnRole = iota + 1
	RoleAmount
	RolePaymentMethod
	RoleTaxRate
	RoleCashTotal
	RoleElectronicTotal
	RoleGrossTotal
)

func (r ColumnRole) String() string {
	switch r {
	case RoleDate:
		return "Data"
	case RoleAmount:
		return "Importo"
	case RolePaymentMethod:
		return "Metodo"
	case RoleTaxRate:
		return "Aliquota"
	case RoleCashTotal:
		return "Contanti"
	case RoleElectronicTotal:
		return "Elettronico"
	case RoleGrossTotal:
		return "Totale"
	}
	return "?"
}

// ColumnMapping maps each resolved role to the column index and trimmed label.
type ColumnMapping map[ColumnRole]Column

type Column struct {
	Index int
	Label string
}

// Has reports whether the role was resolved.
func (m ColumnMapping) Has(role ColumnRole) bool {
	_, ok := m[role]
	return ok
}

type PaymentMethod int

const (
	MethodUnknown PaymentMethod = iota
	MethodCash
	MethodElectronic
)

func (m PaymentMethod) String() string {
	switch m {
	case MethodCash:
		return "contanti"
	case MethodElectronic:
		return "pos"
	}
	return "sconosciuto"
}

// MarshalText keeps the JSON preview readable.
func (m PaymentMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Transaction is one normalized row of the own records or of the POS terminal export.
type Transaction struct {
	Date    time.Time       `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
	Method  PaymentMethod   `json:"method"`
	TaxRate decimal.Decimal `json:"tax_rate"`
	Line    int             `json:"line"`
}

// LedgerEntry is one normalized row of the ledger export. Has* flags record
// which amount columns the sheet exposes.
type LedgerEntry struct {
	Date       time.Time
	Cash       decimal.Decimal
	Electronic decimal.Decimal
	Gross      decimal.Decimal
	HasSplit   bool
	HasGross   bool
	Line       int
}

// DailyAggregate holds the totals of one source for one day. When Split is
// true Gross == Cash + Electronic and Unclassified carries the amounts whose
// payment method was not recognized.
type DailyAggregate struct {
	Date         time.Time       `json:"date"`
	Cash         decimal.Decimal `json:"cash"`
	Electronic   decimal.Decimal `json:"electronic"`
	Gross        decimal.Decimal `json:"gross"`
	Unclassified decimal.Decimal `json:"unclassified"`
	Split        bool            `json:"split"`
}

// DailyRateAggregate is the own gross total of one (date, rate) pair.
type DailyRateAggregate struct {
	Date  time.Time       `json:"date"`
	Rate  decimal.Decimal `json:"rate"`
	Gross decimal.Decimal `json:"gross"`
}

// ReconciliationRow is the outer join of both sources for one day.
type ReconciliationRow struct {
	Date               time.Time       `json:"date"`
	OwnCash            decimal.Decimal `json:"own_cash"`
	OwnElectronic      decimal.Decimal `json:"own_electronic"`
	OwnGross           decimal.Decimal `json:"own_gross"`
	LedgerCash         decimal.Decimal `json:"ledger_cash"`
	LedgerElectronic   decimal.Decimal `json:"ledger_electronic"`
	LedgerGross        decimal.Decimal `json:"ledger_gross"`
	DiffCash           decimal.Decimal `json:"diff_cash"`
	DiffElectronic     decimal.Decimal `json:"diff_electronic"`
	DiffTotal          decimal.Decimal `json:"diff_total"`
	TerminalElectronic decimal.Decimal `json:"terminal_electronic"`
	DiffTerminal       decimal.Decimal `json:"diff_terminal"`
}

// AllocatedTransaction is a transaction carrying its share of the day residual.
type AllocatedTransaction struct {
	Transaction
	DayResidual    decimal.Decimal `json:"day_residual"`
	Share          decimal.Decimal `json:"share"`
	AllocatedGross decimal.Decimal `json:"allocated_gross"`
	TaxableBase    decimal.Decimal `json:"taxable_base"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
}

// RateSummary totals the allocated amounts of one tax rate over the period.
type RateSummary struct {
	Rate        decimal.Decimal `json:"rate"`
	Gross       decimal.Decimal `json:"gross"`
	TaxableBase decimal.Decimal `json:"taxable_base"`
	Tax         decimal.Decimal `json:"tax"`
}

// UnallocatedDay is a residual that could not be spread because the own total of the day is zero.
type UnallocatedDay struct {
	Date     time.Time       `json:"date"`
	Residual decimal.Decimal `json:"residual"`
}

// RejectedRow describes a row excluded from the aggregates.
type RejectedRow struct {
	Source SourceKind `json:"source"`
	Line   int        `json:"line"`
	Reason string     `json:"reason"`
}

// Features records which parts of the pipeline were active for a run.
type Features struct {
	Split    bool `json:"split"`
	TaxRates bool `json:"tax_rates"`
	Terminal bool `json:"terminal"`
}

// Result is the complete output of one reconciliation run.
type Result struct {
	RunID         string                 `json:"run_id"`
	Rows          []ReconciliationRow    `json:"rows"`
	Totals        ReconciliationRow      `json:"totals"`
	OwnByRate     []DailyRateAggregate   `json:"own_by_rate,omitempty"`
	Allocations   []AllocatedTransaction `json:"allocations,omitempty"`
	RateSummary   []RateSummary          `json:"rate_summary,omitempty"`
	Unallocated   []UnallocatedDay       `json:"unallocated,omitempty"`
	Rejected      []RejectedRow          `json:"rejected,omitempty"`
	RejectedCount int                    `json:"rejected_count"`
	Features      Features               `json:"features"`
}

// Day truncates t to the calendar date used as grouping key.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
