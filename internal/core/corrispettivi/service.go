// Package corrispettivi runs one reconciliation: own records and ledger export
// in, reconciled days out. A run shares nothing with other runs.
package corrispettivi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/aggregate"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/normalize"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/reconcile"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/schema"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/tabular"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLedgerSheet is the keyword of the receipts sheet in the ledger export.
const DefaultLedgerSheet = "corrispettivi"

// Variant selects which columns the own records must provide.
type Variant string

const (
	// VariantAuto enables the split and the tax brackets when their columns exist.
	VariantAuto Variant = "auto"
	// VariantSplit requires a payment method column.
	VariantSplit Variant = "split"
	// VariantGross compares only the daily gross totals.
	VariantGross Variant = "gross"
	// VariantTax requires a tax rate column and allocates the residuals.
	VariantTax Variant = "tax"
)

// ParseVariant accepts the variant names case-insensitively; "" means auto.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantAuto, nil
	case VariantAuto, VariantSplit, VariantGross, VariantTax:
		return v, nil
	}
	return "", fmt.Errorf("invalid variant %q", s)
}

// Source is one uploaded file. The extension of Filename selects the reader.
type Source struct {
	Reader   io.Reader
	Filename string
}

type Options struct {
	Variant      Variant
	OnInvalidRow normalize.Policy
	// LedgerSheet is matched against the sheet names of the ledger workbook.
	LedgerSheet string
}

type Input struct {
	Own    Source
	Ledger Source
	// POS is the optional card terminal export.
	POS     *Source
	Options Options
}

// Recorder receives run metrics. *observability.Metrics implements it.
type Recorder interface {
	RecordRun(outcome string, d time.Duration)
	AddRejected(source string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(string, time.Duration) {}
func (nopRecorder) AddRejected(string, int)         {}

type Service interface {
	Reconcile(ctx context.Context, in Input) (*domain.Result, error)
}

type service struct {
	resolver *schema.Resolver
	logger   *zap.Logger
	metrics  Recorder
}

// NewService builds the reconciliation service. logger and metrics may be nil.
func NewService(logger *zap.Logger, metrics Recorder) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &service{
		resolver: schema.NewResolver(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Reconcile runs the whole pipeline. Schema, format and rejected-row errors
// come back typed; anything else, panics included, is wrapped in
// *domain.ErrUnexpected.
func (s *service) Reconcile(ctx context.Context, in Input) (result *domain.Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &domain.ErrUnexpected{Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil && !isExpected(err) {
			var unexpected *domain.ErrUnexpected
			if !errors.As(err, &unexpected) {
				err = &domain.ErrUnexpected{Err: err}
			}
		}
		outcome := outcomeOf(err)
		s.metrics.RecordRun(outcome, time.Since(start))
		if err != nil {
			log.Warn("reconciliation failed", zap.String("outcome", outcome), zap.Error(err))
			return
		}
		log.Info("reconciliation completed",
			zap.Int("days", len(result.Rows)),
			zap.Int("rejected", result.RejectedCount),
			zap.String("diff_total", result.Totals.DiffTotal.StringFixed(2)),
			zap.Duration("elapsed", time.Since(start)))
	}()

	result, err = s.run(ctx, in, log)
	if result != nil {
		result.RunID = runID
	}
	return result, err
}

func (s *service) run(ctx context.Context, in Input, log *zap.Logger) (*domain.Result, error) {
	opts := in.Options
	if opts.Variant == "" {
		opts.Variant = VariantAuto
	}
	if opts.OnInvalidRow == "" {
		opts.OnInvalidRow = normalize.PolicyDrop
	}
	if opts.LedgerSheet == "" {
		opts.LedgerSheet = DefaultLedgerSheet
	}

	// Own records.
	ownSheet, err := firstSheet(in.Own, domain.SourceMarketCSV)
	if err != nil {
		return nil, fmt.Errorf("error reading own records: %w", err)
	}
	own, err := s.resolver.ResolveMarket(ownSheet.Rows, marketRequirement(opts.Variant))
	if err != nil {
		return nil, err
	}
	features := domain.Features{
		Split:    opts.Variant == VariantSplit || (opts.Variant == VariantAuto && own.Columns.Has(domain.RolePaymentMethod)),
		TaxRates: opts.Variant == VariantTax || (opts.Variant == VariantAuto && own.Columns.Has(domain.RoleTaxRate)),
	}
	log.Debug("own records schema resolved", zap.Any("columns", labels(own.Columns)), zap.Any("features", features))

	txs, outcome, err := normalize.Transactions(ownSheet.Rows, own.HeaderRow, own.Columns, domain.SourceMarketCSV, opts.OnInvalidRow)
	if err != nil {
		return nil, err
	}
	s.metrics.AddRejected(domain.SourceMarketCSV.String(), outcome.RejectedCount)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Ledger export.
	wb, err := tabular.Open(in.Ledger.Reader, in.Ledger.Filename)
	if err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}
	ledgerSheet, err := tabular.SelectSheet(wb, opts.LedgerSheet, domain.SourceLedgerSpreadsheet)
	if err != nil {
		return nil, err
	}
	ledger, err := s.resolver.ResolveLedger(ledgerSheet.Rows, ledgerRequirement)
	if err != nil {
		return nil, err
	}
	log.Debug("ledger schema resolved",
		zap.String("sheet", ledgerSheet.Name),
		zap.Int("header_row", ledger.HeaderRow),
		zap.Any("columns", labels(ledger.Columns)))

	entries, ledgerOutcome, err := normalize.LedgerEntries(ledgerSheet.Rows, ledger.HeaderRow, ledger.Columns, opts.OnInvalidRow)
	if err != nil {
		return nil, err
	}
	s.metrics.AddRejected(domain.SourceLedgerSpreadsheet.String(), ledgerOutcome.RejectedCount)
	outcome.Merge(ledgerOutcome)
	if features.Split && !(ledger.Columns.Has(domain.RoleCashTotal) && ledger.Columns.Has(domain.RoleElectronicTotal)) {
		log.Warn("ledger has no cash/electronic split, per-method differences compare against zero")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Optional POS terminal export.
	var terminal []domain.DailyAggregate
	if in.POS != nil {
		posSheet, err := firstSheet(*in.POS, domain.SourcePOSTerminal)
		if err != nil {
			return nil, fmt.Errorf("error reading POS export: %w", err)
		}
		pos, err := s.resolver.ResolvePOS(posSheet.Rows, schema.Requirement{Roles: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount}})
		if err != nil {
			return nil, err
		}
		posTxs, posOutcome, err := normalize.Transactions(posSheet.Rows, pos.HeaderRow, pos.Columns, domain.SourcePOSTerminal, opts.OnInvalidRow)
		if err != nil {
			return nil, err
		}
		s.metrics.AddRejected(domain.SourcePOSTerminal.String(), posOutcome.RejectedCount)
		outcome.Merge(posOutcome)
		terminal = aggregate.ByDate(posTxs, false)
		features.Terminal = true
	}

	rows := reconcile.Join(aggregate.ByDate(txs, features.Split), aggregate.Ledger(entries), terminal)
	result := &domain.Result{
		Rows:          rows,
		Totals:        reconcile.Totals(rows),
		Rejected:      outcome.Rejected,
		RejectedCount: outcome.RejectedCount,
		Features:      features,
	}

	if features.TaxRates {
		alloc := reconcile.Allocate(txs, rows, features.Split)
		result.OwnByRate = aggregate.ByDateAndRate(txs, features.Split)
		result.Allocations = alloc.Transactions
		result.Unallocated = alloc.Unallocated
		result.RateSummary = reconcile.SummarizeByRate(alloc.Transactions)
		if len(alloc.Unallocated) > 0 {
			log.Warn("residuals without own transactions to spread them on", zap.Int("days", len(alloc.Unallocated)))
		}
	}
	return result, nil
}

var ledgerRequirement = schema.Requirement{
	Roles: []domain.ColumnRole{domain.RoleDate},
	AnyOf: [][]domain.ColumnRole{
		{domain.RoleCashTotal, domain.RoleElectronicTotal},
		{domain.RoleGrossTotal},
	},
}

func marketRequirement(v Variant) schema.Requirement {
	req := schema.Requirement{Roles: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount}}
	switch v {
	case VariantSplit:
		req.Roles = append(req.Roles, domain.RolePaymentMethod)
	case VariantTax:
		req.Roles = append(req.Roles, domain.RoleTaxRate)
	}
	return req
}

func firstSheet(src Source, kind domain.SourceKind) (tabular.Sheet, error) {
	wb, err := tabular.Open(src.Reader, src.Filename)
	if err != nil {
		return tabular.Sheet{}, err
	}
	if len(wb.Sheets) == 0 {
		return tabular.Sheet{}, &domain.ErrSchemaNotFound{Source: kind, What: "file has no sheets"}
	}
	return wb.Sheets[0], nil
}

func labels(m domain.ColumnMapping) map[string]string {
	out := make(map[string]string, len(m))
	for role, col := range m {
		out[role.String()] = col.Label
	}
	return out
}

func isExpected(err error) bool {
	var (
		schemaErr   *domain.ErrSchemaNotFound
		rejectedErr *domain.ErrRowRejected
		formatErr   *domain.ErrUnsupportedFormat
	)
	return errors.As(err, &schemaErr) ||
		errors.As(err, &rejectedErr) ||
		errors.As(err, &formatErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func outcomeOf(err error) string {
	var (
		schemaErr   *domain.ErrSchemaNotFound
		rejectedErr *domain.ErrRowRejected
		formatErr   *domain.ErrUnsupportedFormat
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &schemaErr):
		return "schema_not_found"
	case errors.As(err, &rejectedErr):
		return "row_rejected"
	case errors.As(err, &formatErr):
		return "unsupported_format"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "unexpected"
}
