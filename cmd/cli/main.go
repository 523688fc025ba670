package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/api/responses"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/config"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/corrispettivi"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/normalize"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/report"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "reconcile":
		runReconcile()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Confronto Corrispettivi CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  reconcile  Compare own records with the Billy export and write the report")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runReconcile() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	ownPath := fs.String("own", "", "own records file (.csv)")
	ledgerPath := fs.String("ledger", "", "Billy export (.xlsx, .xls or .csv)")
	posPath := fs.String("pos", "", "optional SumUp export (.csv)")
	variant := fs.String("variant", cfg.Run.Variant, "auto, split, gross or tax")
	onInvalid := fs.String("on-invalid-row", cfg.Run.OnInvalidRow, "drop, fail or collect")
	sheet := fs.String("sheet", cfg.Run.LedgerSheet, "keyword of the receipts sheet")
	pdfOut := fs.String("out", "", "PDF output path (default: corrispettivi_<mese>_<anno>.pdf)")
	csvOut := fs.String("csv", "", "optional CSV output path")
	logLevel := fs.String("log-level", "warn", "log level")
	fs.Parse(os.Args[2:])

	logger := responses.InitLogger(*logLevel)
	defer logger.Sync()

	if *ownPath == "" || *ledgerPath == "" {
		logger.Fatal("-own and -ledger are required")
	}
	v, err := corrispettivi.ParseVariant(*variant)
	if err != nil {
		logger.Fatal("invalid -variant", zap.Error(err))
	}
	policy, err := normalize.ParsePolicy(*onInvalid)
	if err != nil {
		logger.Fatal("invalid -on-invalid-row", zap.Error(err))
	}

	own, err := os.Open(*ownPath)
	if err != nil {
		logger.Fatal("cannot open own records", zap.Error(err))
	}
	defer own.Close()
	ledger, err := os.Open(*ledgerPath)
	if err != nil {
		logger.Fatal("cannot open ledger", zap.Error(err))
	}
	defer ledger.Close()

	in := corrispettivi.Input{
		Own:     corrispettivi.Source{Reader: own, Filename: filepath.Base(*ownPath)},
		Ledger:  corrispettivi.Source{Reader: ledger, Filename: filepath.Base(*ledgerPath)},
		Options: corrispettivi.Options{Variant: v, OnInvalidRow: policy, LedgerSheet: *sheet},
	}
	if *posPath != "" {
		pos, err := os.Open(*posPath)
		if err != nil {
			logger.Fatal("cannot open POS export", zap.Error(err))
		}
		defer pos.Close()
		in.POS = &corrispettivi.Source{Reader: pos, Filename: filepath.Base(*posPath)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := corrispettivi.NewService(logger, nil).Reconcile(ctx, in)
	if err != nil {
		logger.Fatal("reconciliation failed", zap.Error(err))
	}

	settings := report.Settings{
		Organization:   cfg.Report.Organization,
		RegimeNotice:   cfg.Report.RegimeNotice,
		CurrencySymbol: cfg.Report.CurrencySymbol,
	}
	printPreview(report.NewPreview(result, settings))

	if *pdfOut == "" {
		*pdfOut = report.FileName(result, "pdf")
	}
	pdf, err := report.BuildPDF(result, settings)
	if err != nil {
		logger.Fatal("pdf rendering failed", zap.Error(err))
	}
	if err := os.WriteFile(*pdfOut, pdf, 0o644); err != nil {
		logger.Fatal("cannot write pdf", zap.Error(err))
	}
	fmt.Printf("\nPDF written to %s\n", *pdfOut)

	if *csvOut != "" {
		writeCSV(result, *csvOut, logger)
	}
}

func writeCSV(result *domain.Result, path string, logger *zap.Logger) {
	out, err := report.WriteCSV(result)
	if err != nil {
		logger.Fatal("csv export failed", zap.Error(err))
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		logger.Fatal("cannot write csv", zap.Error(err))
	}
	fmt.Printf("CSV written to %s\n", path)
}

func printPreview(p report.Preview) {
	fmt.Println(p.Title)
	fmt.Println()
	printTable(p.Days)
	fmt.Printf("\nTotale da registrare: %s\n", p.PeriodTotal)
	if p.Rates != nil {
		fmt.Println()
		printTable(*p.Rates)
	}
	for _, n := range p.Notes {
		fmt.Println(n)
	}
}

func printTable(t report.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(cells []string) {
		for _, c := range cells {
			fmt.Fprint(w, c, "\t")
		}
		fmt.Fprintln(w)
	}
	line(t.Header)
	for _, r := range t.Rows {
		line(r)
	}
	if len(t.Footer) > 0 {
		line(t.Footer)
	}
	w.Flush()
}
