package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/atlasfin/loanengine/internal/assumption"
	"github.com/atlasfin/loanengine/internal/config"
	"github.com/atlasfin/loanengine/internal/ingest"
	"github.com/atlasfin/loanengine/internal/logger"
	"github.com/atlasfin/loanengine/internal/pipeline"
	"github.com/atlasfin/loanengine/internal/report"
	"github.com/atlasfin/loanengine/internal/risk"
	"github.com/atlasfin/loanengine/internal/segmentation"
)

// Output file names under the configured output directory.
const (
	enrichedFile    = "enriched_loans.json"
	runReportFile   = "run_report.json"
	problematicFile = "problematic_loans.json"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	tape := flag.String("tape", "", "Datatape CSV path (overrides config)")
	assumptionsPath := flag.String("assumptions", "", "Assumption workbook path (overrides config)")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	flag.Parse()

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	// Flags feed the environment layer, so they outrank both the file and
	// the inherited environment.
	setFlagEnv("DATATAPE_PATH", *tape)
	setFlagEnv("ASSUMPTIONS_PATH", *assumptionsPath)
	setFlagEnv("OUTPUT_DIR", *outputDir)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(cfg.SlogLevel(), cfg.LogFormat)
	log := logger.Logger()

	loader := ingest.NewLoader(log)

	loans, err := loader.LoadTape(cfg.DatatapePath)
	if err != nil {
		fatal(log, "Failed to load datatape", err)
	}

	workbook, err := loader.LoadWorkbook(cfg.AssumptionsPath)
	if err != nil {
		fatal(log, "Failed to load assumption workbook", err)
	}
	store, err := assumption.NewStore(workbook)
	if err != nil {
		fatal(log, "Failed to build assumption store", err)
	}

	in := segmentation.Input{Loans: loans}
	if cfg.ResolveFormat() == config.FormatComplex {
		if cfg.GuaranteesPath == "" {
			fatal(log, "Complex datatape needs a guarantee table", fmt.Errorf("guarantees_path is not set"))
		}
		entries, err := loader.LoadGuarantees(cfg.GuaranteesPath)
		if err != nil {
			fatal(log, "Failed to load guarantee table", err)
		}
		in.Source = segmentation.GuaranteeSourceTable
		in.Guarantees = entries
	}

	pcfg := pipeline.Config{
		Risk: risk.Config{
			Workers:      cfg.Workers.RiskWorkers,
			Threshold:    cfg.Workers.ParallelThreshold,
			MinChunkSize: cfg.Workers.MinChunkSize,
		},
		EnrichWorkers: cfg.Workers.EnrichWorkers,
	}
	if cfg.CostRiskTablePath != "" && cfg.PrepaymentTablePath != "" {
		costTable, err := loader.LoadRiskTable(cfg.CostRiskTablePath)
		if err != nil {
			fatal(log, "Failed to load cost of risk table", err)
		}
		prepayTable, err := loader.LoadRiskTable(cfg.PrepaymentTablePath)
		if err != nil {
			fatal(log, "Failed to load prepayment table", err)
		}
		lookup, err := risk.NewLookupFromTables(costTable, prepayTable, log)
		if err != nil {
			fatal(log, "Failed to build risk lookup", err)
		}
		pcfg.RiskLookup = lookup
	}

	report.SummarizePortfolio(loans).Log(log)

	engine := pipeline.NewEngine(pcfg, store, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	res, err := engine.Run(ctx, in)
	if err != nil {
		fatal(log, "Pricing run failed", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fatal(log, "Failed to create output directory", err)
	}
	if err := writeJSON(filepath.Join(cfg.OutputDir, enrichedFile), report.BuildOutput(res)); err != nil {
		fatal(log, "Failed to write enriched output", err)
	}
	if err := writeJSON(filepath.Join(cfg.OutputDir, runReportFile), report.BuildRunReport(res)); err != nil {
		fatal(log, "Failed to write run report", err)
	}
	if cfg.WriteProblematicReport {
		if err := writeJSON(filepath.Join(cfg.OutputDir, problematicFile), report.BuildProblematicReport(res)); err != nil {
			fatal(log, "Failed to write problematic report", err)
		}
	}

	enriched := res.EnrichedLoans()
	failed := res.FailedBuckets()
	fmt.Printf("Priced %d of %d loans (%d problematic) in %.1fs\n",
		len(enriched), res.Summary.TotalLoans, res.Summary.Problematic,
		res.FinishedAt.Sub(res.StartedAt).Seconds())
	fmt.Printf("Output written to %s\n", cfg.OutputDir)

	// Partial failure still writes every output, but schedulers need to see
	// it in the exit code.
	if len(failed) > 0 {
		for _, b := range failed {
			fmt.Fprintf(os.Stderr, "Bucket %s failed: %v\n", b.Bucket, b.Err)
		}
		os.Exit(1)
	}
}

func setFlagEnv(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
