package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/churnscope/churnscope/constants"
	"github.com/churnscope/churnscope/internal/artifacts"
	"github.com/churnscope/churnscope/internal/common"
	"github.com/churnscope/churnscope/internal/export"
	"github.com/churnscope/churnscope/internal/ingest"
	"github.com/churnscope/churnscope/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		input     = flag.String("input", "", "customer table to score, .csv or .xlsx (required)")
		outDir    = flag.String("out-dir", "out", "directory for exported files")
		snapshots = flag.Bool("snapshots", false, "also export every intermediate table as CSV")
		xlsx      = flag.Bool("xlsx", false, "also export the scored table as XLSX")
		byTier    = flag.Bool("by-tier", false, "also export one CSV per risk tier")
		topN      = flag.Int("top-n", 10, "customers listed in the risk report")
	)
	flag.Parse()

	if *input == "" {
		printError("Error: --input is required\n")
		os.Exit(1)
	}

	// Optional .env with artifact paths and thresholds.
	_ = godotenv.Load()

	cfg := common.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := exportOptions{Snapshots: *snapshots, XLSX: *xlsx, ByTier: *byTier, TopN: *topN}
	if err := run(context.Background(), cfg, logger, *input, *outDir, opts); err != nil {
		logger.Error("churn-batch failed", "error", err)
		os.Exit(1)
	}
}

type exportOptions struct {
	Snapshots bool
	XLSX      bool
	ByTier    bool
	TopN      int
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger, input, outDir string, opts exportOptions) error {
	// Frozen artifacts load once, before any row is touched.
	bundle, err := artifacts.Load(cfg.Artifacts, logger)
	if err != nil {
		return err
	}

	raw, err := ingest.NewLoader(logger).LoadFile(input)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(bundle, cfg, logger)
	if err != nil {
		return err
	}
	res, err := runner.Run(ctx, raw)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	svc := export.NewService(logger)

	scored, _ := res.Snapshot(pipeline.SnapshotScored)
	csvBytes, err := svc.TableCSV(scored)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "scored.csv"), csvBytes, 0o644); err != nil {
		return err
	}

	if opts.XLSX {
		xlsxBytes, err := svc.TableXLSX(scored, "Scored")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, "scored.xlsx"), xlsxBytes, 0o644); err != nil {
			return err
		}
	}

	if opts.ByTier {
		for _, tier := range constants.RiskLevels() {
			sub := svc.ByRiskTier(scored, tier)
			if sub.NumRows() == 0 {
				continue
			}
			b, err := svc.TableCSV(sub)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("scored_%s.csv", strings.ToLower(string(tier)))
			if err := os.WriteFile(filepath.Join(outDir, name), b, 0o644); err != nil {
				return err
			}
		}
	}

	if opts.Snapshots {
		for _, snap := range res.Snapshots {
			b, err := svc.TableCSV(snap.Table)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("snapshot_%s.csv", snap.Name)
			if err := os.WriteFile(filepath.Join(outDir, name), b, 0o644); err != nil {
				return err
			}
		}
	}

	report, err := svc.RunReport(res, opts.TopN)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "report.txt"), []byte(report), 0o644); err != nil {
		return err
	}

	logger.Info("churn-batch.ok",
		"run_id", res.RunID.String(),
		"rows", res.Summary.TotalCustomers,
		"churn_predicted", res.Summary.ChurnPredicted,
		"out_dir", outDir,
	)
	return nil
}
