// Command mrl-experiment measures the rank and decile errors of an MRL
// sketch against the exact answers over the same stream.
//
// Usage:
//
//	mrl-experiment -i uniform.txt -e 0.05 --times 1000 [--baselines] [--db runs.db]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/axiomhq/mrl/internal/config"
	"github.com/axiomhq/mrl/internal/harness"
	"github.com/axiomhq/mrl/internal/logging"
	"github.com/axiomhq/mrl/internal/source"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	fs := pflag.NewFlagSet("mrl-experiment", pflag.ExitOnError)
	config.RegisterSketchFlags(fs)
	config.RegisterExperimentFlags(fs)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "mrl-experiment:", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mrl-experiment:", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, os.Stdout, logger); err != nil {
		logger.Error("experiment failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.Logger) error {
	values, err := load(cfg, logger)
	if err != nil {
		return err
	}

	report, err := harness.Run(values, harness.Config{
		Epsilon:   cfg.Epsilon,
		Times:     cfg.Times,
		Seed:      cfg.Seed,
		Tag:       cfg.Tag,
		Baselines: cfg.Baselines,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Size: %d, epsilon: %v, k: %d, L: %d, retained: %d\n",
		report.N, report.Epsilon, report.K, report.Levels, report.Retained)
	fmt.Fprintf(out, "Mean rank error (%d samples): %v (stddev %v, p50 %v, p99 %v, max %v)\n",
		report.Times, report.MeanRankErr, report.StdDevErr, report.P50RankErr, report.P99RankErr, report.MaxRankErr)
	printDeciles(out, report)

	if cfg.RankLog != "" {
		if err := harness.AppendRankLog(cfg.RankLog, report); err != nil {
			return err
		}
	}
	path, err := harness.WriteQuantileErrors(cfg.QuantileDir, report)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Quantile errors stored at:", path)

	if cfg.DB != "" {
		rec, err := harness.OpenSQLite(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer rec.Close()
		id, err := rec.Record(ctx, report)
		if err != nil {
			return errors.Wrap(err, "record run")
		}
		logger.Info("run recorded", zap.String("db", cfg.DB), zap.Int64("id", id))
	}
	return nil
}

func load(cfg *config.Config, logger *zap.Logger) ([]int64, error) {
	if cfg.Generate != "" {
		return source.Generate(cfg.Generate, cfg.N, cfg.Seed)
	}
	logger.Info("file to insert", zap.String("path", cfg.InputPath))
	return source.ReadFile(cfg.InputPath, func(e *source.ParseError) {
		logger.Warn("skipping line", zap.Int("line", e.Line), zap.String("content", e.Content), zap.Error(e.Err))
	})
}

func printDeciles(out io.Writer, report *harness.Report) {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprint(tw, "quantile\tmrl")
	for _, b := range report.Baselines {
		fmt.Fprint(tw, "\t", b.Name)
	}
	fmt.Fprintln(tw)
	for i, d := range report.Deciles {
		fmt.Fprintf(tw, "%.1f\t%.5f", d.Q, d.Err)
		for _, b := range report.Baselines {
			fmt.Fprintf(tw, "\t%.5f", b.Deciles[i].Err)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
