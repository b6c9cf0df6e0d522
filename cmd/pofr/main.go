// Command pofr inverts small-angle scattering curves I(q) into pair
// distance distributions P(r).
//
// Usage:
//
//	pofr [-config pofr.yaml] [-plot dir] [-estimate] data.txt...
//
// Each data file holds q, I and σI columns. Without data files a synthetic
// sphere is inverted when the config has a synthetic block. POFR_*
// environment variables (also read from .env) override the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/internal/config"
	"github.com/katalvlaran/pofr/internal/dataset"
	"github.com/katalvlaran/pofr/invertor"
	"github.com/katalvlaran/pofr/synth"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pofr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to YAML config file (defaults when empty)")
	plotDir := fs.String("plot", "", "directory for P(r) and I(q) PNG plots")
	doEstimate := fs.Bool("estimate", false, "estimate alpha and the number of terms before solving")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*cfgPath)
	if err == nil {
		err = cfg.ApplyEnv(os.Getenv)
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "pofr: config: %v\n", err)
		return exitUsage
	}
	if *doEstimate {
		cfg.Estimate.Enabled = true
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	items, err := loadItems(cfg, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "pofr: %v\n", err)
		return exitUsage
	}

	opts := []invertor.Option{
		invertor.WithLogger(logger),
		invertor.WithEstimateOptions(cfg.EstimateOptions()...),
	}
	estErrs := make([]error, len(items))
	if cfg.Estimate.Enabled {
		for i := range items {
			if err := estimateItem(ctx, &items[i], opts); err != nil {
				if ctx.Err() != nil {
					fmt.Fprintf(stderr, "pofr: %v\n", ctx.Err())
					return exitFailed
				}
				estErrs[i] = err
			}
		}
	}

	results, err := invertor.RunBatch(ctx, items, cfg.BatchWorkers, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "pofr: %v\n", err)
		return exitFailed
	}

	mergeEstimateErrors(results, estErrs)

	code := exitOK
	for i, res := range results {
		fmt.Fprintln(stdout, renderResult(items[i], res))
		if res.Err != nil {
			code = exitFailed
			continue
		}
		if *plotDir != "" {
			if err := writePlots(*plotDir, items[i], res.Solution, cfg.Plot); err != nil {
				logger.Error("plot failed", "name", res.Name, "err", err)
				code = exitFailed
			}
		}
	}

	return code
}

// loadItems reads every data file, or builds the synthetic sphere when no
// file is given.
func loadItems(cfg *config.AppConfig, paths []string) ([]invertor.BatchItem, error) {
	base := cfg.Core()
	if len(paths) == 0 {
		s := cfg.Synthetic
		if s == nil {
			return nil, errors.New("no data files and no synthetic block in config")
		}
		sphere := synth.Sphere{Radius: s.Radius, I0: s.I0}
		q, err := synth.Grid(s.QMin, s.QMax, s.Points)
		if err != nil {
			return nil, err
		}
		m, err := synth.Measure(q, sphere.IqAll(q), s.RelErr, s.Seed)
		if err != nil {
			return nil, err
		}

		return []invertor.BatchItem{{Name: fmt.Sprintf("sphere-r%g", s.Radius), Measurement: withSlit(m, cfg), Config: base}}, nil
	}

	items := make([]invertor.BatchItem, 0, len(paths))
	for _, p := range paths {
		m, err := dataset.Load(p)
		if err != nil {
			return nil, err
		}
		items = append(items, invertor.BatchItem{Name: dataset.Name(p), Measurement: withSlit(m, cfg), Config: base})
	}

	return items, nil
}

func withSlit(m *core.Measurement, cfg *config.AppConfig) *core.Measurement {
	m.SlitHeight = cfg.Inversion.SlitHeight
	m.SlitWidth = cfg.Inversion.SlitWidth

	return m
}

// mergeEstimateErrors marks results[i] failed when the estimation of item
// i failed but its solve did not. Items are matched by position: names
// need not be unique.
func mergeEstimateErrors(results []invertor.BatchResult, estErrs []error) {
	for i := range results {
		if i < len(estErrs) && estErrs[i] != nil && results[i].Err == nil {
			results[i].Err = fmt.Errorf("estimate: %w", estErrs[i])
		}
	}
}

// estimateItem replaces the item's α and N with estimated values.
func estimateItem(ctx context.Context, item *invertor.BatchItem, opts []invertor.Option) error {
	inv := invertor.New(opts...)
	if err := inv.Configure(item.Measurement, item.Config); err != nil {
		return err
	}
	est, err := inv.EstimateParameters(ctx)
	if err != nil {
		return err
	}
	item.Config.Alpha = est.Alpha
	item.Config.NTerms = est.NTerms

	return nil
}
