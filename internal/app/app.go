// Package app wires the pipeline together: configuration, logging, stores,
// and the staged run from input tables to written outputs.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/ingest"
	"github.com/fundops/lookthrough/internal/report"
	"github.com/fundops/lookthrough/internal/storage/returnsdb"
	"github.com/fundops/lookthrough/internal/storage/runfs"
)

// App holds the initialized configuration, logger, and stores for one
// pipeline invocation.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	RunStore    *runfs.Store
	ReturnsDB   *returnsdb.Store
	StartupTime time.Time
}

// NewApp loads configuration and opens the run and price stores.
// configPath may be empty, in which case LOOKTHROUGH_CONFIG and the default
// location are tried in order.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("LOOKTHROUGH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("config", "lookthrough.toml")
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	runStore, err := runfs.NewStore(logger, config.Paths.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	returnsDB, err := returnsdb.NewStore(logger, config.Paths.ReturnsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize returns db: %w", err)
	}

	return &App{
		Config:      config,
		Logger:      logger,
		RunStore:    runStore,
		ReturnsDB:   returnsDB,
		StartupTime: time.Now(),
	}, nil
}

// Run executes one full pipeline pass: concurrent table ingest, the core
// stages, and output writing. Fatal errors abort; data-quality findings are
// written as report files alongside the tree.
func (a *App) Run() error {
	start := time.Now()

	loader := ingest.NewLoader(a.Config.Pipeline.Workers, a.Logger)
	tables, err := loader.Load(a.Config.Paths.InputDir)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	var snapshot Snapshotter
	if a.Config.Pipeline.WriteIntermediate {
		snapshot = func(stage string, data interface{}) {
			if err := a.RunStore.WriteSnapshot(stage, data); err != nil {
				a.Logger.Warn().Str("stage", stage).Err(err).Msg("Snapshot write failed")
			}
		}
	}

	pipeline := NewPipeline(a.Config, a.ReturnsDB, snapshot, a.Logger)
	result, err := pipeline.Execute(tables)
	if err != nil {
		return err
	}

	if err := a.writeOutputs(result); err != nil {
		return err
	}
	if a.Config.Pipeline.RenderCharts {
		a.renderCharts(result)
	}

	a.Logger.Info().
		Str("run_id", a.RunStore.RunID()).
		Int("tree_rows", len(result.Tree)).
		Int("adjustments", len(result.Factors)).
		Dur("elapsed", time.Since(start)).
		Msg("Pipeline run completed")
	return nil
}

func (a *App) writeOutputs(result *Result) error {
	outputs := []struct {
		name string
		data interface{}
	}{
		{"tree", result.Tree},
		{"factors", result.Factors},
		{"price_divergences", result.PriceDivergences},
		{"total_divergences", result.TotalDivergences},
		{"duplicate_prices", result.DuplicatePrices},
	}
	for _, out := range outputs {
		if err := a.RunStore.WriteOutput(out.name, out.data); err != nil {
			return err
		}
	}
	return nil
}

// renderCharts draws one composition chart per (plan, date) seen in the
// tree. Chart failures never fail the run.
func (a *App) renderCharts(result *Result) {
	type planDate struct{ plan, date string }
	seen := make(map[planDate]bool)
	var keys []planDate
	for i := range result.Tree {
		row := &result.Tree[i]
		if row.Root.PlanID == "" || row.Adjustment {
			continue
		}
		key := planDate{plan: row.Root.PlanID, date: row.Root.Date}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		shares := report.CompositionByKey(result.Tree, key.plan, key.date)
		png, err := report.RenderCompositionChart(key.plan, key.date, shares)
		if err != nil {
			a.Logger.Warn().Str("plan", key.plan).Str("date", key.date).Err(err).Msg("Chart render failed")
			continue
		}
		name := fmt.Sprintf("%s_%s.png", key.plan, key.date)
		if err := a.RunStore.WriteRaw("charts", name, png); err != nil {
			a.Logger.Warn().Str("plan", key.plan).Err(err).Msg("Chart write failed")
		}
	}
}

// Close releases the app's stores.
func (a *App) Close() {
	if a.ReturnsDB != nil {
		if err := a.ReturnsDB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("ReturnsDB close failed")
		}
	}
}
