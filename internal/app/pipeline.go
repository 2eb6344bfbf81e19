package app

import (
	"fmt"
	"time"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/ingest"
	"github.com/fundops/lookthrough/internal/models"
	"github.com/fundops/lookthrough/internal/services/allocation"
	"github.com/fundops/lookthrough/internal/services/governance"
	"github.com/fundops/lookthrough/internal/services/metrics"
	"github.com/fundops/lookthrough/internal/services/reconcile"
	"github.com/fundops/lookthrough/internal/services/returns"
	"github.com/fundops/lookthrough/internal/services/tree"
)

// Snapshotter receives per-stage intermediate snapshots for debugging.
type Snapshotter func(stage string, data interface{})

// Result is everything one pipeline run computes: the resolved tree with
// adjustment rows unioned in, the per-plan correction factors, and the
// data-quality reports gathered along the way.
type Result struct {
	Tree             []models.TreeRow          `json:"tree"`
	Factors          []models.AdjustmentFactor `json:"factors"`
	PriceDivergences []models.PriceDivergence  `json:"price_divergences,omitempty"`
	TotalDivergences []models.TotalDivergence  `json:"total_divergences,omitempty"`
	DuplicatePrices  []models.DuplicatePrice   `json:"duplicate_prices,omitempty"`
}

// Pipeline runs the core consolidation stages over in-memory tables. It is
// synchronous and single-threaded; the concurrent part of a run is the
// table loading that happens before it.
type Pipeline struct {
	config     *common.Config
	priceStore returns.Store
	snapshot   Snapshotter
	logger     *common.Logger
}

// NewPipeline creates a pipeline. priceStore and snapshot may be nil.
func NewPipeline(config *common.Config, priceStore returns.Store, snapshot Snapshotter, logger *common.Logger) *Pipeline {
	return &Pipeline{
		config:     config,
		priceStore: priceStore,
		snapshot:   snapshot,
		logger:     logger,
	}
}

// Execute runs every stage in dependency order. Perimeter failures (missing
// columns, an ownership cycle) abort the run; everything past that is
// recorded in the result, never thrown.
func (p *Pipeline) Execute(tables *ingest.Tables) (*Result, error) {
	result := &Result{}
	governed := models.NewVehicleSet(tables.Governance)
	funds := models.NewFundTable(tables.Funds)
	portfolios := tables.Portfolios

	// Integrity checks: report-only comparisons of figures expected to agree.
	p.stage("integrity", func() error {
		result.PriceDivergences = reconcile.CheckPrices(portfolios, funds, p.logger)
		result.TotalDivergences = reconcile.CheckTotals(funds, p.logger)
		return nil
	})

	// Position metrics: equity stakes against investee NAVs, then per-entity
	// composition. Fund rows are mutated in place, so the table's indexes
	// keep pointing at the enriched rows.
	metricsSvc := metrics.NewService(p.logger)
	err := p.stage("metrics", func() error {
		var err error
		if portfolios, err = metricsSvc.ComputeStakes(portfolios, funds); err != nil {
			return err
		}
		if _, err = metricsSvc.ComputeStakes(funds.Rows, funds); err != nil {
			return err
		}
		metricsSvc.ComputeComposition(portfolios, p.config.Metrics.ExcludeTypes)
		metricsSvc.ComputeComposition(funds.Rows, p.config.Metrics.ExcludeTypes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Acyclicity gate: expansion over a cycle would not terminate.
	if err := p.stage("acyclicity", func() error { return tree.ValidateAcyclic(funds) }); err != nil {
		return nil, err
	}

	// Return series: validate and merge unit prices, complete the grid,
	// assign period returns back onto every position row.
	returnsSvc := returns.NewService(p.priceStore, p.logger)
	err = p.stage("returns", func() error {
		obs := returns.ExtractPrices(portfolios)
		obs = append(obs, returns.ExtractPrices(funds.Rows)...)
		series, dups, err := returnsSvc.BuildSeries(obs)
		if err != nil {
			return err
		}
		result.DuplicatePrices = dups
		returns.AssignReturns(portfolios, series)
		returns.AssignReturns(funds.Rows, series)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Look-through expansion.
	expander := tree.NewExpander(governed, p.logger)
	var rows []models.TreeRow
	err = p.stage("expand", func() error {
		frontier, err := expander.Seed(portfolios)
		if err != nil {
			return err
		}
		rows, err = expander.Expand(frontier, funds)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.takeSnapshot("expanded", rows)

	// Sub-portfolio proration, then value accumulation over the factors.
	p.stage("split", func() error {
		splitter := allocation.NewSplitter(tables.SubGroups, p.config.Allocation.SharedPortfolios, p.logger)
		rows = splitter.Split(rows)
		return nil
	})
	p.stage("accumulate", func() error {
		rows = tree.AccumulateValues(rows, p.logger)
		return nil
	})
	p.takeSnapshot("accumulated", rows)

	// Governance keys and display attributes.
	p.stage("governance", func() error {
		resolver := governance.NewResolver(governed, p.logger)
		rows = resolver.AssignKeys(rows, maxDepth(rows))
		return nil
	})
	p.stage("text", func() error {
		rows = tree.EnrichText(rows)
		return nil
	})

	// Plan-return reconciliation: corrective rows unioned into the output.
	adjuster := reconcile.NewAdjuster(p.config.Reconcile.Organization, p.logger)
	err = p.stage("adjust", func() error {
		adjustments, factors, err := adjuster.ComputeAdjustment(rows, tables.Authoritative, tables.PlanAccounts)
		if err != nil {
			return err
		}
		rows = reconcile.ApplyFactors(rows, factors)
		rows = append(rows, adjustments...)
		result.Factors = factors
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Tree = rows
	return result, nil
}

// stage runs one pipeline step with timing logs.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		p.logger.Error().Str("stage", name).Err(err).Msg("Stage failed")
		return fmt.Errorf("stage %s: %w", name, err)
	}
	p.logger.Info().Str("stage", name).Dur("elapsed", time.Since(start)).Msg("Stage completed")
	return nil
}

func (p *Pipeline) takeSnapshot(stage string, data interface{}) {
	if p.snapshot != nil {
		p.snapshot(stage, data)
	}
}

func maxDepth(rows []models.TreeRow) int {
	depth := 0
	for i := range rows {
		if rows[i].Depth > depth {
			depth = rows[i].Depth
		}
	}
	return depth
}
