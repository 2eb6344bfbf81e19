// Package governance assigns each tree row the oversight vehicle it reports
// under and elects one contribution carrier per reporting group.
package governance

import (
	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// Resolver tags tree rows with governance keys.
type Resolver struct {
	governed models.VehicleSet
	logger   *common.Logger
}

// NewResolver creates a resolver over the supplied governed-vehicle set.
func NewResolver(governed models.VehicleSet, logger *common.Logger) *Resolver {
	return &Resolver{governed: governed, logger: logger}
}

type carrierKey struct {
	portfolio string
	subGroup  string
	date      string
	plan      string
	vehicle   string
}

// AssignKeys resolves every row's governance key in place and returns the
// rows. Three passes over levels 0..maxDepth:
//
//  1. Shallow-to-deep scan: the first governed fund on a row's chain becomes
//     its vehicle key, even when deeper levels are governed too.
//  2. Carrier election: within each (portfolio, sub-group, date, plan,
//     vehicle) group only the first row keeps its contribution; later rows
//     from fan-out are zeroed so group totals count the vehicle once.
//  3. Fallback: unmatched rows whose own portfolio code is governed carry
//     under it directly; everything else falls into #OUTROS, always a
//     carrier since portfolio is already the finest granularity.
//
// Rows with no fund position at all (empty root fund reference) never
// receive a key; that is an expected case, not an error. Input order is
// preserved so "first row" is deterministic across reruns.
func (r *Resolver) AssignKeys(rows []models.TreeRow, maxDepth int) []models.TreeRow {
	for i := range rows {
		row := &rows[i]
		if row.Root.FundRef == "" {
			continue
		}
		for lvl := 0; lvl <= maxDepth; lvl++ {
			id := row.VehicleAt(lvl)
			if id != "" && r.governed.Contains(id) {
				row.Governance = models.VehicleKey(id)
				break
			}
		}
	}

	seen := make(map[carrierKey]bool)
	matched, fallback, uncategorized := 0, 0, 0
	for i := range rows {
		row := &rows[i]
		if row.Root.FundRef == "" {
			continue
		}

		if row.Governance.IsZero() {
			if r.governed.Contains(row.Root.PortfolioCode) {
				row.Governance = models.PortfolioKey(row.Root.PortfolioCode)
				fallback++
			} else {
				row.Governance = models.UncategorizedKey()
				uncategorized++
			}
			row.Carrier = true
			continue
		}

		matched++
		key := carrierKey{
			portfolio: row.Root.PortfolioCode,
			subGroup:  row.SubGroupID,
			date:      row.Root.Date,
			plan:      row.Root.PlanID,
			vehicle:   row.Governance.ID,
		}
		if seen[key] {
			row.Carrier = false
			row.ZeroContribution()
		} else {
			seen[key] = true
			row.Carrier = true
		}
	}

	r.logger.Debug().
		Int("rows", len(rows)).
		Int("vehicle", matched).
		Int("portfolio_fallback", fallback).
		Int("uncategorized", uncategorized).
		Msg("Governance keys assigned")
	return rows
}
