// Package reconcile compares internally computed figures against their
// authoritative counterparts: plan-return reconciliation with corrective
// adjustment rows, and report-only price and NAV integrity checks.
package reconcile

import (
	"math"
	"sort"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// nearZero bounds the adjustment-factor denominator: a tree return this
// close to zero yields a neutral factor and the delta row carries the
// whole correction.
const nearZero = 1e-12

// Adjuster reconciles tree-aggregated plan returns against the
// authoritative external series.
type Adjuster struct {
	orgLabel string
	logger   *common.Logger
}

// NewAdjuster creates an adjuster. orgLabel is stamped into the name
// columns of synthetic adjustment rows.
func NewAdjuster(orgLabel string, logger *common.Logger) *Adjuster {
	return &Adjuster{orgLabel: orgLabel, logger: logger}
}

type planDate struct {
	plan string
	date string
}

// ComputeAdjustment aggregates weighted return contributions by (plan,
// date), computes the NAV-weighted authoritative return per plan from the
// external account series, and emits one synthetic tree row per (plan,
// date) carrying the difference, so that unioned plan totals reconcile
// exactly. The returned factors let callers derive adjusted per-row
// returns. Adjustment rows and factors come out sorted by (plan, date).
func (a *Adjuster) ComputeAdjustment(
	rows []models.TreeRow,
	series []models.AuthoritativeReturn,
	mapping []models.PlanAccount,
) ([]models.TreeRow, []models.AdjustmentFactor, error) {
	if err := validateSeries("compute_adjustment", series, mapping); err != nil {
		return nil, nil, err
	}

	treeReturns := make(map[planDate]float64)
	for i := range rows {
		row := &rows[i]
		if row.Adjustment {
			continue
		}
		key := planDate{plan: row.Root.PlanID, date: row.Root.Date}
		treeReturns[key] += row.WeightedReturn
	}

	authoritative := authoritativeByPlan(series, mapping)

	keys := make([]planDate, 0, len(authoritative))
	for key := range authoritative {
		if _, ok := treeReturns[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].plan != keys[j].plan {
			return keys[i].plan < keys[j].plan
		}
		return keys[i].date < keys[j].date
	})

	var adjustments []models.TreeRow
	var factors []models.AdjustmentFactor
	for _, key := range keys {
		tree := treeReturns[key]
		auth := authoritative[key]
		delta := auth - tree

		factor := 1.0
		if math.Abs(tree) >= nearZero {
			factor = auth / tree
		}

		factors = append(factors, models.AdjustmentFactor{
			PlanID:              key.plan,
			Date:                key.date,
			TreeReturn:          tree,
			AuthoritativeReturn: auth,
			Delta:               delta,
			Factor:              factor,
		})
		adjustments = append(adjustments, a.adjustmentRow(key, delta))

		a.logger.Info().
			Str("plan", key.plan).
			Str("date", key.date).
			Float64("tree_return", tree).
			Float64("authoritative_return", auth).
			Float64("delta", delta).
			Msg("Plan return reconciled")
	}
	return adjustments, factors, nil
}

// adjustmentRow builds the synthetic row that closes the gap for one
// (plan, date): sentinel markers in the categorical columns, the
// organization label in the name columns, and the delta as its whole
// contribution.
func (a *Adjuster) adjustmentRow(key planDate, delta float64) models.TreeRow {
	row := models.NewTreeRow(models.Position{
		PortfolioCode: models.AdjustmentMarker,
		OwnerName:     a.orgLabel,
		PlanID:        key.plan,
		Date:          key.date,
		Type:          models.AdjustmentMarker,
		DisplayName:   a.orgLabel,
	})
	row.Governance = models.AdjustmentKey()
	row.Carrier = true
	row.Adjustment = true
	row.WeightedReturn = delta
	row.Final = models.FinalAttrs{
		Type:        models.AdjustmentMarker,
		DisplayName: a.orgLabel,
	}
	return row
}

// ApplyFactors writes each row's adjusted weighted return using its plan's
// correction factor. Rows of plans without a factor keep their raw figure.
func ApplyFactors(rows []models.TreeRow, factors []models.AdjustmentFactor) []models.TreeRow {
	byKey := make(map[planDate]float64, len(factors))
	for _, f := range factors {
		byKey[planDate{plan: f.PlanID, date: f.Date}] = f.Factor
	}
	for i := range rows {
		row := &rows[i]
		if row.Adjustment {
			continue
		}
		factor, ok := byKey[planDate{plan: row.Root.PlanID, date: row.Root.Date}]
		if !ok {
			factor = 1.0
		}
		row.AdjustedWeightedReturn = row.WeightedReturn * factor
	}
	return rows
}

// authoritativeByPlan maps each account observation onto its plan and
// value-weights its period return by the account's net-asset-value share
// within the (plan, date) group.
func authoritativeByPlan(series []models.AuthoritativeReturn, mapping []models.PlanAccount) map[planDate]float64 {
	planOf := make(map[string]string, len(mapping))
	for _, m := range mapping {
		planOf[m.AccountCode] = m.PlanID
	}

	navTotals := make(map[planDate]float64)
	for _, obs := range series {
		plan, ok := planOf[obs.AccountCode]
		if !ok {
			continue
		}
		navTotals[planDate{plan: plan, date: obs.Date}] += obs.NetAssetValue
	}

	result := make(map[planDate]float64)
	for _, obs := range series {
		plan, ok := planOf[obs.AccountCode]
		if !ok {
			continue
		}
		key := planDate{plan: plan, date: obs.Date}
		total := navTotals[key]
		if total == 0 {
			continue
		}
		result[key] += obs.Return * (obs.NetAssetValue / total)
	}
	return result
}

func validateSeries(op string, series []models.AuthoritativeReturn, mapping []models.PlanAccount) error {
	var missing []string
	if len(series) > 0 {
		hasAccount, hasDate := false, false
		for _, obs := range series {
			if obs.AccountCode != "" {
				hasAccount = true
			}
			if obs.Date != "" {
				hasDate = true
			}
		}
		if !hasAccount {
			missing = append(missing, "account_code")
		}
		if !hasDate {
			missing = append(missing, "date")
		}
	}
	if len(mapping) > 0 {
		hasPlan := false
		for _, m := range mapping {
			if m.PlanID != "" {
				hasPlan = true
				break
			}
		}
		if !hasPlan {
			missing = append(missing, "plan_id")
		}
	}
	if len(missing) > 0 {
		return models.NewContractError(op, missing...)
	}
	return nil
}
