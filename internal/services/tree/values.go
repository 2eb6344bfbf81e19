package tree

import (
	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

type groupKey struct {
	plan     string
	subGroup string
	date     string
}

func keyOf(row *models.TreeRow) groupKey {
	return groupKey{plan: row.Root.PlanID, subGroup: row.SubGroupID, date: row.Root.Date}
}

// AccumulateValues computes, per row: the stake product over the whole
// chain, the proportional value, the composition share within the row's
// (plan, sub-group, date) group, and the return contributions. Rows are
// mutated in place and returned.
//
// Rows prorated upstream keep their composition but are excluded from group
// totals to avoid double counting. A group whose total invested is zero
// clamps composition to zero for every member.
func AccumulateValues(rows []models.TreeRow, logger *common.Logger) []models.TreeRow {
	for i := range rows {
		row := &rows[i]
		row.AccumStake = stakeProduct(row)
		row.Value = row.NativeValue() * row.AccumStake * row.ProrationFactor
	}

	totals := make(map[groupKey]float64)
	for i := range rows {
		row := &rows[i]
		if row.Root.Prorated {
			continue
		}
		totals[keyOf(row)] += row.Value
	}

	zeroLogged := make(map[groupKey]bool)
	for i := range rows {
		row := &rows[i]
		key := keyOf(row)
		total := totals[key]
		row.TotalInvested = total

		if total == 0 {
			row.Composition = 0
			if !zeroLogged[key] {
				zeroLogged[key] = true
				logger.Debug().
					Str("plan", key.plan).
					Str("sub_group", key.subGroup).
					Str("date", key.date).
					Msg("Zero total invested; composition clamped to zero")
			}
		} else {
			row.Composition = row.Value / total
		}

		native, ok := row.NativeReturn()
		if ok {
			row.NominalReturn = native
			row.HasNominal = true
		} else {
			native = 0
		}
		row.WeightedReturn = row.Composition * native * row.ProrationFactor
	}
	return rows
}

// stakeProduct multiplies the per-level stakes across the chain, root
// included. A missing stake is the neutral multiplier 1.
func stakeProduct(row *models.TreeRow) float64 {
	stake := 1.0
	if row.Root.HasStake {
		stake = row.Root.Stake
	}
	for i := range row.Levels {
		if row.Levels[i].HasStake {
			stake *= row.Levels[i].Stake
		}
	}
	return stake
}
