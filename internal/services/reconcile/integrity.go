package reconcile

import (
	"math"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// priceTolerance mirrors the eight-decimal precision of the persisted unit
// prices; differences smaller than half a unit in the last place agree.
const priceTolerance = 0.5e-8

// navTolerance allows for the rounding of individually reported holding
// values when summing them against a declared total.
const navTolerance = 0.01

// CheckPrices compares each fund-share position's reported unit price
// against the investee fund's own unit-price series at the same date.
// Divergent rows are reported, never fatal.
func CheckPrices(positions []models.Position, funds *models.FundTable, logger *common.Logger) []models.PriceDivergence {
	var findings []models.PriceDivergence
	for i := range positions {
		p := &positions[i]
		if p.FundRef == "" || p.UnitPrice == 0 || p.IsSeries() {
			continue
		}
		series, ok := funds.UnitPrice(p.FundRef, p.Date)
		if !ok {
			continue
		}
		if math.Abs(round8(p.UnitPrice)-round8(series)) <= priceTolerance {
			continue
		}
		findings = append(findings, models.PriceDivergence{
			PortfolioCode: p.PortfolioCode,
			FundID:        p.FundID,
			FundRef:       p.FundRef,
			Date:          p.Date,
			Reported:      p.UnitPrice,
			Series:        series,
		})
	}
	if len(findings) > 0 {
		logger.Warn().Int("rows", len(findings)).Msg("Unit price divergences found")
	}
	return findings
}

// CheckTotals sums each fund's holding values and compares the total
// against its declared net asset value. Divergent funds are reported,
// never fatal.
func CheckTotals(funds *models.FundTable, logger *common.Logger) []models.TotalDivergence {
	type fundDate struct {
		fund string
		date string
	}
	computed := make(map[fundDate]float64)
	var order []fundDate
	for i := range funds.Rows {
		r := &funds.Rows[i]
		if r.IsSeries() || r.FundID == "" {
			continue
		}
		key := fundDate{fund: r.FundID, date: r.Date}
		if _, ok := computed[key]; !ok {
			order = append(order, key)
		}
		computed[key] += r.Value
	}

	var findings []models.TotalDivergence
	for _, key := range order {
		declared, ok := funds.NAV(key.fund, key.date)
		if !ok {
			continue
		}
		total := computed[key]
		if math.Abs(total-declared) <= navTolerance {
			continue
		}
		findings = append(findings, models.TotalDivergence{
			FundID:   key.fund,
			Date:     key.date,
			Computed: total,
			Declared: declared,
		})
	}
	if len(findings) > 0 {
		logger.Warn().Int("funds", len(findings)).Msg("NAV total divergences found")
	}
	return findings
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
