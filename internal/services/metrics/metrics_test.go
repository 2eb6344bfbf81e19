package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

func TestComputeStakes_ValueOverNAV(t *testing.T) {
	funds := models.NewFundTable([]models.Position{
		{FundID: "FA", Date: "2024-03-31", Type: models.TypeNAVSeries, SeriesValue: 10000},
	})
	positions := []models.Position{
		{PortfolioCode: "P1", Date: "2024-03-31", Type: "fund", FundRef: "FA", Value: 2500},
	}

	s := NewService(common.NewSilentLogger())
	out, err := s.ComputeStakes(positions, funds)
	require.NoError(t, err)

	assert.True(t, out[0].HasStake)
	assert.InDelta(t, 0.25, out[0].Stake, 1e-12)
}

func TestComputeStakes_NoNAVStaysUnset(t *testing.T) {
	funds := models.NewFundTable([]models.Position{
		{FundID: "FA", Date: "2024-03-31", Type: models.TypeNAVSeries, SeriesValue: 10000},
	})
	positions := []models.Position{
		{PortfolioCode: "P1", Date: "2024-06-30", Type: "fund", FundRef: "FA", Value: 2500},
		{PortfolioCode: "P1", Date: "2024-03-31", Type: "equity", InstrumentID: "ISIN1", Value: 100},
	}

	s := NewService(common.NewSilentLogger())
	out, err := s.ComputeStakes(positions, funds)
	require.NoError(t, err)

	assert.False(t, out[0].HasStake, "different date finds no NAV")
	assert.False(t, out[1].HasStake, "non-fund holding gets no stake")
}

func TestComputeStakes_MissingColumnsFatal(t *testing.T) {
	funds := models.NewFundTable([]models.Position{{Type: models.TypeNAVSeries, SeriesValue: 1}})

	s := NewService(common.NewSilentLogger())
	_, err := s.ComputeStakes(nil, funds)
	require.Error(t, err)

	var cerr *models.ContractError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "compute_stakes", cerr.Op)
	assert.Contains(t, cerr.Missing, "fund_id")
	assert.Contains(t, cerr.Missing, "date")
}

func TestComputeComposition_FundGroups(t *testing.T) {
	positions := []models.Position{
		{FundID: "FA", Date: "2024-03-31", Type: "equity", Value: 600},
		{FundID: "FA", Date: "2024-03-31", Type: "bond", Value: 400},
		{FundID: "FB", Date: "2024-03-31", Type: "equity", Value: 50},
	}

	s := NewService(common.NewSilentLogger())
	out := s.ComputeComposition(positions, nil)

	assert.InDelta(t, 0.6, out[0].Composition, 1e-12)
	assert.InDelta(t, 0.4, out[1].Composition, 1e-12)
	assert.InDelta(t, 1.0, out[2].Composition, 1e-12, "FB groups separately")
}

func TestComputeComposition_ExclusionsStayOutOfTotals(t *testing.T) {
	positions := []models.Position{
		{PortfolioCode: "P1", PlanID: "PL", Date: "2024-03-31", Type: "equity", Value: 900},
		{PortfolioCode: "P1", PlanID: "PL", Date: "2024-03-31", Type: "expense", Value: 100},
		{PortfolioCode: "P1", PlanID: "PL", Date: "2024-03-31", Type: "equity", Value: 0},
	}

	s := NewService(common.NewSilentLogger())
	out := s.ComputeComposition(positions, []string{"expense"})

	assert.InDelta(t, 1.0, out[0].Composition, 1e-12, "excluded rows do not dilute the total")
	assert.False(t, out[1].HasComposition)
	assert.False(t, out[2].HasComposition, "zero-value rows get no composition")
}

func TestComputeComposition_SeriesRowsIgnored(t *testing.T) {
	positions := []models.Position{
		{FundID: "FA", Date: "2024-03-31", Type: models.TypeNAVSeries, SeriesValue: 1000},
		{FundID: "FA", Date: "2024-03-31", Type: "equity", Value: 250},
	}

	s := NewService(common.NewSilentLogger())
	out := s.ComputeComposition(positions, nil)

	assert.False(t, out[0].HasComposition)
	assert.InDelta(t, 1.0, out[1].Composition, 1e-12)
}
