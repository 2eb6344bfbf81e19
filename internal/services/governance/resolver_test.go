package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

func chainRow(levels ...string) models.TreeRow {
	row := models.NewTreeRow(models.Position{
		PortfolioCode: "P1", PlanID: "PL", Date: "2024-03-31",
		Type: "fund", FundRef: levels[0], Value: 1000,
	})
	for _, id := range levels {
		row.Levels = append(row.Levels, models.Level{FundID: id, Value: 100})
	}
	row.Depth = len(row.Levels)
	row.Composition = 0.25
	row.WeightedReturn = 0.01
	return row
}

func TestAssignKeys_ShallowestGovernedVehicleWins(t *testing.T) {
	// Portfolio → FundA (ungoverned) → FundB (governed) → FundC (governed):
	// the key names FundB, not FundC.
	governed := models.NewVehicleSet([]string{"FB", "FC"})
	r := NewResolver(governed, common.NewSilentLogger())

	rows := r.AssignKeys([]models.TreeRow{chainRow("FA", "FB", "FC")}, 3)

	require.Len(t, rows, 1)
	assert.Equal(t, models.GovernanceVehicle, rows[0].Governance.Kind)
	assert.Equal(t, "FB", rows[0].Governance.ID)
	assert.True(t, rows[0].Carrier)
}

func TestAssignKeys_OneCarrierPerGroup(t *testing.T) {
	// Fan-out produces several rows crossing the same governed vehicle; only
	// the first carries a contribution.
	governed := models.NewVehicleSet([]string{"FB"})
	r := NewResolver(governed, common.NewSilentLogger())

	rows := r.AssignKeys([]models.TreeRow{
		chainRow("FA", "FB"),
		chainRow("FA", "FB", "FC"),
		chainRow("FB"),
	}, 3)

	carriers := 0
	for i := range rows {
		assert.Equal(t, "FB", rows[i].Governance.ID)
		if rows[i].Carrier {
			carriers++
			assert.NotZero(t, rows[i].Composition)
		} else {
			assert.Zero(t, rows[i].Composition)
			assert.Zero(t, rows[i].WeightedReturn)
			assert.Zero(t, rows[i].Value)
		}
	}
	assert.Equal(t, 1, carriers)
}

func TestAssignKeys_SeparateGroupsKeepSeparateCarriers(t *testing.T) {
	governed := models.NewVehicleSet([]string{"FB"})
	r := NewResolver(governed, common.NewSilentLogger())

	other := chainRow("FA", "FB")
	other.Root.PlanID = "PL2"

	rows := r.AssignKeys([]models.TreeRow{chainRow("FA", "FB"), other}, 3)
	assert.True(t, rows[0].Carrier)
	assert.True(t, rows[1].Carrier)
}

func TestAssignKeys_PortfolioFallback(t *testing.T) {
	governed := models.NewVehicleSet([]string{"P1"})
	r := NewResolver(governed, common.NewSilentLogger())

	rows := r.AssignKeys([]models.TreeRow{chainRow("FA")}, 3)

	assert.Equal(t, models.GovernancePortfolio, rows[0].Governance.Kind)
	assert.Equal(t, "P1", rows[0].Governance.ID)
	assert.Equal(t, "P1", rows[0].Governance.Label())
	assert.True(t, rows[0].Carrier)
}

func TestAssignKeys_UncategorizedDefault(t *testing.T) {
	r := NewResolver(models.NewVehicleSet(nil), common.NewSilentLogger())

	rows := r.AssignKeys([]models.TreeRow{chainRow("FA", "FX")}, 3)

	assert.Equal(t, models.GovernanceUncategorized, rows[0].Governance.Kind)
	assert.Equal(t, models.UncategorizedLabel, rows[0].Governance.Label())
	assert.True(t, rows[0].Carrier)
	assert.NotZero(t, rows[0].Composition, "uncategorized rows keep their contribution")
}

func TestAssignKeys_NoFundPositionGetsNoKey(t *testing.T) {
	r := NewResolver(models.NewVehicleSet([]string{"FB"}), common.NewSilentLogger())

	direct := models.NewTreeRow(models.Position{
		PortfolioCode: "P1", PlanID: "PL", Date: "2024-03-31",
		Type: "equity", InstrumentID: "ISIN9", Value: 50,
	})
	rows := r.AssignKeys([]models.TreeRow{direct}, 3)

	assert.True(t, rows[0].Governance.IsZero())
	assert.False(t, rows[0].Carrier)
}

func TestAssignKeys_DeterministicAcrossReruns(t *testing.T) {
	governed := models.NewVehicleSet([]string{"FB"})
	in := []models.TreeRow{chainRow("FA", "FB"), chainRow("FB"), chainRow("FA", "FB", "FC")}

	first := NewResolver(governed, common.NewSilentLogger()).AssignKeys(append([]models.TreeRow{}, in...), 3)
	second := NewResolver(governed, common.NewSilentLogger()).AssignKeys(append([]models.TreeRow{}, in...), 3)

	require.Equal(t, first, second)
	assert.True(t, first[0].Carrier)
	assert.False(t, first[1].Carrier)
	assert.False(t, first[2].Carrier)
}
