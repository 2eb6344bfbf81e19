package tree

import (
	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// Expander resolves fund reference chains one level per pass, joining the
// current frontier against the fund table on (fund ref, date).
type Expander struct {
	governed models.VehicleSet
	logger   *common.Logger
}

// NewExpander creates an expander. The governance set is consulted during
// expansion to flag candidate oversight vehicles on each level.
func NewExpander(governed models.VehicleSet, logger *common.Logger) *Expander {
	return &Expander{governed: governed, logger: logger}
}

// Seed builds the level-0 frontier from portfolio positions. Series rows
// never enter the tree.
func (e *Expander) Seed(positions []models.Position) ([]models.TreeRow, error) {
	if err := validatePositions("seed", positions); err != nil {
		return nil, err
	}
	rows := make([]models.TreeRow, 0, len(positions))
	for i := range positions {
		if positions[i].IsSeries() {
			continue
		}
		rows = append(rows, models.NewTreeRow(positions[i]))
	}
	return rows, nil
}

// Expand resolves every row's chain until no row carries an unresolved fund
// reference. A reference that finds no fund rows for its date is a dangling
// reference: the row simply stops expanding. Termination is bounded by the
// distinct fund count, which holds because the graph is validated acyclic.
func (e *Expander) Expand(frontier []models.TreeRow, funds *models.FundTable) ([]models.TreeRow, error) {
	if err := validateFundTable("expand", funds); err != nil {
		return nil, err
	}

	rows := frontier
	maxIter := funds.FundCount()
	for iter := 0; iter < maxIter; iter++ {
		next := make([]models.TreeRow, 0, len(rows))
		matched := 0
		dangling := 0

		for i := range rows {
			row := &rows[i]
			ref := row.CurrentRef()
			if ref == "" {
				next = append(next, *row)
				continue
			}

			comp := funds.CompositionOf(ref, row.Root.Date)
			if len(comp) == 0 {
				dangling++
				next = append(next, *row)
				continue
			}

			matched++
			for _, holding := range comp {
				next = append(next, descend(row, holding, e.governed))
			}
		}

		rows = next
		e.logger.Debug().
			Int("iteration", iter+1).
			Int("rows", len(rows)).
			Int("matched", matched).
			Int("dangling", dangling).
			Msg("Expansion pass")

		if matched == 0 {
			break
		}
	}
	return rows, nil
}

// descend fans a frontier row out onto one holding of the fund it
// references, appending a level and updating the running products.
func descend(row *models.TreeRow, holding *models.Position, governed models.VehicleSet) models.TreeRow {
	child := *row
	levels := make([]models.Level, len(row.Levels), len(row.Levels)+1)
	copy(levels, row.Levels)

	lvl := models.Level{
		FundID:         holding.FundID,
		FundRef:        holding.FundRef,
		InstrumentID:   holding.InstrumentID,
		Type:           holding.Type,
		Value:          holding.Value,
		Stake:          holding.Stake,
		HasStake:       holding.HasStake,
		Composition:    holding.Composition,
		HasComposition: holding.HasComposition,
		Return:         holding.Return,
		HasReturn:      holding.HasReturn,
		DisplayName:    holding.DisplayName,
		ManagerName:    holding.ManagerName,
		ManagerClean:   holding.ManagerClean,
		IssuerName:     holding.IssuerName,
		ClassKind:      holding.ClassKind,
		ClassDesc:      holding.ClassDesc,
		Governed:       governed.Contains(holding.FundID),
	}
	child.Levels = append(levels, lvl)
	child.Depth = len(child.Levels)

	stake := 1.0
	if holding.HasStake {
		stake = holding.Stake
	}
	child.AccumStake = row.AccumStake * stake

	composition := 1.0
	if holding.HasComposition {
		composition = holding.Composition
	}
	child.AccumComposition = row.AccumComposition * composition

	child.Value = holding.Value * child.AccumStake

	if holding.InstrumentID != "" {
		child.InstrumentID = holding.InstrumentID
	}
	child.ParentName, child.ParentManager = parentDisplay(row)

	return child
}

// parentDisplay returns the display identity of the fund the frontier row
// currently points into: the deepest resolved holding names the fund it is
// a share of.
func parentDisplay(row *models.TreeRow) (name, manager string) {
	if len(row.Levels) == 0 {
		return row.Root.DisplayName, row.Root.ManagerName
	}
	last := row.Levels[len(row.Levels)-1]
	return last.DisplayName, last.ManagerName
}

// validatePositions enforces the table contract: a column empty on every
// row of a non-empty table is missing. Individually empty values are data
// quality, handled downstream.
func validatePositions(op string, positions []models.Position) error {
	if len(positions) == 0 {
		return nil
	}
	required := []struct {
		name    string
		present func(*models.Position) bool
	}{
		{"date", func(p *models.Position) bool { return p.Date != "" }},
		{"portfolio_code", func(p *models.Position) bool { return p.PortfolioCode != "" }},
	}
	var missing []string
	for _, col := range required {
		found := false
		for i := range positions {
			if col.present(&positions[i]) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col.name)
		}
	}
	if len(missing) > 0 {
		return models.NewContractError(op, missing...)
	}
	return nil
}

func validateFundTable(op string, funds *models.FundTable) error {
	if len(funds.Rows) == 0 {
		return nil
	}
	var missing []string
	for _, col := range []struct {
		name    string
		present func(*models.Position) bool
	}{
		{"fund_id", func(p *models.Position) bool { return p.FundID != "" }},
		{"date", func(p *models.Position) bool { return p.Date != "" }},
	} {
		found := false
		for i := range funds.Rows {
			if col.present(&funds.Rows[i]) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col.name)
		}
	}
	if len(missing) > 0 {
		return models.NewContractError(op, missing...)
	}
	return nil
}
