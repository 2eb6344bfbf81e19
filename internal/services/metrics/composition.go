package metrics

import (
	"github.com/fundops/lookthrough/internal/models"
)

type entityKey struct {
	ownerDoc  string
	portfolio string
	ownerName string
	plan      string
	fund      string
	date      string
}

func keyOf(p *models.Position) entityKey {
	if p.FundID != "" {
		return entityKey{fund: p.FundID, date: p.Date}
	}
	return entityKey{
		ownerDoc:  p.OwnerDoc,
		portfolio: p.PortfolioCode,
		ownerName: p.OwnerName,
		plan:      p.PlanID,
		date:      p.Date,
	}
}

// ComputeComposition sets each holding's fractional share of its owning
// entity's total: fund rows group by (fund id, date), portfolio rows by the
// full investor identity plus date. Holding types on the exclusion list and
// zero-value rows stay out of the totals and get no composition themselves.
func (s *Service) ComputeComposition(positions []models.Position, excludeTypes []string) []models.Position {
	excluded := make(map[string]bool, len(excludeTypes))
	for _, t := range excludeTypes {
		excluded[t] = true
	}
	include := func(p *models.Position) bool {
		return !p.IsSeries() && !excluded[p.Type] && p.Value != 0
	}

	totals := make(map[entityKey]float64)
	for i := range positions {
		p := &positions[i]
		if include(p) {
			totals[keyOf(p)] += p.Value
		}
	}

	for i := range positions {
		p := &positions[i]
		if !include(p) {
			continue
		}
		total := totals[keyOf(p)]
		if total == 0 {
			continue
		}
		p.Composition = p.Value / total
		p.HasComposition = true
	}

	s.logger.Debug().
		Int("groups", len(totals)).
		Msg("Entity composition computed")
	return positions
}
