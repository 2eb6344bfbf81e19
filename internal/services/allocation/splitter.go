// Package allocation prorates positions of shared portfolios across their
// reporting sub-groups.
package allocation

import (
	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

type shareKey struct {
	date       string
	plan       string
	instrument string
}

// Splitter explodes tree rows of shared portfolios into one row per mapped
// sub-group, each carrying its fractional share as the proration factor.
type Splitter struct {
	shares map[shareKey][]models.SubGroupShare
	shared map[string]bool
	logger *common.Logger
}

// NewSplitter indexes the sub-group mapping by (date, plan, instrument).
// sharedPortfolios lists the portfolio codes subject to proration; rows of
// any other portfolio pass through untouched.
func NewSplitter(shares []models.SubGroupShare, sharedPortfolios []string, logger *common.Logger) *Splitter {
	s := &Splitter{
		shares: make(map[shareKey][]models.SubGroupShare),
		shared: make(map[string]bool, len(sharedPortfolios)),
		logger: logger,
	}
	for _, sh := range shares {
		key := shareKey{date: sh.Date, plan: sh.PlanID, instrument: sh.InstrumentID}
		s.shares[key] = append(s.shares[key], sh)
	}
	for _, code := range sharedPortfolios {
		s.shared[code] = true
	}
	return s
}

// Split emits, for each row of a shared portfolio, one row per sub-group
// mapped to the row's instrument, with the sub-group's fractional share as
// ProrationFactor. The match scans the chain root first and stops at the
// shallowest level whose resolved instrument id has a mapping. Rows with no
// match anywhere fall into the default bucket with factor 1.
func (s *Splitter) Split(rows []models.TreeRow) []models.TreeRow {
	if len(s.shared) == 0 {
		return rows
	}

	out := make([]models.TreeRow, 0, len(rows))
	split, defaulted := 0, 0
	for i := range rows {
		row := &rows[i]
		if !s.shared[row.Root.PortfolioCode] {
			out = append(out, *row)
			continue
		}

		matches := s.match(row)
		if len(matches) == 0 {
			child := *row
			child.SubGroupID = models.DefaultBucketID
			child.SubGroupName = models.DefaultBucketName
			child.ProrationFactor = 1.0
			out = append(out, child)
			defaulted++
			continue
		}

		for _, m := range matches {
			child := *row
			child.SubGroupID = m.SubGroupID
			child.SubGroupName = m.SubGroupName
			child.ProrationFactor = m.Share
			out = append(out, child)
		}
		split++
	}

	s.logger.Debug().
		Int("rows", len(rows)).
		Int("split", split).
		Int("defaulted", defaulted).
		Msg("Sub-portfolio proration")
	return out
}

// match walks the chain shallow-to-deep and returns the mappings of the
// first instrument that has any.
func (s *Splitter) match(row *models.TreeRow) []models.SubGroupShare {
	key := shareKey{date: row.Root.Date, plan: row.Root.PlanID}

	key.instrument = row.Root.InstrumentID
	if key.instrument != "" {
		if m := s.shares[key]; len(m) > 0 {
			return m
		}
	}
	for i := range row.Levels {
		key.instrument = row.Levels[i].InstrumentID
		if key.instrument == "" {
			continue
		}
		if m := s.shares[key]; len(m) > 0 {
			return m
		}
	}
	return nil
}
