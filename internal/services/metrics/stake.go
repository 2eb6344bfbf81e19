// Package metrics computes pre-tree position metrics: per-position equity
// stakes against investee fund NAVs and per-entity composition shares.
package metrics

import (
	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// Service computes position-level metrics before tree expansion.
type Service struct {
	logger *common.Logger
}

// NewService creates a metrics service.
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger}
}

// ComputeStakes sets, on every fund-share position, the fraction of the
// investee fund it represents: position value divided by the investee's
// declared net asset value at the same date. Positions whose investee has
// no NAV observation for the date stay unset; the expander treats a missing
// stake as the neutral multiplier.
func (s *Service) ComputeStakes(positions []models.Position, funds *models.FundTable) ([]models.Position, error) {
	if err := requireFundSeries("compute_stakes", funds); err != nil {
		return nil, err
	}

	matched, unmatched := 0, 0
	for i := range positions {
		p := &positions[i]
		if p.FundRef == "" || p.IsSeries() {
			continue
		}
		nav, ok := funds.NAV(p.FundRef, p.Date)
		if !ok || nav == 0 {
			unmatched++
			continue
		}
		p.Stake = p.Value / nav
		p.HasStake = true
		matched++
	}

	s.logger.Debug().
		Int("matched", matched).
		Int("unmatched", unmatched).
		Msg("Equity stakes computed")
	return positions, nil
}

func requireFundSeries(op string, funds *models.FundTable) error {
	if len(funds.Rows) == 0 {
		return nil
	}
	var missing []string
	hasID, hasDate := false, false
	for i := range funds.Rows {
		if funds.Rows[i].FundID != "" {
			hasID = true
		}
		if funds.Rows[i].Date != "" {
			hasDate = true
		}
		if hasID && hasDate {
			break
		}
	}
	if !hasID {
		missing = append(missing, "fund_id")
	}
	if !hasDate {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return models.NewContractError(op, missing...)
	}
	return nil
}
