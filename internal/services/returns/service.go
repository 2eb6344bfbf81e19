// Package returns maintains the instrument unit-price series and derives
// period returns from it: duplicate-price validation, merge of new
// observations over the persisted series, completion onto the reporting
// date grid, and assignment of returns back onto positions.
package returns

import (
	"math"
	"sort"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// returnDecimals bounds the precision of computed period returns so two
// runs over the same series agree bit-for-bit with the persisted figures.
const returnDecimals = 1e8

// Store persists instrument unit-price observations between runs.
type Store interface {
	All() ([]models.InstrumentPrice, error)
	Upsert(prices []models.InstrumentPrice) error
}

// Service builds the return series on top of a price store.
type Service struct {
	store  Store
	logger *common.Logger
}

// NewService creates a returns service. The store may be nil, in which case
// the series is built from the current run's observations only.
func NewService(store Store, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ExtractPrices pulls the reported unit-price observations out of position
// rows: one observation per row carrying an instrument id and a price.
func ExtractPrices(positions []models.Position) []models.InstrumentPrice {
	var obs []models.InstrumentPrice
	for i := range positions {
		p := &positions[i]
		if p.InstrumentID == "" || p.UnitPrice == 0 {
			continue
		}
		obs = append(obs, models.InstrumentPrice{
			InstrumentID: p.InstrumentID,
			Date:         p.Date,
			Price:        p.UnitPrice,
		})
	}
	return obs
}

type priceKey struct {
	instrument string
	date       string
}

// ValidatePrices enforces one price per (instrument, date). Groups that
// report more than one distinct price are dropped entirely and returned as
// DuplicatePrice findings; agreeing repeats collapse to one observation.
func ValidatePrices(obs []models.InstrumentPrice) ([]models.InstrumentPrice, []models.DuplicatePrice) {
	grouped := make(map[priceKey][]float64)
	var order []priceKey
	for _, o := range obs {
		key := priceKey{instrument: o.InstrumentID, date: o.Date}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], o.Price)
	}

	var clean []models.InstrumentPrice
	var dups []models.DuplicatePrice
	for _, key := range order {
		prices := grouped[key]
		conflict := false
		for _, p := range prices[1:] {
			if p != prices[0] {
				conflict = true
				break
			}
		}
		if conflict {
			dups = append(dups, models.DuplicatePrice{
				InstrumentID: key.instrument,
				Date:         key.date,
				Prices:       prices,
			})
			continue
		}
		clean = append(clean, models.InstrumentPrice{
			InstrumentID: key.instrument,
			Date:         key.date,
			Price:        prices[0],
		})
	}
	return clean, dups
}

// BuildSeries merges the run's observations over the persisted series (new
// observations win per (instrument, date)), persists the merged set, and
// returns the completed grid with period returns: every instrument crossed
// with every reporting date, return = price change against the previous
// reporting date when both prices exist, rounded to eight decimals.
func (s *Service) BuildSeries(obs []models.InstrumentPrice) ([]models.InstrumentReturn, []models.DuplicatePrice, error) {
	clean, dups := ValidatePrices(obs)
	for _, d := range dups {
		s.logger.Warn().
			Str("instrument", d.InstrumentID).
			Str("date", d.Date).
			Floats64("prices", d.Prices).
			Msg("Conflicting unit prices dropped")
	}

	merged := make(map[priceKey]float64)
	if s.store != nil {
		stored, err := s.store.All()
		if err != nil {
			return nil, dups, err
		}
		for _, p := range stored {
			merged[priceKey{instrument: p.InstrumentID, date: p.Date}] = p.Price
		}
	}
	for _, p := range clean {
		merged[priceKey{instrument: p.InstrumentID, date: p.Date}] = p.Price
	}

	if s.store != nil {
		if err := s.store.Upsert(clean); err != nil {
			return nil, dups, err
		}
	}

	series := completeGrid(merged)
	s.logger.Debug().
		Int("observations", len(clean)).
		Int("grid_cells", len(series)).
		Msg("Return series built")
	return series, dups, nil
}

// completeGrid crosses sorted distinct instruments with sorted distinct
// reporting dates and computes per-instrument returns between consecutive
// grid dates.
func completeGrid(prices map[priceKey]float64) []models.InstrumentReturn {
	instSet := make(map[string]bool)
	dateSet := make(map[string]bool)
	for key := range prices {
		instSet[key.instrument] = true
		dateSet[key.date] = true
	}
	instruments := sortedKeys(instSet)
	dates := sortedKeys(dateSet)

	series := make([]models.InstrumentReturn, 0, len(instruments)*len(dates))
	for _, inst := range instruments {
		prevPrice, hasPrev := 0.0, false
		for _, date := range dates {
			cell := models.InstrumentReturn{InstrumentID: inst, Date: date}
			if price, ok := prices[priceKey{instrument: inst, date: date}]; ok {
				cell.Price = price
				cell.HasPrice = true
				if hasPrev && prevPrice != 0 {
					cell.Return = roundReturn(price/prevPrice - 1)
					cell.HasReturn = true
				}
				prevPrice, hasPrev = price, true
			} else {
				hasPrev = false
			}
			series = append(series, cell)
		}
	}
	return series
}

func roundReturn(r float64) float64 {
	return math.Round(r*returnDecimals) / returnDecimals
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssignReturns sets each position's period return from the series by
// (instrument id, date). Positions without a matching cell stay unset.
func AssignReturns(positions []models.Position, series []models.InstrumentReturn) []models.Position {
	byKey := make(map[priceKey]models.InstrumentReturn, len(series))
	for _, cell := range series {
		if cell.HasReturn {
			byKey[priceKey{instrument: cell.InstrumentID, date: cell.Date}] = cell
		}
	}
	for i := range positions {
		p := &positions[i]
		if p.InstrumentID == "" {
			continue
		}
		if cell, ok := byKey[priceKey{instrument: p.InstrumentID, date: p.Date}]; ok {
			p.Return = cell.Return
			p.HasReturn = true
		}
	}
	return positions
}
