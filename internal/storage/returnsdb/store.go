// Package returnsdb persists instrument unit-price observations between
// pipeline runs using BadgerHold, so the return series can look back past
// the dates present in the current run's input.
package returnsdb

import (
	"fmt"
	"os"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// Store is the BadgerHold-backed price series store.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the price store at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create returnsdb path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open returnsdb at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("ReturnsDB opened")
	return &Store{db: db, logger: logger}, nil
}

// keySep separates the composite key parts. A null byte cannot occur in
// instrument ids or ISO dates.
const keySep = "\x00"

func compositeKey(instrumentID, date string) string {
	return instrumentID + keySep + date
}

// Upsert writes each observation under its (instrument, date) key,
// replacing any stored price for the same key.
func (s *Store) Upsert(prices []models.InstrumentPrice) error {
	for _, p := range prices {
		ck := compositeKey(p.InstrumentID, p.Date)
		if err := s.db.Upsert(ck, &p); err != nil {
			return fmt.Errorf("failed to upsert price %s@%s: %w", p.InstrumentID, p.Date, err)
		}
	}
	s.logger.Debug().Int("prices", len(prices)).Msg("Price observations persisted")
	return nil
}

// All returns every stored observation, sorted by (instrument, date) so
// callers see a stable order.
func (s *Store) All() ([]models.InstrumentPrice, error) {
	var all []models.InstrumentPrice
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to load price series: %w", err)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].InstrumentID != all[j].InstrumentID {
			return all[i].InstrumentID < all[j].InstrumentID
		}
		return all[i].Date < all[j].Date
	})
	return all, nil
}

// Instrument returns the stored observations for one instrument, sorted by
// date.
func (s *Store) Instrument(instrumentID string) ([]models.InstrumentPrice, error) {
	var all []models.InstrumentPrice
	if err := s.db.Find(&all, badgerhold.Where("InstrumentID").Eq(instrumentID)); err != nil {
		return nil, fmt.Errorf("failed to load series for %s: %w", instrumentID, err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date < all[j].Date })
	return all, nil
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.db.Close()
}
