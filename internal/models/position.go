// Package models defines data structures for the look-through pipeline.
package models

// Series row types carried in the holdings tables. These are daily
// observations rather than holdings: a fund's declared net asset value, its
// outstanding share count, and an instrument's unit price.
const (
	TypeNAVSeries       = "nav"
	TypeUnitPriceSeries = "unit_price"
	TypeShareSeries     = "shares"
)

// Position is one holding of one owner at one valuation date.
// Fund-table rows identify their owner through FundID; portfolio rows
// through PortfolioCode plus the investor identity fields. FundRef is
// non-empty exactly when the holding is a share of another fund.
type Position struct {
	FundID        string `json:"fund_id,omitempty"`
	PortfolioCode string `json:"portfolio_code,omitempty"`
	OwnerDoc      string `json:"owner_doc,omitempty"`
	OwnerName     string `json:"owner_name,omitempty"`
	PlanID        string `json:"plan_id,omitempty"`
	SubGroupID    string `json:"sub_group_id,omitempty"`
	SubGroupName  string `json:"sub_group_name,omitempty"`

	Date         string `json:"date"`
	Type         string `json:"type"`
	InstrumentID string `json:"instrument_id,omitempty"`
	FundRef      string `json:"fund_ref,omitempty"`

	RawValue    float64 `json:"raw_value,omitempty"`
	Value       float64 `json:"value"`
	SeriesValue float64 `json:"series_value,omitempty"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`

	Stake          float64 `json:"stake,omitempty"`
	HasStake       bool    `json:"has_stake,omitempty"`
	Composition    float64 `json:"composition,omitempty"`
	HasComposition bool    `json:"has_composition,omitempty"`
	Return         float64 `json:"return,omitempty"`
	HasReturn      bool    `json:"has_return,omitempty"`

	// Prorated marks rows that arrived already split upstream. They keep
	// their composition but are excluded from group totals.
	Prorated bool `json:"prorated,omitempty"`

	DisplayName  string `json:"display_name,omitempty"`
	ManagerName  string `json:"manager_name,omitempty"`
	ManagerClean string `json:"manager_clean,omitempty"`
	IssuerName   string `json:"issuer_name,omitempty"`
	ClassKind    string `json:"class_kind,omitempty"`
	ClassDesc    string `json:"class_desc,omitempty"`
}

// IsSeries reports whether the row is a daily observation rather than a
// holding. Series rows never enter the expansion frontier.
func (p *Position) IsSeries() bool {
	switch p.Type {
	case TypeNAVSeries, TypeUnitPriceSeries, TypeShareSeries:
		return true
	}
	return false
}

// Edge is one investor→investee ownership pair from the fund table.
type Edge struct {
	Investor string `json:"investor"`
	Investee string `json:"investee"`
}

type fundDate struct {
	id   string
	date string
}

// FundTable holds the self-referential fund composition rows plus their
// series observations, indexed by (fund id, date) for expansion joins.
type FundTable struct {
	Rows []Position

	composition map[fundDate][]int
	nav         map[fundDate]float64
	unitPrice   map[fundDate]float64
}

// NewFundTable indexes fund rows by (fund id, date). Row order is preserved
// in every lookup so downstream "first match" rules stay deterministic.
func NewFundTable(rows []Position) *FundTable {
	t := &FundTable{
		Rows:        rows,
		composition: make(map[fundDate][]int),
		nav:         make(map[fundDate]float64),
		unitPrice:   make(map[fundDate]float64),
	}
	for i := range rows {
		r := &rows[i]
		key := fundDate{id: r.FundID, date: r.Date}
		switch r.Type {
		case TypeNAVSeries:
			t.nav[key] = r.SeriesValue
		case TypeUnitPriceSeries:
			t.unitPrice[key] = r.SeriesValue
		case TypeShareSeries:
			// tracked in Rows only; no lookup consumer
		default:
			t.composition[key] = append(t.composition[key], i)
		}
	}
	return t
}

// CompositionOf returns the holding rows of a fund at a date, in input order.
func (t *FundTable) CompositionOf(fundID, date string) []*Position {
	idx := t.composition[fundDate{id: fundID, date: date}]
	if len(idx) == 0 {
		return nil
	}
	rows := make([]*Position, len(idx))
	for i, j := range idx {
		rows[i] = &t.Rows[j]
	}
	return rows
}

// NAV returns the fund's declared net asset value at a date.
func (t *FundTable) NAV(fundID, date string) (float64, bool) {
	v, ok := t.nav[fundDate{id: fundID, date: date}]
	return v, ok
}

// UnitPrice returns the fund's declared unit price at a date.
func (t *FundTable) UnitPrice(fundID, date string) (float64, bool) {
	v, ok := t.unitPrice[fundDate{id: fundID, date: date}]
	return v, ok
}

// Edges returns the deduplicated investor→investee pairs, in first-seen
// order. Series rows and rows without a fund reference contribute nothing.
func (t *FundTable) Edges() []Edge {
	seen := make(map[Edge]bool)
	var edges []Edge
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsSeries() || r.FundID == "" || r.FundRef == "" {
			continue
		}
		e := Edge{Investor: r.FundID, Investee: r.FundRef}
		if !seen[e] {
			seen[e] = true
			edges = append(edges, e)
		}
	}
	return edges
}

// FundCount returns the number of distinct fund ids appearing as investor
// or investee. It bounds the expansion iteration count.
func (t *FundTable) FundCount() int {
	ids := make(map[string]bool)
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.FundID != "" {
			ids[r.FundID] = true
		}
		if !r.IsSeries() && r.FundRef != "" {
			ids[r.FundRef] = true
		}
	}
	return len(ids)
}
