package models

// AdjustmentMarker is stamped into the key and categorical fields of
// synthetic plan-reconciliation rows.
const AdjustmentMarker = "#AJUSTE"

// AuthoritativeReturn is one account observation from the trusted external
// return series.
type AuthoritativeReturn struct {
	AccountCode   string  `json:"account_code"`
	Date          string  `json:"date"`
	Return        float64 `json:"return"`
	NetAssetValue float64 `json:"net_asset_value"`
}

// PlanAccount maps an external account code to a plan.
type PlanAccount struct {
	AccountCode string `json:"account_code"`
	PlanID      string `json:"plan_id"`
}

// AdjustmentFactor records the reconciliation outcome per (plan, date):
// the tree-aggregated weighted return, the authoritative figure, their
// difference, and the multiplicative correction.
type AdjustmentFactor struct {
	PlanID              string  `json:"plan_id"`
	Date                string  `json:"date"`
	TreeReturn          float64 `json:"tree_return"`
	AuthoritativeReturn float64 `json:"authoritative_return"`
	Delta               float64 `json:"delta"`
	Factor              float64 `json:"factor"`
}

// PriceDivergence reports a fund-share row whose reported unit price differs
// from the investee fund's own unit-price series. Report only, never fatal.
type PriceDivergence struct {
	PortfolioCode string  `json:"portfolio_code,omitempty"`
	FundID        string  `json:"fund_id,omitempty"`
	FundRef       string  `json:"fund_ref"`
	Date          string  `json:"date"`
	Reported      float64 `json:"reported"`
	Series        float64 `json:"series"`
}

// TotalDivergence reports a fund whose summed holding values differ from its
// declared net asset value. Report only, never fatal.
type TotalDivergence struct {
	FundID   string  `json:"fund_id"`
	Date     string  `json:"date"`
	Computed float64 `json:"computed"`
	Declared float64 `json:"declared"`
}

// DuplicatePrice reports conflicting unit prices observed for one
// (instrument, date). The conflicting observations are dropped.
type DuplicatePrice struct {
	InstrumentID string    `json:"instrument_id"`
	Date         string    `json:"date"`
	Prices       []float64 `json:"prices"`
}

// InstrumentPrice is one persisted unit-price observation.
type InstrumentPrice struct {
	InstrumentID string  `json:"instrument_id"`
	Date         string  `json:"date"`
	Price        float64 `json:"price"`
}

// InstrumentReturn is one grid cell of the completed return series: the
// price carried for (instrument, date) and the period return against the
// previous reporting date.
type InstrumentReturn struct {
	InstrumentID string  `json:"instrument_id"`
	Date         string  `json:"date"`
	Price        float64 `json:"price,omitempty"`
	HasPrice     bool    `json:"has_price,omitempty"`
	Return       float64 `json:"return,omitempty"`
	HasReturn    bool    `json:"has_return,omitempty"`
}
