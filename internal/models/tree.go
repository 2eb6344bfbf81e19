package models

// Level is one resolved fund hop on a tree row. Index 0 is the fund named by
// the root position's fund reference; each later entry descends one hop.
type Level struct {
	FundID       string `json:"fund_id"`
	FundRef      string `json:"fund_ref,omitempty"` // next hop; empty when terminal
	InstrumentID string `json:"instrument_id,omitempty"`
	Type         string `json:"type,omitempty"`

	Value          float64 `json:"value"`
	Stake          float64 `json:"stake,omitempty"`
	HasStake       bool    `json:"has_stake,omitempty"`
	Composition    float64 `json:"composition,omitempty"`
	HasComposition bool    `json:"has_composition,omitempty"`
	Return         float64 `json:"return,omitempty"`
	HasReturn      bool    `json:"has_return,omitempty"`

	DisplayName  string `json:"display_name,omitempty"`
	ManagerName  string `json:"manager_name,omitempty"`
	ManagerClean string `json:"manager_clean,omitempty"`
	IssuerName   string `json:"issuer_name,omitempty"`
	ClassKind    string `json:"class_kind,omitempty"`
	ClassDesc    string `json:"class_desc,omitempty"`

	Governed bool `json:"governed,omitempty"`
}

// FinalAttrs are the display attributes of the deepest resolved holding,
// cascaded upward when deeper levels leave them blank.
type FinalAttrs struct {
	Type         string `json:"type,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	ManagerClean string `json:"manager_clean,omitempty"`
	IssuerName   string `json:"issuer_name,omitempty"`
	ClassKind    string `json:"class_kind,omitempty"`
	ClassDesc    string `json:"class_desc,omitempty"`
	InstrumentID string `json:"instrument_id,omitempty"`
}

// TreeRow is one root position widened with the fund levels resolved under
// it, plus the accumulated metrics computed over the whole chain.
type TreeRow struct {
	Root   Position `json:"root"`
	Levels []Level  `json:"levels,omitempty"`

	// Depth equals the number of fund hops actually resolved.
	Depth            int     `json:"depth"`
	AccumStake       float64 `json:"accumulated_stake"`
	AccumComposition float64 `json:"accumulated_composition"`
	InstrumentID     string  `json:"instrument_id,omitempty"` // deepest resolved instrument
	ParentName       string  `json:"parent_name,omitempty"`
	ParentManager    string  `json:"parent_manager,omitempty"`

	SubGroupID      string  `json:"sub_group_id,omitempty"`
	SubGroupName    string  `json:"sub_group_name,omitempty"`
	ProrationFactor float64 `json:"proration_factor"`

	Value          float64 `json:"value"`
	TotalInvested  float64 `json:"total_invested,omitempty"`
	Composition    float64 `json:"composition"`
	WeightedReturn float64 `json:"weighted_return"`
	NominalReturn  float64 `json:"nominal_return,omitempty"`
	HasNominal     bool    `json:"has_nominal,omitempty"`

	AdjustedWeightedReturn float64 `json:"adjusted_weighted_return,omitempty"`

	Governance GovernanceKey `json:"governance_key"`
	Carrier    bool          `json:"carrier,omitempty"`

	Final  FinalAttrs `json:"final"`
	Search string     `json:"search,omitempty"`

	// Adjustment marks synthetic plan-reconciliation rows.
	Adjustment bool `json:"adjustment,omitempty"`
}

// NewTreeRow seeds a tree row from a root position: depth 0, the root's own
// stake as the running product (absent → neutral 1), proration factor 1.
func NewTreeRow(p Position) TreeRow {
	row := TreeRow{
		Root:             p,
		Depth:            0,
		AccumStake:       1.0,
		AccumComposition: 1.0,
		InstrumentID:     p.InstrumentID,
		SubGroupID:       p.SubGroupID,
		SubGroupName:     p.SubGroupName,
		ProrationFactor:  1.0,
		Value:            p.Value,
	}
	if p.HasStake {
		row.AccumStake = p.Stake
	}
	return row
}

// CurrentRef returns the unresolved fund reference at the deepest point of
// the chain, or "" when the row is terminal.
func (r *TreeRow) CurrentRef() string {
	if len(r.Levels) == 0 {
		return r.Root.FundRef
	}
	return r.Levels[len(r.Levels)-1].FundRef
}

// NativeValue returns the holding value at the deepest resolved level.
func (r *TreeRow) NativeValue() float64 {
	if len(r.Levels) == 0 {
		return r.Root.Value
	}
	return r.Levels[len(r.Levels)-1].Value
}

// NativeReturn returns the deepest available period return on the chain,
// scanning deepest level first, then the root.
func (r *TreeRow) NativeReturn() (float64, bool) {
	for i := len(r.Levels) - 1; i >= 0; i-- {
		if r.Levels[i].HasReturn {
			return r.Levels[i].Return, true
		}
	}
	if r.Root.HasReturn {
		return r.Root.Return, true
	}
	return 0, false
}

// VehicleAt returns the fund id at level i, or "" past the resolved depth.
func (r *TreeRow) VehicleAt(i int) string {
	if i < 0 || i >= len(r.Levels) {
		return ""
	}
	return r.Levels[i].FundID
}

// DisplayNameAt returns the display name at level i, clamped to the deepest
// resolved level so partially expanded chains still name an ancestor.
func (r *TreeRow) DisplayNameAt(i int) string {
	if len(r.Levels) == 0 {
		return r.Root.DisplayName
	}
	if i >= len(r.Levels) {
		i = len(r.Levels) - 1
	}
	if i < 0 {
		i = 0
	}
	return r.Levels[i].DisplayName
}

// ZeroContribution clears the metric fields of a de-duplicated fan-out row,
// leaving identity and display fields intact.
func (r *TreeRow) ZeroContribution() {
	r.Value = 0
	r.Composition = 0
	r.WeightedReturn = 0
	r.NominalReturn = 0
	r.HasNominal = false
	r.AdjustedWeightedReturn = 0
}
