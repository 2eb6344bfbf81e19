package models

// UncategorizedLabel is the catch-all governance key for rows whose chain
// never crosses a governed vehicle and whose portfolio is not governed.
const UncategorizedLabel = "#OUTROS"

// GovernanceKind discriminates how a row's governance key was resolved.
type GovernanceKind string

const (
	// GovernanceVehicle: a governed fund on the row's chain (shallowest wins).
	GovernanceVehicle GovernanceKind = "vehicle"
	// GovernancePortfolio: the row's own portfolio code is itself governed.
	GovernancePortfolio GovernanceKind = "portfolio"
	// GovernanceUncategorized: exhaustive default, reported as #OUTROS.
	GovernanceUncategorized GovernanceKind = "uncategorized"
	// GovernanceAdjustment: synthetic plan-reconciliation rows, reported
	// as #AJUSTE.
	GovernanceAdjustment GovernanceKind = "adjustment"
)

// GovernanceKey names the oversight vehicle a row reports under. The zero
// value means "not yet assigned"; resolution always replaces it.
type GovernanceKey struct {
	Kind GovernanceKind `json:"kind,omitempty"`
	ID   string         `json:"id,omitempty"`
}

// VehicleKey tags a row with a governed fund from its chain.
func VehicleKey(fundID string) GovernanceKey {
	return GovernanceKey{Kind: GovernanceVehicle, ID: fundID}
}

// PortfolioKey tags a row with its own governed portfolio code.
func PortfolioKey(code string) GovernanceKey {
	return GovernanceKey{Kind: GovernancePortfolio, ID: code}
}

// UncategorizedKey tags a row with the catch-all bucket.
func UncategorizedKey() GovernanceKey {
	return GovernanceKey{Kind: GovernanceUncategorized}
}

// AdjustmentKey tags a synthetic plan-reconciliation row.
func AdjustmentKey() GovernanceKey {
	return GovernanceKey{Kind: GovernanceAdjustment}
}

// IsZero reports whether no key has been assigned yet.
func (k GovernanceKey) IsZero() bool {
	return k.Kind == ""
}

// Label renders the reporting label: the vehicle or portfolio id, or the
// #OUTROS sentinel for uncategorized rows.
func (k GovernanceKey) Label() string {
	switch k.Kind {
	case GovernanceVehicle, GovernancePortfolio:
		return k.ID
	case GovernanceUncategorized:
		return UncategorizedLabel
	case GovernanceAdjustment:
		return AdjustmentMarker
	}
	return ""
}

// VehicleSet is the externally supplied set of governed fund ids.
// Membership test only; no ordering.
type VehicleSet map[string]struct{}

// NewVehicleSet builds a set from a flat id list.
func NewVehicleSet(ids []string) VehicleSet {
	s := make(VehicleSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Contains reports membership.
func (s VehicleSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
