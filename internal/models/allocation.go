package models

// Default bucket for shared-portfolio rows with no sub-group mapping.
const (
	DefaultBucketID   = "1"
	DefaultBucketName = "BSPS"
)

// SubGroupShare maps one (date, plan, instrument) position onto one
// sub-group with its fractional share. A shared position appears once per
// participating sub-group and its shares sum to 1.
type SubGroupShare struct {
	Date         string  `json:"date"`
	PlanID       string  `json:"plan_id"`
	InstrumentID string  `json:"instrument_id"`
	SubGroupID   string  `json:"sub_group_id"`
	SubGroupName string  `json:"sub_group_name"`
	Share        float64 `json:"share"`
}
