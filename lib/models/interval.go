package models

// Interval is a named re-inspection cadence based on apar.intervals
type Interval struct {
	ID     int64  `json:"id"`     // Primary key from apar.intervals.id
	Name   string `json:"name"`   // Display name, e.g. "Bulanan"
	Months int    `json:"months"` // Cadence in calendar months, always > 0
}

// Interval sources recorded on every resolution and persisted with inspections
const (
	IntervalSourceOverride      = "override"
	IntervalSourceOfficer       = "officer"
	IntervalSourceRole          = "role"
	IntervalSourceEquipmentType = "equipment_type"
)

// OfficerIntervals carries the nullable interval tiers attached to one officer
type OfficerIntervals struct {
	OfficerIntervalID     *int64 `json:"officer_interval_id,omitempty"`
	OfficerIntervalMonths *int   `json:"officer_interval_months,omitempty"`
	RoleIntervalID        *int64 `json:"role_interval_id,omitempty"`
	RoleIntervalMonths    *int   `json:"role_interval_months,omitempty"`
}

// IntervalResolution is the effective interval for one equipment/officer pair
type IntervalResolution struct {
	IntervalID *int64 `json:"interval_id"` // nil when the equipment-type default applied
	Months     int    `json:"months"`
	Source     string `json:"source"`
}
