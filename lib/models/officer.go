package models

// Officer represents an inspecting officer based on apar.officers joined with
// its employee record, role and interval tiers
type Officer struct {
	ID             int64  `json:"id"`               // Primary key from apar.officers.id
	EmployeeID     int64  `json:"employee_id"`      // Linked identity record
	Name           string `json:"name"`             // Employee name
	BadgeNumber    string `json:"badge_number"`     // Unique external badge identifier
	RoleID         int64  `json:"role_id"`          // Assigned role
	RoleName       string `json:"role_name"`        // Role name, drives the global-scope exception
	HomeLocationID *int64 `json:"home_location_id"` // Nullable home location
	OfficerIntervals
}

// Access modes reported to the mobile client
const (
	AccessModeOfflineOnline = "offline-online"
	AccessModeOnlineOnly    = "online-only"
)

// AccessScope is the set of locations an officer may view or inspect
type AccessScope struct {
	Badge         string  `json:"badge"`
	IsGlobalScope bool    `json:"is_global_scope"`
	LocationIDs   []int64 `json:"location_ids"`
}

// Empty reports whether the scope grants access to nothing
func (s AccessScope) Empty() bool {
	return !s.IsGlobalScope && len(s.LocationIDs) == 0
}

// Allows reports whether the scope covers the given location
func (s AccessScope) Allows(locationID int64) bool {
	if s.IsGlobalScope {
		return true
	}
	for _, id := range s.LocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}

// AccessModeResponse describes whether an officer may work offline
type AccessModeResponse struct {
	Badge          string  `json:"badge"`
	RoleName       string  `json:"role_name"`
	HomeLocationID *int64  `json:"home_location_id"`
	Mode           string  `json:"mode"`
	Reason         string  `json:"reason"`
	IntervalID     *int64  `json:"interval_id"`
	IntervalMonths *int    `json:"interval_months"`
	LocationIDs    []int64 `json:"location_ids"`
}
