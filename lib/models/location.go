package models

import (
	"github.com/shopspring/decimal"
)

// Location represents a site where equipment is installed, based on apar.locations
type Location struct {
	ID           int64               `json:"id"`                       // Primary key from apar.locations.id
	Name         string              `json:"name"`                     // Display name of the location
	Latitude     decimal.NullDecimal `json:"latitude"`                 // Optional geocoordinate
	Longitude    decimal.NullDecimal `json:"longitude"`                // Optional geocoordinate
	PICOfficerID *int64              `json:"pic_officer_id,omitempty"` // Optional point-of-contact officer
	PICBadge     *string             `json:"pic_badge,omitempty"`      // Badge of the PIC, for display
}

// AssignPICRequest represents the request payload for setting a location's point of contact
type AssignPICRequest struct {
	OfficerID int64 `json:"officer_id" validate:"required,gt=0"`
}
