package models

import (
	"time"
)

// EquipmentType classifies inspectable equipment, based on apar.equipment_types
type EquipmentType struct {
	ID                    int64  `json:"id"`
	Name                  string `json:"name"`
	DefaultIntervalMonths int    `json:"default_interval_months"` // Always > 0
}

// ChecklistItem is one question of an equipment type's checklist template
type ChecklistItem struct {
	ID       int64  `json:"checklist_item_id"`
	TypeID   int64  `json:"type_id"`
	Question string `json:"question"`
}

// Equipment represents one inspectable unit joined with its type and location
type Equipment struct {
	ID                    int64  `json:"id"`                      // Primary key from apar.equipment.id
	Code                  string `json:"code"`                    // Unique human code, e.g. "APAR-12"
	Specification         string `json:"specification,omitempty"` // Free-text specification
	QRToken               string `json:"qr_token"`                // Opaque token printed on the unit, immutable
	TypeID                int64  `json:"type_id"`
	TypeName              string `json:"type_name"`
	DefaultIntervalMonths int    `json:"default_interval_months"` // From the equipment type
	LocationID            int64  `json:"location_id"`
	LocationName          string `json:"location_name"`
}

// EquipmentKey identifies equipment either by numeric id or by QR token
type EquipmentKey struct {
	ID    int64
	Token string
}

// EquipmentWithLastInspection is the row shape shared by every listing query
type EquipmentWithLastInspection struct {
	Equipment
	LastInspectedAt *time.Time
	LastBadge       *string
}

// EquipmentDetailView is returned by both the id and the token lookup
type EquipmentDetailView struct {
	Equipment
	ChecklistItems []ChecklistItem    `json:"checklist_items"`
	Interval       IntervalResolution `json:"interval"`
	Due            DueStatus          `json:"due"`
	OfficerBadge   *string            `json:"officer_badge,omitempty"`
}

// EquipmentSummaryView is one row of an officer's equipment listing
type EquipmentSummaryView struct {
	ID           int64              `json:"id"`
	Code         string             `json:"code"`
	TypeName     string             `json:"type_name"`
	LocationID   int64              `json:"location_id"`
	LocationName string             `json:"location_name"`
	LastBadge    *string            `json:"last_badge,omitempty"`
	Interval     IntervalResolution `json:"interval"`
	Due          DueStatus          `json:"due"`
}

// EquipmentDueSummary is one row of the upcoming-due listing
type EquipmentDueSummary = EquipmentSummaryView

// CreateEquipmentRequest represents the request payload for registering equipment
type CreateEquipmentRequest struct {
	Code          string `json:"code" validate:"required,min=1,max=50"`
	TypeID        int64  `json:"type_id" validate:"required,gt=0"`
	LocationID    int64  `json:"location_id" validate:"required,gt=0"`
	Specification string `json:"specification" validate:"max=500"`
}

// QRInfo carries the data encoded in an equipment's printed QR code and the
// display URLs produced by the external image service
type QRInfo struct {
	Token        string            `json:"qr_token"`
	Code         string            `json:"code"`
	LocationName string            `json:"location_name"`
	TypeName     string            `json:"type_name"`
	Payload      string            `json:"payload"`
	ImageURLs    map[string]string `json:"image_urls"`
}

// UpcomingFilter narrows the upcoming-due listing
type UpcomingFilter struct {
	WithinDays int
	Badge      string
	LocationID *int64
	TypeID     *int64
}

// EquipmentFilter narrows equipment queries. A nil LocationIDs means every
// location; a non-nil empty slice matches nothing.
type EquipmentFilter struct {
	LocationIDs []int64
	IDs         []int64
	TypeID      *int64
}
