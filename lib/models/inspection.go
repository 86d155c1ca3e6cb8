package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Inspection represents one append-only inspection record based on apar.inspections
type Inspection struct {
	ID             int64               `json:"id"`
	EquipmentID    int64               `json:"equipment_id"`
	OfficerBadge   string              `json:"officer_badge"`
	InspectedAt    time.Time           `json:"inspected_at"`
	IntervalID     *int64              `json:"interval_id"`     // Interval applied at submission time
	IntervalMonths int                 `json:"interval_months"` // Denormalized for audit, never recomputed
	IntervalSource string              `json:"interval_source"`
	Condition      string              `json:"condition"`
	ProblemNotes   string              `json:"problem_notes"`
	Recommendation string              `json:"recommendation"`
	FollowUp       string              `json:"follow_up"`
	Pressure       *float64            `json:"pressure"`
	ProblemCount   *int                `json:"problem_count"`
	Latitude       decimal.NullDecimal `json:"latitude"`
	Longitude      decimal.NullDecimal `json:"longitude"`
	CreatedAt      time.Time           `json:"created_at"`
}

// InspectionRecord is an inspection joined with equipment context for history listings
type InspectionRecord struct {
	Inspection
	EquipmentCode string     `json:"equipment_code"`
	LocationName  string     `json:"location_name"`
	TypeName      string     `json:"type_name"`
	OfficerRole   *string    `json:"officer_role"`
	IntervalName  *string    `json:"interval_name"`
	NextDueAtTime *time.Time `json:"next_due_at_time"` // Next due as computed at submission time
}

// ChecklistAnswer is the canonical normalized answer for one checklist item
type ChecklistAnswer struct {
	ChecklistItemID int64   `json:"checklistItemId"`
	Passed          bool    `json:"passed"`
	Note            *string `json:"note"`
}

// ChecklistAnswerView is an answer joined with its question text
type ChecklistAnswerView struct {
	ChecklistAnswer
	Question string `json:"question"`
}

// PhotoAttachment is a stored photo reference owned by one inspection
type PhotoAttachment struct {
	ID           int64     `json:"id"`
	InspectionID int64     `json:"inspection_id"`
	Path         string    `json:"path"`
	URL          string    `json:"url,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// InspectionDetail is the full view of one inspection
type InspectionDetail struct {
	Inspection       InspectionRecord      `json:"inspection"`
	ChecklistAnswers []ChecklistAnswerView `json:"checklist_answers"`
	Photos           []PhotoAttachment     `json:"photos"`
}

// PhotoUpload is one uploaded file decoded from the request, not yet stored
type PhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SubmitInspectionRequest is the decoded client submission before validation
type SubmitInspectionRequest struct {
	EquipmentID       string          `json:"equipment_id" validate:"required"`
	OfficerBadge      string          `json:"officer_badge" validate:"required"`
	Timestamp         string          `json:"timestamp" validate:"required"`
	Condition         string          `json:"condition"`
	ProblemNotes      string          `json:"problem_notes"`
	Recommendation    string          `json:"recommendation"`
	FollowUp          string          `json:"follow_up"`
	Pressure          string          `json:"pressure"`
	ProblemCount      string          `json:"problem_count"`
	Latitude          string          `json:"latitude"`
	Longitude         string          `json:"longitude"`
	IntervalOverride  string          `json:"interval_id"`
	FillMissingAsPass bool            `json:"fill_missing_as_pass"`
	StrictChecklist   bool            `json:"strict_checklist"`
	Checklist         json.RawMessage `json:"checklist"`
	Photos            []PhotoUpload   `json:"-"`
}

// Checklist insertion modes
const (
	ChecklistModeDefault     = "default"
	ChecklistModeStrict      = "strict"
	ChecklistModeFillMissing = "fill_missing"
)

// InspectionSubmission is a validated submission ready for the transaction
type InspectionSubmission struct {
	EquipmentID        int64
	OfficerBadge       string
	InspectedAt        time.Time
	Condition          string
	ProblemNotes       string
	Recommendation     string
	FollowUp           string
	Pressure           *float64
	ProblemCount       *int
	Latitude           decimal.NullDecimal
	Longitude          decimal.NullDecimal
	IntervalOverrideID *int64
	ChecklistMode      string
	Answers            []ChecklistAnswer
}

// SubmissionResult is returned to the client after a committed submission
type SubmissionResult struct {
	InspectionID   int64    `json:"inspection_id"`
	IntervalIDUsed *int64   `json:"interval_id_used"`
	IntervalMonths int      `json:"interval_months"`
	IntervalSource string   `json:"interval_source"`
	PhotoRefs      []string `json:"photo_refs"`
}
