package models

import "time"

// Urgency classifies how close a piece of equipment is to its next inspection
type Urgency string

const (
	UrgencyNeverInspected Urgency = "NEVER_INSPECTED"
	UrgencyOverdue        Urgency = "OVERDUE"
	UrgencyDueSoon        Urgency = "DUE_SOON"
	UrgencyOK             Urgency = "OK"
)

// DueStatus is the read-time compliance computation for one equipment unit
type DueStatus struct {
	LastInspectedAt *time.Time `json:"last_inspected_at"`
	NextDueDate     *time.Time `json:"next_due_date"`
	DaysUntilDue    *int       `json:"days_until_due"`
	Urgency         Urgency    `json:"urgency"`
}
