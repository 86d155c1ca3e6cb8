package compliance

import (
	"sort"
	"time"

	"apar/lib/models"
)

// DefaultWarningWindowDays is the early-warning window used when none is configured
const DefaultWarningWindowDays = 7

// DueCalculator computes next-due dates and urgency classes against "now"
type DueCalculator struct {
	Now               func() time.Time
	Location          *time.Location
	WarningWindowDays int
}

// NewDueCalculator builds a calculator using the wall clock. A non-positive
// window falls back to DefaultWarningWindowDays and a nil location to UTC.
func NewDueCalculator(warningWindowDays int, loc *time.Location) *DueCalculator {
	if warningWindowDays <= 0 {
		warningWindowDays = DefaultWarningWindowDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DueCalculator{
		Now:               time.Now,
		Location:          loc,
		WarningWindowDays: warningWindowDays,
	}
}

// AddMonths adds calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextDue returns the next-due date for a last inspection, nil if never inspected
func (c *DueCalculator) NextDue(lastInspectedAt *time.Time, intervalMonths int) *time.Time {
	if lastInspectedAt == nil {
		return nil
	}
	next := AddMonths(lastInspectedAt.In(c.location()), intervalMonths)
	return &next
}

// Compute classifies one equipment unit
func (c *DueCalculator) Compute(lastInspectedAt *time.Time, intervalMonths int) models.DueStatus {
	if lastInspectedAt == nil {
		return models.DueStatus{Urgency: models.UrgencyNeverInspected}
	}

	next := c.NextDue(lastInspectedAt, intervalMonths)
	days := c.DaysUntil(*next)
	last := *lastInspectedAt

	status := models.DueStatus{
		LastInspectedAt: &last,
		NextDueDate:     next,
		DaysUntilDue:    &days,
	}

	switch {
	case days < 0:
		status.Urgency = models.UrgencyOverdue
	case days <= c.window():
		status.Urgency = models.UrgencyDueSoon
	default:
		status.Urgency = models.UrgencyOK
	}
	return status
}

// DaysUntil counts calendar days from today's date to the date of t
func (c *DueCalculator) DaysUntil(t time.Time) int {
	return daysBetween(c.now().In(c.location()), t.In(c.location()))
}

func (c *DueCalculator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *DueCalculator) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c *DueCalculator) window() int {
	if c.WarningWindowDays <= 0 {
		return DefaultWarningWindowDays
	}
	return c.WarningWindowDays
}

// daysBetween compares date parts only so DST shifts never change the count
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func urgencyRank(u models.Urgency) int {
	switch u {
	case models.UrgencyNeverInspected:
		return 0
	case models.UrgencyOverdue:
		return 1
	case models.UrgencyDueSoon:
		return 2
	default:
		return 3
	}
}

// SortDueSummaries orders rows for upcoming-due listings: never inspected,
// overdue, due soon, ok; then ascending due date, location name, equipment
// code and id.
func SortDueSummaries(rows []models.EquipmentSummaryView) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if ra, rb := urgencyRank(a.Due.Urgency), urgencyRank(b.Due.Urgency); ra != rb {
			return ra < rb
		}
		if da, db := a.Due.NextDueDate, b.Due.NextDueDate; da != nil && db != nil && !da.Equal(*db) {
			return da.Before(*db)
		}
		if a.LocationName != b.LocationName {
			return a.LocationName < b.LocationName
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ID < b.ID
	})
}
