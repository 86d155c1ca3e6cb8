// Package compliance holds the read-time rules shared by every listing, lookup
// and submission path: interval precedence, due-date arithmetic, access scope
// and checklist normalization. Nothing here touches the database.
package compliance

import (
	"apar/lib/models"
)

// ResolveInterval returns the effective re-inspection interval. The first
// non-nil tier wins: the officer's personal override, then the officer's role
// interval, then the equipment-type default. A nil officer (no badge supplied)
// always yields the type default.
func ResolveInterval(officer *models.OfficerIntervals, typeDefaultMonths int) models.IntervalResolution {
	if officer != nil {
		if officer.OfficerIntervalMonths != nil {
			return models.IntervalResolution{
				IntervalID: officer.OfficerIntervalID,
				Months:     *officer.OfficerIntervalMonths,
				Source:     models.IntervalSourceOfficer,
			}
		}
		if officer.RoleIntervalMonths != nil {
			return models.IntervalResolution{
				IntervalID: officer.RoleIntervalID,
				Months:     *officer.RoleIntervalMonths,
				Source:     models.IntervalSourceRole,
			}
		}
	}

	return models.IntervalResolution{
		Months: typeDefaultMonths,
		Source: models.IntervalSourceEquipmentType,
	}
}

// ResolveWithOverride applies an explicit submission-time interval ahead of
// the regular precedence chain.
func ResolveWithOverride(override *models.Interval, officer *models.OfficerIntervals, typeDefaultMonths int) models.IntervalResolution {
	if override != nil {
		id := override.ID
		return models.IntervalResolution{
			IntervalID: &id,
			Months:     override.Months,
			Source:     models.IntervalSourceOverride,
		}
	}
	return ResolveInterval(officer, typeDefaultMonths)
}
