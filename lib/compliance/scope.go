package compliance

import (
	"sort"
	"strings"

	"apar/lib/models"
)

// IsRescueRole reports whether a role name grants global scope
func IsRescueRole(roleName string) bool {
	return strings.Contains(strings.ToLower(roleName), "rescue")
}

// ResolveScope computes the locations an officer may act on. Rescue roles see
// everything; everyone else sees their home location plus every location
// where they are the point of contact. An empty result is a valid scope.
func ResolveScope(badge, roleName string, homeLocationID *int64, picLocationIDs []int64) models.AccessScope {
	if IsRescueRole(roleName) {
		return models.AccessScope{Badge: badge, IsGlobalScope: true, LocationIDs: []int64{}}
	}

	seen := make(map[int64]struct{}, len(picLocationIDs)+1)
	ids := make([]int64, 0, len(picLocationIDs)+1)
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if homeLocationID != nil {
		add(*homeLocationID)
	}
	for _, id := range picLocationIDs {
		add(id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return models.AccessScope{Badge: badge, LocationIDs: ids}
}

// AccessMode reports whether the mobile client may cache equipment for
// offline inspection. Officers without a home location must stay online.
func AccessMode(officer *models.Officer, scope models.AccessScope) models.AccessModeResponse {
	resp := models.AccessModeResponse{
		Badge:          officer.BadgeNumber,
		RoleName:       officer.RoleName,
		HomeLocationID: officer.HomeLocationID,
		IntervalID:     officer.OfficerIntervalID,
		IntervalMonths: officer.OfficerIntervalMonths,
		LocationIDs:    scope.LocationIDs,
	}

	switch {
	case scope.IsGlobalScope:
		resp.Mode = models.AccessModeOfflineOnline
		resp.Reason = "rescue role"
	case officer.HomeLocationID != nil:
		resp.Mode = models.AccessModeOfflineOnline
		resp.Reason = "officer has a home location"
	default:
		resp.Mode = models.AccessModeOnlineOnly
		resp.Reason = "officer is not assigned to a home location"
	}
	return resp
}
