package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"apar/lib/compliance"
	"apar/lib/data"
	"apar/lib/models"
)

// EquipmentService resolves equipment for detail, listing and reminder views
type EquipmentService struct {
	Equipment    data.EquipmentRepository
	Officers     data.OfficerRepository
	Checklists   *ChecklistCatalog
	Due          *compliance.DueCalculator
	Validate     *validator.Validate
	QRServiceURL string
	NewToken     func() string
	Logger       *logrus.Logger
}

// Scope loads an officer and the locations they may act on
func (s *EquipmentService) Scope(ctx context.Context, badge string) (*models.Officer, models.AccessScope, error) {
	officer, err := s.Officers.GetOfficerByBadge(ctx, badge)
	if err != nil {
		return nil, models.AccessScope{}, err
	}

	var picIDs []int64
	if !compliance.IsRescueRole(officer.RoleName) {
		picIDs, err = s.Officers.GetPICLocationIDs(ctx, officer.ID)
		if err != nil {
			return nil, models.AccessScope{}, err
		}
	}

	return officer, compliance.ResolveScope(officer.BadgeNumber, officer.RoleName, officer.HomeLocationID, picIDs), nil
}

// AccessMode reports whether the officer may work offline
func (s *EquipmentService) AccessMode(ctx context.Context, badge string) (*models.AccessModeResponse, error) {
	officer, scope, err := s.Scope(ctx, badge)
	if err != nil {
		return nil, err
	}
	resp := compliance.AccessMode(officer, scope)
	return &resp, nil
}

// GetDetail resolves equipment by id or QR token. With a badge, equipment
// outside the officer's scope is reported as not found and the officer's
// interval tiers apply.
func (s *EquipmentService) GetDetail(ctx context.Context, key models.EquipmentKey, badge string) (*models.EquipmentDetailView, error) {
	if key.Token != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(key.Token))
		if err != nil {
			return nil, &models.ValidationError{Fields: map[string]string{"token": "uuid"}}
		}
		key.Token = parsed.String()
	} else if key.ID <= 0 {
		return nil, &models.ValidationError{Fields: map[string]string{"id": "positive_integer"}}
	}

	equipment, err := s.Equipment.GetEquipment(ctx, key)
	if err != nil {
		return nil, err
	}

	view := &models.EquipmentDetailView{Equipment: equipment.Equipment}
	var officerIntervals *models.OfficerIntervals
	if strings.TrimSpace(badge) != "" {
		officer, scope, err := s.Scope(ctx, badge)
		if err != nil {
			return nil, err
		}
		if !scope.Allows(equipment.LocationID) {
			s.Logger.WithFields(logrus.Fields{
				"equipment_id": equipment.ID,
				"location_id":  equipment.LocationID,
				"badge":        officer.BadgeNumber,
			}).Warn("Equipment outside officer scope")
			return nil, fmt.Errorf("%w: %d", models.ErrEquipmentNotFound, equipment.ID)
		}
		officerIntervals = &officer.OfficerIntervals
		view.OfficerBadge = &officer.BadgeNumber
	}

	view.Interval = compliance.ResolveInterval(officerIntervals, equipment.DefaultIntervalMonths)
	view.Due = s.Due.Compute(equipment.LastInspectedAt, view.Interval.Months)

	view.ChecklistItems, err = s.Checklists.Items(ctx, equipment.TypeID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *EquipmentService) summarize(eq models.EquipmentWithLastInspection, officer *models.OfficerIntervals) models.EquipmentSummaryView {
	interval := compliance.ResolveInterval(officer, eq.DefaultIntervalMonths)
	return models.EquipmentSummaryView{
		ID:           eq.ID,
		Code:         eq.Code,
		TypeName:     eq.TypeName,
		LocationID:   eq.LocationID,
		LocationName: eq.LocationName,
		LastBadge:    eq.LastBadge,
		Interval:     interval,
		Due:          s.Due.Compute(eq.LastInspectedAt, interval.Months),
	}
}

// scopeFilter narrows a filter to the scope; false means nothing is visible
func scopeFilter(scope models.AccessScope, filter models.EquipmentFilter) (models.EquipmentFilter, bool) {
	if scope.Empty() {
		return filter, false
	}
	if !scope.IsGlobalScope {
		filter.LocationIDs = scope.LocationIDs
	}
	return filter, true
}

// ListForOfficer lists every unit in the officer's scope, ordered by code
func (s *EquipmentService) ListForOfficer(ctx context.Context, badge string) ([]models.EquipmentSummaryView, error) {
	officer, scope, err := s.Scope(ctx, badge)
	if err != nil {
		return nil, err
	}

	filter, visible := scopeFilter(scope, models.EquipmentFilter{})
	if !visible {
		return []models.EquipmentSummaryView{}, nil
	}

	rows, err := s.Equipment.ListEquipment(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]models.EquipmentSummaryView, 0, len(rows))
	for _, eq := range rows {
		views = append(views, s.summarize(eq, &officer.OfficerIntervals))
	}
	return views, nil
}

// ListUpcoming lists never-inspected, overdue and soon-due units
func (s *EquipmentService) ListUpcoming(ctx context.Context, f models.UpcomingFilter) ([]models.EquipmentDueSummary, error) {
	if f.WithinDays < 0 {
		return nil, &models.ValidationError{Fields: map[string]string{"within_days": "min=0"}}
	}
	if f.WithinDays == 0 {
		f.WithinDays = s.Due.WarningWindowDays
	}

	filter := models.EquipmentFilter{TypeID: f.TypeID}
	var officerIntervals *models.OfficerIntervals
	if strings.TrimSpace(f.Badge) != "" {
		officer, scope, err := s.Scope(ctx, f.Badge)
		if err != nil {
			return nil, err
		}
		var visible bool
		if filter, visible = scopeFilter(scope, filter); !visible {
			return []models.EquipmentDueSummary{}, nil
		}
		if f.LocationID != nil && !scope.Allows(*f.LocationID) {
			return []models.EquipmentDueSummary{}, nil
		}
		officerIntervals = &officer.OfficerIntervals
	}
	if f.LocationID != nil {
		filter.LocationIDs = []int64{*f.LocationID}
	}

	rows, err := s.Equipment.ListEquipment(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]models.EquipmentDueSummary, 0, len(rows))
	for _, eq := range rows {
		v := s.summarize(eq, officerIntervals)
		switch v.Due.Urgency {
		case models.UrgencyNeverInspected, models.UrgencyOverdue:
			views = append(views, v)
		default:
			if *v.Due.DaysUntilDue <= f.WithinDays {
				views = append(views, v)
			}
		}
	}
	compliance.SortDueSummaries(views)
	return views, nil
}

// ListDueInDays lists units whose type-default next due date is exactly days away
func (s *EquipmentService) ListDueInDays(ctx context.Context, days int) ([]models.EquipmentDueSummary, error) {
	if days < 0 {
		return nil, &models.ValidationError{Fields: map[string]string{"days": "min=0"}}
	}

	rows, err := s.Equipment.ListEquipment(ctx, models.EquipmentFilter{})
	if err != nil {
		return nil, err
	}

	views := []models.EquipmentDueSummary{}
	for _, eq := range rows {
		v := s.summarize(eq, nil)
		if v.Due.DaysUntilDue != nil && *v.Due.DaysUntilDue == days {
			views = append(views, v)
		}
	}
	compliance.SortDueSummaries(views)
	return views, nil
}

// StatusBatch returns the type-default due status of the requested units
func (s *EquipmentService) StatusBatch(ctx context.Context, ids []int64) ([]models.EquipmentSummaryView, error) {
	if len(ids) == 0 {
		return []models.EquipmentSummaryView{}, nil
	}

	rows, err := s.Equipment.ListEquipment(ctx, models.EquipmentFilter{IDs: ids})
	if err != nil {
		return nil, err
	}

	views := make([]models.EquipmentSummaryView, 0, len(rows))
	for _, eq := range rows {
		views = append(views, s.summarize(eq, nil))
	}
	return views, nil
}

// Create registers equipment and issues its permanent QR token
func (s *EquipmentService) Create(ctx context.Context, req *models.CreateEquipmentRequest) (*models.Equipment, error) {
	if err := ValidateStruct(s.Validate, req); err != nil {
		return nil, err
	}

	newToken := s.NewToken
	if newToken == nil {
		newToken = uuid.NewString
	}

	created, err := s.Equipment.CreateEquipment(ctx, req, newToken())
	if err != nil {
		return nil, err
	}
	return &created.Equipment, nil
}
