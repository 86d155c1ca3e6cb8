package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"apar/lib/models"
)

type equipmentFixture struct {
	equipment *MockEquipmentRepository
	officers  *MockOfficerRepository
	service   *EquipmentService
}

func newEquipmentFixture(now time.Time) *equipmentFixture {
	equipment := &MockEquipmentRepository{}
	officers := &MockOfficerRepository{}
	return &equipmentFixture{
		equipment: equipment,
		officers:  officers,
		service: &EquipmentService{
			Equipment:  equipment,
			Officers:   officers,
			Checklists: NewChecklistCatalog(equipment, 5*time.Minute),
			Due:        fixedDue(now),
			Validate:   NewValidator(),
			NewToken:   func() string { return "11111111-2222-4333-8444-555555555555" },
			Logger:     quietLogger(),
		},
	}
}

func TestGetDetail_EndToEndExample(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	last := date(2024, 1, 1)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(&last), nil)
	f.equipment.On("GetChecklistItems", int64(1)).Return(co2Checklist, nil)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(inspector(), nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{}, nil)

	//Act
	view, err := f.service.GetDetail(context.Background(), models.EquipmentKey{ID: 12}, "BN-01")

	//Assert
	require.NoError(t, err)
	assert.Equal(t, 6, view.Interval.Months)
	assert.Equal(t, models.IntervalSourceEquipmentType, view.Interval.Source)
	assert.Nil(t, view.Interval.IntervalID)
	assert.Equal(t, date(2024, 7, 1), *view.Due.NextDueDate)
	assert.Equal(t, 6, *view.Due.DaysUntilDue)
	assert.Equal(t, models.UrgencyDueSoon, view.Due.Urgency)
	assert.Equal(t, "BN-01", *view.OfficerBadge)
	assert.Len(t, view.ChecklistItems, 2)
}

func TestGetDetail_ByTokenWithoutBadgeUsesTypeDefault(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	token := "3F2C1A9E-8D4B-4E6F-9A7C-2B5D8E1F0A3C"
	f.equipment.On("GetEquipment", models.EquipmentKey{Token: strings.ToLower(token)}).Return(apar12(nil), nil)
	f.equipment.On("GetChecklistItems", int64(1)).Return(co2Checklist, nil)

	//Act
	view, err := f.service.GetDetail(context.Background(), models.EquipmentKey{Token: token}, "")

	//Assert
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyNeverInspected, view.Due.Urgency)
	assert.Nil(t, view.OfficerBadge)
	f.officers.AssertNotCalled(t, "GetOfficerByBadge", mock.Anything)
}

func TestGetDetail_OfficerIntervalApplies(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	last := date(2024, 6, 1)
	officer := inspector()
	officer.OfficerIntervalID = int64Ptr(3)
	officer.OfficerIntervalMonths = intPtr(1)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(&last), nil)
	f.equipment.On("GetChecklistItems", int64(1)).Return(co2Checklist, nil)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(officer, nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{}, nil)

	//Act
	view, err := f.service.GetDetail(context.Background(), models.EquipmentKey{ID: 12}, "BN-01")

	//Assert
	require.NoError(t, err)
	assert.Equal(t, models.IntervalSourceOfficer, view.Interval.Source)
	assert.Equal(t, 6, *view.Due.DaysUntilDue)
}

func TestGetDetail_OutOfScopeIsNotFound(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	officer := inspector()
	officer.HomeLocationID = int64Ptr(9)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(officer, nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{}, nil)

	//Act
	_, err := f.service.GetDetail(context.Background(), models.EquipmentKey{ID: 12}, "BN-01")

	//Assert
	assert.ErrorIs(t, err, models.ErrEquipmentNotFound)
}

func TestGetDetail_InvalidKeys(t *testing.T) {
	f := newEquipmentFixture(date(2024, 6, 25))

	_, tokenErr := f.service.GetDetail(context.Background(), models.EquipmentKey{Token: "not-a-uuid"}, "")
	_, idErr := f.service.GetDetail(context.Background(), models.EquipmentKey{ID: 0}, "")

	assert.ErrorIs(t, tokenErr, models.ErrInvalidInput)
	assert.ErrorIs(t, idErr, models.ErrInvalidInput)
	f.equipment.AssertNotCalled(t, "GetEquipment", mock.Anything)
}

func TestGetDetail_ChecklistTemplateIsCached(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)
	f.equipment.On("GetChecklistItems", int64(1)).Return(co2Checklist, nil).Once()

	//Act
	for i := 0; i < 3; i++ {
		_, err := f.service.GetDetail(context.Background(), models.EquipmentKey{ID: 12}, "")
		require.NoError(t, err)
	}

	//Assert
	f.equipment.AssertNumberOfCalls(t, "GetChecklistItems", 1)
}

func TestListForOfficer_EmptyScopeReturnsNoRows(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	officer := inspector()
	officer.HomeLocationID = nil
	f.officers.On("GetOfficerByBadge", "BN-02").Return(officer, nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{}, nil)

	//Act
	views, err := f.service.ListForOfficer(context.Background(), "BN-02")

	//Assert
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
	f.equipment.AssertNotCalled(t, "ListEquipment", mock.Anything)
}

func TestListForOfficer_ScopedToHomeAndPICLocations(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	last := date(2024, 1, 1)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(inspector(), nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{3}, nil)
	f.equipment.On("ListEquipment", models.EquipmentFilter{LocationIDs: []int64{3, 5}}).
		Return([]models.EquipmentWithLastInspection{*apar12(&last)}, nil)

	//Act
	views, err := f.service.ListForOfficer(context.Background(), "BN-01")

	//Assert
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "APAR-12", views[0].Code)
	assert.Equal(t, models.UrgencyDueSoon, views[0].Due.Urgency)
}

func TestListForOfficer_RescueSeesEverything(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	rescue := &models.Officer{ID: 4, BadgeNumber: "RT-07", RoleName: "Rescue Team"}
	f.officers.On("GetOfficerByBadge", "RT-07").Return(rescue, nil)
	f.equipment.On("ListEquipment", models.EquipmentFilter{}).
		Return([]models.EquipmentWithLastInspection{*apar12(nil)}, nil)

	//Act
	views, err := f.service.ListForOfficer(context.Background(), "RT-07")

	//Assert
	require.NoError(t, err)
	assert.Len(t, views, 1)
	f.officers.AssertNotCalled(t, "GetPICLocationIDs", mock.Anything)
}

func TestListForOfficer_UnknownBadge(t *testing.T) {
	f := newEquipmentFixture(date(2024, 6, 25))
	f.officers.On("GetOfficerByBadge", "ZZ").Return(nil, models.ErrOfficerNotFound)

	_, err := f.service.ListForOfficer(context.Background(), "ZZ")

	assert.ErrorIs(t, err, models.ErrOfficerNotFound)
}

func TestListUpcoming_IncludesOnlyDueAndSorts(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	dueSoon := date(2024, 1, 1)
	overdue := date(2023, 11, 1)
	fine := date(2024, 6, 1)
	mk := func(id int64, code string, last *time.Time) models.EquipmentWithLastInspection {
		eq := apar12(last)
		eq.ID = id
		eq.Code = code
		return *eq
	}
	f.equipment.On("ListEquipment", models.EquipmentFilter{}).Return([]models.EquipmentWithLastInspection{
		mk(1, "APAR-01", &dueSoon),
		mk(2, "APAR-02", &fine),
		mk(3, "APAR-03", nil),
		mk(4, "APAR-04", &overdue),
	}, nil)

	//Act
	views, err := f.service.ListUpcoming(context.Background(), models.UpcomingFilter{})

	//Assert
	require.NoError(t, err)
	codes := []string{}
	for _, v := range views {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"APAR-03", "APAR-04", "APAR-01"}, codes)
}

func TestListUpcoming_LocationOutsideScope(t *testing.T) {
	f := newEquipmentFixture(date(2024, 6, 25))
	f.officers.On("GetOfficerByBadge", "BN-01").Return(inspector(), nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{}, nil)

	views, err := f.service.ListUpcoming(context.Background(), models.UpcomingFilter{Badge: "BN-01", LocationID: int64Ptr(9)})

	require.NoError(t, err)
	assert.Empty(t, views)
	f.equipment.AssertNotCalled(t, "ListEquipment", mock.Anything)
}

func TestListDueInDays(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 29))
	inTwo := date(2024, 1, 1)
	inThree := date(2024, 1, 2)
	a := apar12(&inTwo)
	b := apar12(&inThree)
	b.ID, b.Code = 13, "APAR-13"
	f.equipment.On("ListEquipment", models.EquipmentFilter{}).
		Return([]models.EquipmentWithLastInspection{*a, *b, *apar12(nil)}, nil)

	//Act
	views, err := f.service.ListDueInDays(context.Background(), 2)

	//Assert
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "APAR-12", views[0].Code)

	_, err = f.service.ListDueInDays(context.Background(), -1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestStatusBatch(t *testing.T) {
	f := newEquipmentFixture(date(2024, 6, 25))
	f.equipment.On("ListEquipment", models.EquipmentFilter{IDs: []int64{12}}).
		Return([]models.EquipmentWithLastInspection{*apar12(nil)}, nil)

	views, err := f.service.StatusBatch(context.Background(), []int64{12})
	empty, emptyErr := f.service.StatusBatch(context.Background(), nil)

	require.NoError(t, err)
	require.NoError(t, emptyErr)
	assert.Len(t, views, 1)
	assert.Equal(t, models.UrgencyNeverInspected, views[0].Due.Urgency)
	assert.Empty(t, empty)
}

func TestAccessMode(t *testing.T) {
	f := newEquipmentFixture(date(2024, 6, 25))
	f.officers.On("GetOfficerByBadge", "BN-01").Return(inspector(), nil)
	f.officers.On("GetPICLocationIDs", int64(1)).Return([]int64{3}, nil)

	resp, err := f.service.AccessMode(context.Background(), "BN-01")

	require.NoError(t, err)
	assert.Equal(t, models.AccessModeOfflineOnline, resp.Mode)
	assert.Equal(t, []int64{3, 5}, resp.LocationIDs)
}

func TestCreate_IssuesToken(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(date(2024, 6, 25))
	req := &models.CreateEquipmentRequest{Code: "APAR-30", TypeID: 1, LocationID: 5}
	created := apar12(nil)
	created.QRToken = "11111111-2222-4333-8444-555555555555"
	f.equipment.On("CreateEquipment", req, "11111111-2222-4333-8444-555555555555").Return(created, nil)

	//Act
	eq, err := f.service.Create(context.Background(), req)

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-4333-8444-555555555555", eq.QRToken)
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newEquipmentFixture(date(2024, 6, 25))

	_, err := f.service.Create(context.Background(), &models.CreateEquipmentRequest{Code: "", TypeID: 0, LocationID: 5})

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["code"])
	assert.Equal(t, "required", ve.Fields["type_id"])
	f.equipment.AssertNotCalled(t, "CreateEquipment", mock.Anything, mock.Anything)
}

func TestQRInfo(t *testing.T) {
	//Arrange
	f := newEquipmentFixture(time.Date(2024, 6, 25, 8, 0, 0, 0, time.UTC))
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)

	//Act
	info, err := f.service.QRInfo(context.Background(), 12)

	//Assert
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(info.Payload), &payload))
	assert.Equal(t, "3f2c1a9e-8d4b-4e6f-9a7c-2b5d8e1f0a3c", payload["token"])
	assert.Equal(t, "APAR-12", payload["code"])
	assert.Equal(t, "2024-06-25T08:00:00Z", payload["issued_at"])

	require.Len(t, info.ImageURLs, 3)
	large, err := url.Parse(info.ImageURLs["large"])
	require.NoError(t, err)
	assert.Equal(t, "api.qrserver.com", large.Host)
	assert.Equal(t, "400x400", large.Query().Get("size"))
	assert.Equal(t, "H", large.Query().Get("ecc"))
	assert.Equal(t, info.Payload, large.Query().Get("data"))
}
