package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"apar/lib/models"
)

type inspectionFixture struct {
	sql         sqlmock.Sqlmock
	inspections *MockInspectionRepository
	equipment   *MockEquipmentRepository
	officers    *MockOfficerRepository
	intervals   *MockIntervalRepository
	photos      *MockPhotoStore
	service     *InspectionService
}

func newInspectionFixture(t *testing.T) *inspectionFixture {
	tx, sqlMock := newMockTx(t)
	f := &inspectionFixture{
		sql:         sqlMock,
		inspections: &MockInspectionRepository{},
		equipment:   &MockEquipmentRepository{},
		officers:    &MockOfficerRepository{},
		intervals:   &MockIntervalRepository{},
		photos:      &MockPhotoStore{},
	}
	f.service = &InspectionService{
		Tx:          tx,
		Inspections: f.inspections,
		Equipment:   f.equipment,
		Officers:    f.officers,
		Intervals:   f.intervals,
		Checklists:  NewChecklistCatalog(f.equipment, time.Minute),
		Photos:      f.photos,
		Due:         fixedDue(date(2024, 6, 25)),
		Validate:    NewValidator(),
		Logger:      quietLogger(),
	}
	return f
}

// expectLookups wires the read-only lookups every accepted submission makes
func (f *inspectionFixture) expectLookups() {
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(inspector(), nil)
	f.equipment.On("GetChecklistItems", int64(1)).Return(co2Checklist, nil)
}

func baseRequest(checklist string) *models.SubmitInspectionRequest {
	return &models.SubmitInspectionRequest{
		EquipmentID:  "12",
		OfficerBadge: " bn-01 ",
		Timestamp:    "2024-06-25T09:30:00",
		Condition:    "Baik",
		Pressure:     "12,5",
		Latitude:     "-6.2",
		Longitude:    "200",
		Checklist:    json.RawMessage(checklist),
	}
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestSubmit_Success(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()
	req := baseRequest(`[{"checklistItemId":1,"passed":"ya"},{"checklistItemId":2,"passed":"tidak","alasan":"Jarum merah"}]`)
	req.Photos = []models.PhotoUpload{{FileName: "a.png", ContentType: "image/png", Data: pngHeader}}

	f.sql.ExpectBegin()
	f.photos.On("Save", int64(12), "a.png").Return("inspections/12/a.png", nil)
	f.inspections.On("InsertInspection", mock.MatchedBy(func(i *models.Inspection) bool {
		return i.OfficerBadge == "BN-01" &&
			i.IntervalMonths == 6 &&
			i.IntervalSource == models.IntervalSourceEquipmentType &&
			i.Pressure != nil && *i.Pressure == 12.5 &&
			i.Latitude.Valid && !i.Longitude.Valid &&
			i.InspectedAt.Equal(time.Date(2024, 6, 25, 9, 30, 0, 0, time.UTC))
	})).Return(nil)
	note := "Jarum merah"
	f.inspections.On("InsertChecklistAnswers", int64(77), []models.ChecklistAnswer{
		{ChecklistItemID: 1, Passed: true},
		{ChecklistItemID: 2, Passed: false, Note: &note},
	}).Return(nil)
	f.inspections.On("InsertPhotos", int64(77), []string{"inspections/12/a.png"}).Return([]models.PhotoAttachment{{ID: 1}}, nil)
	f.sql.ExpectCommit()

	//Act
	result, err := f.service.Submit(context.Background(), req)

	//Assert
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.InspectionID)
	assert.Nil(t, result.IntervalIDUsed)
	assert.Equal(t, 6, result.IntervalMonths)
	assert.Equal(t, []string{"inspections/12/a.png"}, result.PhotoRefs)
	f.photos.AssertNotCalled(t, "Delete", mock.Anything)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_StrictModeRollsBackAndRemovesPhotos(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()
	req := baseRequest(`[{"checklistItemId":1,"passed":true},{"checklistItemId":9,"passed":true}]`)
	req.StrictChecklist = true
	req.Photos = []models.PhotoUpload{{FileName: "a.png", Data: pngHeader}}

	f.sql.ExpectBegin()
	f.photos.On("Save", int64(12), "a.png").Return("inspections/12/a.png", nil)
	f.inspections.On("InsertInspection", mock.Anything).Return(nil)
	f.sql.ExpectRollback()
	f.photos.On("Delete", "inspections/12/a.png").Return(nil)

	//Act
	result, err := f.service.Submit(context.Background(), req)

	//Assert
	assert.Nil(t, result)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "checklist")
	f.inspections.AssertNotCalled(t, "InsertChecklistAnswers", mock.Anything, mock.Anything)
	f.photos.AssertCalled(t, "Delete", "inspections/12/a.png")
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_DefaultModeDropsCrossTypeAnswers(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()
	req := baseRequest(`[{"checklistItemId":1,"passed":true},{"checklistItemId":9,"passed":true}]`)

	f.sql.ExpectBegin()
	f.inspections.On("InsertInspection", mock.Anything).Return(nil)
	f.inspections.On("InsertChecklistAnswers", int64(77), []models.ChecklistAnswer{{ChecklistItemID: 1, Passed: true}}).Return(nil)
	f.sql.ExpectCommit()

	//Act
	_, err := f.service.Submit(context.Background(), req)

	//Assert
	require.NoError(t, err)
	f.inspections.AssertNotCalled(t, "InsertPhotos", mock.Anything, mock.Anything)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_EntriesWithoutItemIDStillCommit(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()

	f.sql.ExpectBegin()
	f.inspections.On("InsertInspection", mock.Anything).Return(nil)
	f.inspections.On("InsertChecklistAnswers", int64(77), []models.ChecklistAnswer{}).Return(nil)
	f.sql.ExpectCommit()

	//Act
	result, err := f.service.Submit(context.Background(), baseRequest(`[{"condition":"Baik"}]`))

	//Assert
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.InspectionID)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_FillMissingAsPass(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()
	req := baseRequest(`[{"checklistItemId":2,"passed":false}]`)
	req.FillMissingAsPass = true

	f.sql.ExpectBegin()
	f.inspections.On("InsertInspection", mock.Anything).Return(nil)
	f.inspections.On("InsertChecklistAnswers", int64(77), mock.MatchedBy(func(answers []models.ChecklistAnswer) bool {
		passed := map[int64]bool{}
		for _, a := range answers {
			passed[a.ChecklistItemID] = a.Passed
		}
		return len(answers) == 2 && passed[1] && !passed[2]
	})).Return(nil)
	f.sql.ExpectCommit()

	//Act
	_, err := f.service.Submit(context.Background(), req)

	//Assert
	require.NoError(t, err)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_IntervalOverride(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()
	req := baseRequest(`[]`)
	req.IntervalOverride = "4"
	f.intervals.On("GetIntervalByID", int64(4)).Return(&models.Interval{ID: 4, Name: "Bulanan", Months: 1}, nil)

	f.sql.ExpectBegin()
	f.inspections.On("InsertInspection", mock.MatchedBy(func(i *models.Inspection) bool {
		return i.IntervalID != nil && *i.IntervalID == 4 && i.IntervalMonths == 1 && i.IntervalSource == models.IntervalSourceOverride
	})).Return(nil)
	f.inspections.On("InsertChecklistAnswers", int64(77), []models.ChecklistAnswer{}).Return(nil)
	f.sql.ExpectCommit()

	//Act
	result, err := f.service.Submit(context.Background(), req)

	//Assert
	require.NoError(t, err)
	assert.Equal(t, int64(4), *result.IntervalIDUsed)
	assert.Equal(t, models.IntervalSourceOverride, result.IntervalSource)
}

func TestSubmit_UnknownIntervalOverride(t *testing.T) {
	f := newInspectionFixture(t)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(inspector(), nil)
	req := baseRequest(`[]`)
	req.IntervalOverride = "99"
	f.intervals.On("GetIntervalByID", int64(99)).Return(nil, nil)

	_, err := f.service.Submit(context.Background(), req)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "exists", ve.Fields["interval_id"])
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_UnknownOfficerWritesNothing(t *testing.T) {
	f := newInspectionFixture(t)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)
	f.officers.On("GetOfficerByBadge", "BN-01").Return(nil, models.ErrOfficerNotFound)

	_, err := f.service.Submit(context.Background(), baseRequest(`[]`))

	assert.ErrorIs(t, err, models.ErrOfficerNotFound)
	f.inspections.AssertNotCalled(t, "InsertInspection", mock.Anything)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestSubmit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.SubmitInspectionRequest)
		field  string
		tag    string
	}{
		{"missing equipment", func(r *models.SubmitInspectionRequest) { r.EquipmentID = "" }, "equipment_id", "required"},
		{"non numeric equipment", func(r *models.SubmitInspectionRequest) { r.EquipmentID = "APAR-12" }, "equipment_id", "positive_integer"},
		{"bad timestamp", func(r *models.SubmitInspectionRequest) { r.Timestamp = "kemarin" }, "timestamp", "datetime"},
		{"blank badge", func(r *models.SubmitInspectionRequest) { r.OfficerBadge = "   " }, "officer_badge", "required"},
		{"bad override", func(r *models.SubmitInspectionRequest) { r.IntervalOverride = "x" }, "interval_id", "positive_integer"},
		{"malformed checklist", func(r *models.SubmitInspectionRequest) { r.Checklist = json.RawMessage(`{"a":1}`) }, "checklist", "json_array"},
		{"both checklist modes", func(r *models.SubmitInspectionRequest) {
			r.StrictChecklist = true
			r.FillMissingAsPass = true
		}, "checklist_mode", "exclusive"},
		{"photo not an image", func(r *models.SubmitInspectionRequest) {
			r.Photos = []models.PhotoUpload{{FileName: "a.txt", Data: []byte("plain text")}}
		}, "photos[0]", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInspectionFixture(t)
			req := baseRequest(`[]`)
			tt.mutate(req)

			_, err := f.service.Submit(context.Background(), req)

			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.tag, ve.Fields[tt.field])
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			f.equipment.AssertNotCalled(t, "GetEquipment", mock.Anything)
		})
	}
}

func TestSubmit_PhotoStoreFailureRollsBack(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.expectLookups()
	req := baseRequest(`[]`)
	req.Photos = []models.PhotoUpload{
		{FileName: "a.png", Data: pngHeader},
		{FileName: "b.png", Data: pngHeader},
	}

	f.sql.ExpectBegin()
	f.photos.On("Save", int64(12), "a.png").Return("inspections/12/a.png", nil)
	f.photos.On("Save", int64(12), "b.png").Return("", errors.New("bucket unavailable"))
	f.photos.On("Delete", "inspections/12/a.png").Return(nil)
	f.sql.ExpectRollback()

	//Act
	_, err := f.service.Submit(context.Background(), req)

	//Assert
	assert.ErrorIs(t, err, models.ErrPersistence)
	f.photos.AssertCalled(t, "Delete", "inspections/12/a.png")
	f.inspections.AssertNotCalled(t, "InsertInspection", mock.Anything)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestHistory_ComputesNextDueAtSubmission(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 12}).Return(apar12(nil), nil)
	records := []models.InspectionRecord{
		{Inspection: models.Inspection{ID: 2, InspectedAt: date(2024, 1, 31), IntervalMonths: 1}},
		{Inspection: models.Inspection{ID: 1, InspectedAt: date(2023, 7, 1), IntervalMonths: 6}},
	}
	f.inspections.On("ListHistory", int64(12)).Return(records, nil)

	//Act
	history, err := f.service.History(context.Background(), 12)

	//Assert
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, date(2024, 2, 29), *history[0].NextDueAtTime)
	assert.Equal(t, date(2024, 1, 1), *history[1].NextDueAtTime)
}

func TestHistory_UnknownEquipment(t *testing.T) {
	f := newInspectionFixture(t)
	f.equipment.On("GetEquipment", models.EquipmentKey{ID: 404}).Return(nil, models.ErrEquipmentNotFound)

	_, err := f.service.History(context.Background(), 404)

	assert.ErrorIs(t, err, models.ErrEquipmentNotFound)
	f.inspections.AssertNotCalled(t, "ListHistory", mock.Anything)
}

func TestDetail_PhotoURLFailureIsNotFatal(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.inspections.On("GetInspection", int64(77)).Return(&models.InspectionRecord{
		Inspection: models.Inspection{ID: 77, InspectedAt: date(2024, 6, 25), IntervalMonths: 6},
	}, nil)
	f.inspections.On("GetChecklistAnswers", int64(77)).Return([]models.ChecklistAnswerView{}, nil)
	f.inspections.On("GetPhotos", int64(77)).Return([]models.PhotoAttachment{
		{ID: 1, Path: "inspections/12/a.png"},
		{ID: 2, Path: "inspections/12/b.png"},
	}, nil)
	f.photos.On("URL", "inspections/12/a.png").Return("https://signed/a", nil)
	f.photos.On("URL", "inspections/12/b.png").Return("", errors.New("expired credentials"))

	//Act
	detail, err := f.service.Detail(context.Background(), 77)

	//Assert
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 25), *detail.Inspection.NextDueAtTime)
	assert.Equal(t, "https://signed/a", detail.Photos[0].URL)
	assert.Empty(t, detail.Photos[1].URL)
}

func TestDelete_RemovesPhotosAfterCommit(t *testing.T) {
	//Arrange
	f := newInspectionFixture(t)
	f.sql.ExpectBegin()
	f.inspections.On("DeleteInspection", int64(77)).Return([]string{"inspections/12/a.png"}, nil)
	f.sql.ExpectCommit()
	f.photos.On("Delete", "inspections/12/a.png").Return(errors.New("already gone"))

	//Act
	err := f.service.Delete(context.Background(), 77)

	//Assert
	require.NoError(t, err)
	f.photos.AssertCalled(t, "Delete", "inspections/12/a.png")
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestDelete_NotFoundKeepsPhotos(t *testing.T) {
	f := newInspectionFixture(t)
	f.sql.ExpectBegin()
	f.inspections.On("DeleteInspection", int64(5)).Return(nil, models.ErrInspectionNotFound)
	f.sql.ExpectRollback()

	err := f.service.Delete(context.Background(), 5)

	assert.ErrorIs(t, err, models.ErrInspectionNotFound)
	f.photos.AssertNotCalled(t, "Delete", mock.Anything)
}
