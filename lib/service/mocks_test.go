package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"apar/lib/compliance"
	"apar/lib/data"
	"apar/lib/models"
)

type MockEquipmentRepository struct {
	mock.Mock
}

func (m *MockEquipmentRepository) GetEquipment(ctx context.Context, key models.EquipmentKey) (*models.EquipmentWithLastInspection, error) {
	args := m.Called(key)
	eq, _ := args.Get(0).(*models.EquipmentWithLastInspection)
	return eq, args.Error(1)
}

func (m *MockEquipmentRepository) ListEquipment(ctx context.Context, filter models.EquipmentFilter) ([]models.EquipmentWithLastInspection, error) {
	args := m.Called(filter)
	rows, _ := args.Get(0).([]models.EquipmentWithLastInspection)
	return rows, args.Error(1)
}

func (m *MockEquipmentRepository) GetChecklistItems(ctx context.Context, typeID int64) ([]models.ChecklistItem, error) {
	args := m.Called(typeID)
	items, _ := args.Get(0).([]models.ChecklistItem)
	return items, args.Error(1)
}

func (m *MockEquipmentRepository) CreateEquipment(ctx context.Context, req *models.CreateEquipmentRequest, qrToken string) (*models.EquipmentWithLastInspection, error) {
	args := m.Called(req, qrToken)
	eq, _ := args.Get(0).(*models.EquipmentWithLastInspection)
	return eq, args.Error(1)
}

type MockOfficerRepository struct {
	mock.Mock
}

func (m *MockOfficerRepository) GetOfficerByBadge(ctx context.Context, badge string) (*models.Officer, error) {
	args := m.Called(badge)
	officer, _ := args.Get(0).(*models.Officer)
	return officer, args.Error(1)
}

func (m *MockOfficerRepository) GetPICLocationIDs(ctx context.Context, officerID int64) ([]int64, error) {
	args := m.Called(officerID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *MockOfficerRepository) DeleteOfficer(ctx context.Context, officerID int64) error {
	return m.Called(officerID).Error(0)
}

type MockIntervalRepository struct {
	mock.Mock
}

func (m *MockIntervalRepository) GetIntervalByID(ctx context.Context, intervalID int64) (*models.Interval, error) {
	args := m.Called(intervalID)
	interval, _ := args.Get(0).(*models.Interval)
	return interval, args.Error(1)
}

type MockInspectionRepository struct {
	mock.Mock
}

func (m *MockInspectionRepository) InsertInspection(ctx context.Context, q data.Querier, inspection *models.Inspection) error {
	args := m.Called(inspection)
	if args.Error(0) == nil {
		inspection.ID = 77
	}
	return args.Error(0)
}

func (m *MockInspectionRepository) InsertChecklistAnswers(ctx context.Context, q data.Querier, inspectionID int64, answers []models.ChecklistAnswer) error {
	return m.Called(inspectionID, answers).Error(0)
}

func (m *MockInspectionRepository) InsertPhotos(ctx context.Context, q data.Querier, inspectionID int64, paths []string) ([]models.PhotoAttachment, error) {
	args := m.Called(inspectionID, paths)
	photos, _ := args.Get(0).([]models.PhotoAttachment)
	return photos, args.Error(1)
}

func (m *MockInspectionRepository) ListHistory(ctx context.Context, equipmentID int64) ([]models.InspectionRecord, error) {
	args := m.Called(equipmentID)
	records, _ := args.Get(0).([]models.InspectionRecord)
	return records, args.Error(1)
}

func (m *MockInspectionRepository) GetInspection(ctx context.Context, inspectionID int64) (*models.InspectionRecord, error) {
	args := m.Called(inspectionID)
	record, _ := args.Get(0).(*models.InspectionRecord)
	return record, args.Error(1)
}

func (m *MockInspectionRepository) GetChecklistAnswers(ctx context.Context, inspectionID int64) ([]models.ChecklistAnswerView, error) {
	args := m.Called(inspectionID)
	answers, _ := args.Get(0).([]models.ChecklistAnswerView)
	return answers, args.Error(1)
}

func (m *MockInspectionRepository) GetPhotos(ctx context.Context, inspectionID int64) ([]models.PhotoAttachment, error) {
	args := m.Called(inspectionID)
	photos, _ := args.Get(0).([]models.PhotoAttachment)
	return photos, args.Error(1)
}

func (m *MockInspectionRepository) DeleteInspection(ctx context.Context, q data.Querier, inspectionID int64) ([]string, error) {
	args := m.Called(inspectionID)
	paths, _ := args.Get(0).([]string)
	return paths, args.Error(1)
}

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Save(ctx context.Context, equipmentID int64, photo models.PhotoUpload) (string, error) {
	args := m.Called(equipmentID, photo.FileName)
	return args.String(0), args.Error(1)
}

func (m *MockPhotoStore) Delete(ctx context.Context, path string) error {
	return m.Called(path).Error(0)
}

func (m *MockPhotoStore) URL(ctx context.Context, path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func fixedDue(now time.Time) *compliance.DueCalculator {
	calc := compliance.NewDueCalculator(7, time.UTC)
	calc.Now = func() time.Time { return now }
	return calc
}

func newMockTx(t *testing.T) (*data.TxRunner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &data.TxRunner{DB: db, Logger: quietLogger()}, mock
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inspector is officer BN-01: role Inspector, no interval tiers, home location 5
func inspector() *models.Officer {
	return &models.Officer{
		ID:             1,
		Name:           "Budi",
		BadgeNumber:    "BN-01",
		RoleID:         2,
		RoleName:       "Inspector",
		HomeLocationID: int64Ptr(5),
	}
}

// apar12 is equipment APAR-12: six-month type default at location 5
func apar12(last *time.Time) *models.EquipmentWithLastInspection {
	return &models.EquipmentWithLastInspection{
		Equipment: models.Equipment{
			ID:                    12,
			Code:                  "APAR-12",
			QRToken:               "3f2c1a9e-8d4b-4e6f-9a7c-2b5d8e1f0a3c",
			TypeID:                1,
			TypeName:              "CO2",
			DefaultIntervalMonths: 6,
			LocationID:            5,
			LocationName:          "Gudang",
		},
		LastInspectedAt: last,
	}
}

var co2Checklist = []models.ChecklistItem{
	{ID: 1, TypeID: 1, Question: "Segel utuh?"},
	{ID: 2, TypeID: 1, Question: "Tekanan normal?"},
}
