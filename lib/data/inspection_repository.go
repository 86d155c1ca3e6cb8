package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// InspectionRepository defines the interface for inspection data operations.
// The Insert methods run on the caller's transaction.
type InspectionRepository interface {
	// InsertInspection inserts the inspection row and fills in ID and CreatedAt
	InsertInspection(ctx context.Context, q Querier, inspection *models.Inspection) error

	// InsertChecklistAnswers records normalized answers for one inspection
	InsertChecklistAnswers(ctx context.Context, q Querier, inspectionID int64, answers []models.ChecklistAnswer) error

	// InsertPhotos records stored photo references for one inspection
	InsertPhotos(ctx context.Context, q Querier, inspectionID int64, paths []string) ([]models.PhotoAttachment, error)

	// ListHistory returns every inspection of one equipment unit, newest first
	ListHistory(ctx context.Context, equipmentID int64) ([]models.InspectionRecord, error)

	// GetInspection returns one inspection with equipment context
	GetInspection(ctx context.Context, inspectionID int64) (*models.InspectionRecord, error)

	// GetChecklistAnswers returns the answers of one inspection with question text
	GetChecklistAnswers(ctx context.Context, inspectionID int64) ([]models.ChecklistAnswerView, error)

	// GetPhotos returns the photo references of one inspection
	GetPhotos(ctx context.Context, inspectionID int64) ([]models.PhotoAttachment, error)

	// DeleteInspection removes an inspection with its answers and photo rows, returning the photo paths
	DeleteInspection(ctx context.Context, q Querier, inspectionID int64) ([]string, error)
}

// InspectionDao implements InspectionRepository interface using PostgreSQL
type InspectionDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// InsertInspection inserts the inspection row and fills in ID and CreatedAt
func (dao *InspectionDao) InsertInspection(ctx context.Context, q Querier, inspection *models.Inspection) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO apar.inspections (
			equipment_id, officer_badge, inspected_at, interval_id, interval_months, interval_source,
			condition, problem_notes, recommendation, follow_up, pressure, problem_count, latitude, longitude
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`, inspection.EquipmentID, inspection.OfficerBadge, inspection.InspectedAt, inspection.IntervalID,
		inspection.IntervalMonths, inspection.IntervalSource, inspection.Condition, inspection.ProblemNotes,
		inspection.Recommendation, inspection.FollowUp, inspection.Pressure, inspection.ProblemCount,
		inspection.Latitude, inspection.Longitude).Scan(&inspection.ID, &inspection.CreatedAt)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"equipment_id": inspection.EquipmentID,
			"badge":        inspection.OfficerBadge,
			"error":        err.Error(),
		}).Error("Failed to insert inspection")
		return fmt.Errorf("%w: failed to insert inspection: %v", models.ErrPersistence, err)
	}
	return nil
}

// InsertChecklistAnswers records normalized answers for one inspection
func (dao *InspectionDao) InsertChecklistAnswers(ctx context.Context, q Querier, inspectionID int64, answers []models.ChecklistAnswer) error {
	for _, answer := range answers {
		_, err := q.ExecContext(ctx, `
			INSERT INTO apar.checklist_answers (inspection_id, checklist_item_id, passed, note)
			VALUES ($1, $2, $3, $4)
		`, inspectionID, answer.ChecklistItemID, answer.Passed, answer.Note)
		if err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"inspection_id":     inspectionID,
				"checklist_item_id": answer.ChecklistItemID,
				"error":             err.Error(),
			}).Error("Failed to insert checklist answer")
			if pqErrorCode(err) == pqForeignKeyViolation {
				return fmt.Errorf("%w: unknown checklist item %d", models.ErrInvalidInput, answer.ChecklistItemID)
			}
			return fmt.Errorf("%w: failed to insert checklist answer: %v", models.ErrPersistence, err)
		}
	}
	return nil
}

// InsertPhotos records stored photo references for one inspection
func (dao *InspectionDao) InsertPhotos(ctx context.Context, q Querier, inspectionID int64, paths []string) ([]models.PhotoAttachment, error) {
	photos := make([]models.PhotoAttachment, 0, len(paths))
	for _, path := range paths {
		photo := models.PhotoAttachment{InspectionID: inspectionID, Path: path}
		err := q.QueryRowContext(ctx, `
			INSERT INTO apar.inspection_photos (inspection_id, photo_path)
			VALUES ($1, $2)
			RETURNING id, uploaded_at
		`, inspectionID, path).Scan(&photo.ID, &photo.UploadedAt)
		if err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"inspection_id": inspectionID,
				"photo_path":    path,
				"error":         err.Error(),
			}).Error("Failed to insert inspection photo")
			return nil, fmt.Errorf("%w: failed to insert photo: %v", models.ErrPersistence, err)
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

const selectInspectionRecord = `
	SELECT i.id, i.equipment_id, i.officer_badge, i.inspected_at, i.interval_id, i.interval_months, i.interval_source,
	       i.condition, i.problem_notes, i.recommendation, i.follow_up, i.pressure, i.problem_count,
	       i.latitude, i.longitude, i.created_at, e.code, l.name, t.name, r.name, iv.name
	FROM apar.inspections i
	JOIN apar.equipment e ON e.id = i.equipment_id
	JOIN apar.equipment_types t ON t.id = e.type_id
	JOIN apar.locations l ON l.id = e.location_id
	LEFT JOIN apar.officers o ON UPPER(TRIM(o.badge_number)) = UPPER(TRIM(i.officer_badge))
	LEFT JOIN apar.roles r ON r.id = o.role_id
	LEFT JOIN apar.intervals iv ON iv.id = i.interval_id
`

func scanInspectionRecord(row interface{ Scan(dest ...any) error }) (*models.InspectionRecord, error) {
	var (
		rec          models.InspectionRecord
		intervalID   sql.NullInt64
		pressure     sql.NullFloat64
		problemCount sql.NullInt32
		roleName     sql.NullString
		intervalName sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.EquipmentID,
		&rec.OfficerBadge,
		&rec.InspectedAt,
		&intervalID,
		&rec.IntervalMonths,
		&rec.IntervalSource,
		&rec.Condition,
		&rec.ProblemNotes,
		&rec.Recommendation,
		&rec.FollowUp,
		&pressure,
		&problemCount,
		&rec.Latitude,
		&rec.Longitude,
		&rec.CreatedAt,
		&rec.EquipmentCode,
		&rec.LocationName,
		&rec.TypeName,
		&roleName,
		&intervalName,
	)
	if err != nil {
		return nil, err
	}

	rec.IntervalID = nullInt64Ptr(intervalID)
	if pressure.Valid {
		p := pressure.Float64
		rec.Pressure = &p
	}
	rec.ProblemCount = nullIntPtr(problemCount)
	rec.OfficerRole = nullStringPtr(roleName)
	rec.IntervalName = nullStringPtr(intervalName)
	return &rec, nil
}

// ListHistory returns every inspection of one equipment unit, newest first
func (dao *InspectionDao) ListHistory(ctx context.Context, equipmentID int64) ([]models.InspectionRecord, error) {
	rows, err := dao.DB.QueryContext(ctx, selectInspectionRecord+`
		WHERE i.equipment_id = $1
		ORDER BY i.inspected_at DESC, i.id DESC
	`, equipmentID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"equipment_id": equipmentID,
			"error":        err.Error(),
		}).Error("Failed to query inspection history")
		return nil, fmt.Errorf("%w: failed to query inspection history: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	records := []models.InspectionRecord{}
	for rows.Next() {
		rec, err := scanInspectionRecord(rows)
		if err != nil {
			dao.Logger.WithError(err).Error("Failed to scan inspection row")
			return nil, fmt.Errorf("%w: failed to scan inspection: %v", models.ErrPersistence, err)
		}
		records = append(records, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating inspections: %v", models.ErrPersistence, err)
	}

	return records, nil
}

// GetInspection returns one inspection with equipment context
func (dao *InspectionDao) GetInspection(ctx context.Context, inspectionID int64) (*models.InspectionRecord, error) {
	rec, err := scanInspectionRecord(dao.DB.QueryRowContext(ctx, selectInspectionRecord+` WHERE i.id = $1`, inspectionID))
	if err == sql.ErrNoRows {
		dao.Logger.WithFields(logrus.Fields{
			"inspection_id": inspectionID,
		}).Warn("Inspection not found")
		return nil, fmt.Errorf("%w: inspection %d", models.ErrInspectionNotFound, inspectionID)
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"inspection_id": inspectionID,
			"error":         err.Error(),
		}).Error("Failed to get inspection")
		return nil, fmt.Errorf("%w: failed to get inspection: %v", models.ErrPersistence, err)
	}
	return rec, nil
}

// GetChecklistAnswers returns the answers of one inspection with question text
func (dao *InspectionDao) GetChecklistAnswers(ctx context.Context, inspectionID int64) ([]models.ChecklistAnswerView, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT a.checklist_item_id, a.passed, a.note, ci.question
		FROM apar.checklist_answers a
		JOIN apar.checklist_items ci ON ci.id = a.checklist_item_id
		WHERE a.inspection_id = $1
		ORDER BY a.checklist_item_id ASC
	`, inspectionID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"inspection_id": inspectionID,
			"error":         err.Error(),
		}).Error("Failed to query checklist answers")
		return nil, fmt.Errorf("%w: failed to query checklist answers: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	answers := []models.ChecklistAnswerView{}
	for rows.Next() {
		var (
			view models.ChecklistAnswerView
			note sql.NullString
		)
		if err := rows.Scan(&view.ChecklistItemID, &view.Passed, &note, &view.Question); err != nil {
			return nil, fmt.Errorf("%w: failed to scan checklist answer: %v", models.ErrPersistence, err)
		}
		view.Note = nullStringPtr(note)
		answers = append(answers, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating checklist answers: %v", models.ErrPersistence, err)
	}
	return answers, nil
}

// GetPhotos returns the photo references of one inspection
func (dao *InspectionDao) GetPhotos(ctx context.Context, inspectionID int64) ([]models.PhotoAttachment, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id, inspection_id, photo_path, uploaded_at
		FROM apar.inspection_photos
		WHERE inspection_id = $1
		ORDER BY id ASC
	`, inspectionID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"inspection_id": inspectionID,
			"error":         err.Error(),
		}).Error("Failed to query inspection photos")
		return nil, fmt.Errorf("%w: failed to query photos: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	photos := []models.PhotoAttachment{}
	for rows.Next() {
		var photo models.PhotoAttachment
		if err := rows.Scan(&photo.ID, &photo.InspectionID, &photo.Path, &photo.UploadedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan photo: %v", models.ErrPersistence, err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating photos: %v", models.ErrPersistence, err)
	}
	return photos, nil
}

// DeleteInspection removes an inspection with its answers and photo rows
func (dao *InspectionDao) DeleteInspection(ctx context.Context, q Querier, inspectionID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT photo_path FROM apar.inspection_photos WHERE inspection_id = $1 ORDER BY id
	`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query photos: %v", models.ErrPersistence, err)
	}
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: failed to scan photo path: %v", models.ErrPersistence, err)
		}
		paths = append(paths, path)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating photo paths: %v", models.ErrPersistence, err)
	}

	for _, stmt := range []string{
		`DELETE FROM apar.checklist_answers WHERE inspection_id = $1`,
		`DELETE FROM apar.inspection_photos WHERE inspection_id = $1`,
	} {
		if _, err := q.ExecContext(ctx, stmt, inspectionID); err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"inspection_id": inspectionID,
				"error":         err.Error(),
			}).Error("Failed to delete inspection children")
			return nil, fmt.Errorf("%w: failed to delete inspection children: %v", models.ErrPersistence, err)
		}
	}

	result, err := q.ExecContext(ctx, `DELETE FROM apar.inspections WHERE id = $1`, inspectionID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"inspection_id": inspectionID,
			"error":         err.Error(),
		}).Error("Failed to delete inspection")
		return nil, fmt.Errorf("%w: failed to delete inspection: %v", models.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read affected rows: %v", models.ErrPersistence, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: inspection %d", models.ErrInspectionNotFound, inspectionID)
	}

	return paths, nil
}
