package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// EquipmentRepository defines the interface for equipment data operations
type EquipmentRepository interface {
	// GetEquipment resolves equipment by numeric id or QR token, with its latest inspection
	GetEquipment(ctx context.Context, key models.EquipmentKey) (*models.EquipmentWithLastInspection, error)

	// ListEquipment lists equipment with its latest inspection, ordered by code
	ListEquipment(ctx context.Context, filter models.EquipmentFilter) ([]models.EquipmentWithLastInspection, error)

	// GetChecklistItems returns the checklist template of an equipment type
	GetChecklistItems(ctx context.Context, typeID int64) ([]models.ChecklistItem, error)

	// CreateEquipment registers a unit with an already issued QR token
	CreateEquipment(ctx context.Context, req *models.CreateEquipmentRequest, qrToken string) (*models.EquipmentWithLastInspection, error)
}

// EquipmentDao implements EquipmentRepository interface using PostgreSQL
type EquipmentDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// Every listing and lookup shares this projection so due status is computed
// from the same latest-inspection row everywhere.
const selectEquipmentWithLastInspection = `
	SELECT e.id, e.code, COALESCE(e.specification, ''), e.qr_token, e.type_id, t.name, t.default_interval_months,
	       e.location_id, l.name, li.inspected_at, li.officer_badge
	FROM apar.equipment e
	JOIN apar.equipment_types t ON t.id = e.type_id
	JOIN apar.locations l ON l.id = e.location_id
	LEFT JOIN LATERAL (
		SELECT i.inspected_at, i.officer_badge
		FROM apar.inspections i
		WHERE i.equipment_id = e.id
		ORDER BY i.inspected_at DESC, i.id DESC
		LIMIT 1
	) li ON TRUE
`

func scanEquipment(row interface{ Scan(dest ...any) error }) (*models.EquipmentWithLastInspection, error) {
	var (
		eq        models.EquipmentWithLastInspection
		lastAt    sql.NullTime
		lastBadge sql.NullString
	)
	err := row.Scan(
		&eq.ID,
		&eq.Code,
		&eq.Specification,
		&eq.QRToken,
		&eq.TypeID,
		&eq.TypeName,
		&eq.DefaultIntervalMonths,
		&eq.LocationID,
		&eq.LocationName,
		&lastAt,
		&lastBadge,
	)
	if err != nil {
		return nil, err
	}
	if lastAt.Valid {
		t := lastAt.Time
		eq.LastInspectedAt = &t
	}
	eq.LastBadge = nullStringPtr(lastBadge)
	return &eq, nil
}

// GetEquipment resolves equipment by numeric id or QR token
func (dao *EquipmentDao) GetEquipment(ctx context.Context, key models.EquipmentKey) (*models.EquipmentWithLastInspection, error) {
	query := selectEquipmentWithLastInspection + ` WHERE e.id = $1`
	var arg any = key.ID
	if key.Token != "" {
		query = selectEquipmentWithLastInspection + ` WHERE e.qr_token = $1`
		arg = key.Token
	}

	eq, err := scanEquipment(dao.DB.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		dao.Logger.WithFields(logrus.Fields{
			"equipment_id": key.ID,
			"qr_token":     key.Token,
		}).Warn("Equipment not found")
		return nil, fmt.Errorf("%w: %v", models.ErrEquipmentNotFound, arg)
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"equipment_id": key.ID,
			"qr_token":     key.Token,
			"error":        err.Error(),
		}).Error("Failed to get equipment")
		return nil, fmt.Errorf("%w: failed to get equipment: %v", models.ErrPersistence, err)
	}

	return eq, nil
}

// ListEquipment lists equipment with its latest inspection, ordered by code
func (dao *EquipmentDao) ListEquipment(ctx context.Context, filter models.EquipmentFilter) ([]models.EquipmentWithLastInspection, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.LocationIDs != nil {
		args = append(args, pq.Array(filter.LocationIDs))
		conditions = append(conditions, fmt.Sprintf("e.location_id = ANY($%d)", len(args)))
	}
	if filter.IDs != nil {
		args = append(args, pq.Array(filter.IDs))
		conditions = append(conditions, fmt.Sprintf("e.id = ANY($%d)", len(args)))
	}
	if filter.TypeID != nil {
		args = append(args, *filter.TypeID)
		conditions = append(conditions, fmt.Sprintf("e.type_id = $%d", len(args)))
	}

	query := selectEquipmentWithLastInspection
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.code ASC"

	rows, err := dao.DB.QueryContext(ctx, query, args...)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_ids": filter.LocationIDs,
			"ids":          filter.IDs,
			"error":        err.Error(),
		}).Error("Failed to query equipment")
		return nil, fmt.Errorf("%w: failed to query equipment: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	equipment := []models.EquipmentWithLastInspection{}
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			dao.Logger.WithError(err).Error("Failed to scan equipment row")
			return nil, fmt.Errorf("%w: failed to scan equipment: %v", models.ErrPersistence, err)
		}
		equipment = append(equipment, *eq)
	}
	if err = rows.Err(); err != nil {
		dao.Logger.WithError(err).Error("Error iterating equipment rows")
		return nil, fmt.Errorf("%w: error iterating equipment: %v", models.ErrPersistence, err)
	}

	if dao.Logger.IsLevelEnabled(logrus.DebugLevel) {
		dao.Logger.WithFields(logrus.Fields{
			"count":        len(equipment),
			"location_ids": filter.LocationIDs,
		}).Debug("Listed equipment")
	}
	return equipment, nil
}

// GetChecklistItems returns the checklist template of an equipment type
func (dao *EquipmentDao) GetChecklistItems(ctx context.Context, typeID int64) ([]models.ChecklistItem, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id, type_id, question
		FROM apar.checklist_items
		WHERE type_id = $1
		ORDER BY id ASC
	`, typeID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"type_id": typeID,
			"error":   err.Error(),
		}).Error("Failed to query checklist items")
		return nil, fmt.Errorf("%w: failed to query checklist items: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	items := []models.ChecklistItem{}
	for rows.Next() {
		var item models.ChecklistItem
		if err := rows.Scan(&item.ID, &item.TypeID, &item.Question); err != nil {
			dao.Logger.WithError(err).Error("Failed to scan checklist item row")
			return nil, fmt.Errorf("%w: failed to scan checklist item: %v", models.ErrPersistence, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating checklist items: %v", models.ErrPersistence, err)
	}

	return items, nil
}

// CreateEquipment registers a unit with an already issued QR token
func (dao *EquipmentDao) CreateEquipment(ctx context.Context, req *models.CreateEquipmentRequest, qrToken string) (*models.EquipmentWithLastInspection, error) {
	var equipmentID int64
	err := dao.DB.QueryRowContext(ctx, `
		INSERT INTO apar.equipment (code, type_id, location_id, specification, qr_token)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id
	`, strings.TrimSpace(req.Code), req.TypeID, req.LocationID, req.Specification, qrToken).Scan(&equipmentID)
	if err != nil {
		fields := logrus.Fields{
			"code":        req.Code,
			"type_id":     req.TypeID,
			"location_id": req.LocationID,
			"error":       err.Error(),
		}
		switch pqErrorCode(err) {
		case pqUniqueViolation:
			dao.Logger.WithFields(fields).Warn("Equipment code already exists")
			return nil, fmt.Errorf("%w: equipment code %s already exists", models.ErrConflict, req.Code)
		case pqForeignKeyViolation:
			dao.Logger.WithFields(fields).Warn("Equipment references unknown type or location")
			return nil, fmt.Errorf("%w: unknown equipment type or location", models.ErrInvalidInput)
		}
		dao.Logger.WithFields(fields).Error("Failed to create equipment")
		return nil, fmt.Errorf("%w: failed to create equipment: %v", models.ErrPersistence, err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"equipment_id": equipmentID,
		"code":         req.Code,
	}).Info("Successfully created equipment")

	return dao.GetEquipment(ctx, models.EquipmentKey{ID: equipmentID})
}
