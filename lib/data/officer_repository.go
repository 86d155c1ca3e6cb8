package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// OfficerRepository defines the interface for officer data operations
type OfficerRepository interface {
	// GetOfficerByBadge loads an officer with role and interval tiers; badges match trimmed and case-insensitively
	GetOfficerByBadge(ctx context.Context, badge string) (*models.Officer, error)

	// GetPICLocationIDs lists the locations where the officer is the point of contact
	GetPICLocationIDs(ctx context.Context, officerID int64) ([]int64, error)

	// DeleteOfficer removes an officer after clearing every PIC reference to them
	DeleteOfficer(ctx context.Context, officerID int64) error
}

// OfficerDao implements OfficerRepository interface using PostgreSQL
type OfficerDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NormalizeBadge is the canonical form used for badge comparison
func NormalizeBadge(badge string) string {
	return strings.ToUpper(strings.TrimSpace(badge))
}

const selectOfficerByBadge = `
	SELECT o.id, o.employee_id, COALESCE(emp.name, ''), o.badge_number, o.role_id, r.name, o.location_id,
	       o.interval_id, oi.months, r.interval_id, ri.months
	FROM apar.officers o
	JOIN apar.roles r ON r.id = o.role_id
	LEFT JOIN apar.employees emp ON emp.id = o.employee_id
	LEFT JOIN apar.intervals oi ON oi.id = o.interval_id
	LEFT JOIN apar.intervals ri ON ri.id = r.interval_id
	WHERE UPPER(TRIM(o.badge_number)) = $1
`

// GetOfficerByBadge loads an officer with role and interval tiers
func (dao *OfficerDao) GetOfficerByBadge(ctx context.Context, badge string) (*models.Officer, error) {
	normalized := NormalizeBadge(badge)
	if normalized == "" {
		return nil, fmt.Errorf("%w: badge is required", models.ErrInvalidInput)
	}

	var (
		officer         models.Officer
		homeLocation    sql.NullInt64
		officerInterval sql.NullInt64
		officerMonths   sql.NullInt32
		roleInterval    sql.NullInt64
		roleMonths      sql.NullInt32
	)
	err := dao.DB.QueryRowContext(ctx, selectOfficerByBadge, normalized).Scan(
		&officer.ID,
		&officer.EmployeeID,
		&officer.Name,
		&officer.BadgeNumber,
		&officer.RoleID,
		&officer.RoleName,
		&homeLocation,
		&officerInterval,
		&officerMonths,
		&roleInterval,
		&roleMonths,
	)
	if err == sql.ErrNoRows {
		dao.Logger.WithFields(logrus.Fields{
			"badge": normalized,
		}).Warn("Officer not found")
		return nil, fmt.Errorf("%w: badge %s", models.ErrOfficerNotFound, normalized)
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"badge": normalized,
			"error": err.Error(),
		}).Error("Failed to get officer by badge")
		return nil, fmt.Errorf("%w: failed to get officer: %v", models.ErrPersistence, err)
	}

	officer.HomeLocationID = nullInt64Ptr(homeLocation)
	officer.OfficerIntervalID = nullInt64Ptr(officerInterval)
	officer.OfficerIntervalMonths = nullIntPtr(officerMonths)
	officer.RoleIntervalID = nullInt64Ptr(roleInterval)
	officer.RoleIntervalMonths = nullIntPtr(roleMonths)

	return &officer, nil
}

// GetPICLocationIDs lists the locations where the officer is the point of contact
func (dao *OfficerDao) GetPICLocationIDs(ctx context.Context, officerID int64) ([]int64, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id FROM apar.locations WHERE pic_officer_id = $1 ORDER BY id
	`, officerID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"officer_id": officerID,
			"error":      err.Error(),
		}).Error("Failed to query PIC locations")
		return nil, fmt.Errorf("%w: failed to query PIC locations: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			dao.Logger.WithError(err).Error("Failed to scan PIC location row")
			return nil, fmt.Errorf("%w: failed to scan PIC location: %v", models.ErrPersistence, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating PIC locations: %v", models.ErrPersistence, err)
	}

	return ids, nil
}

// DeleteOfficer removes an officer after clearing every PIC reference to them.
// Inspections keep the badge by value and are untouched.
func (dao *OfficerDao) DeleteOfficer(ctx context.Context, officerID int64) error {
	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		dao.Logger.WithError(err).Error("Failed to start transaction for officer deletion")
		return fmt.Errorf("%w: failed to start transaction: %v", models.ErrPersistence, err)
	}
	defer tx.Rollback()

	unlinked, err := tx.ExecContext(ctx, `
		UPDATE apar.locations SET pic_officer_id = NULL WHERE pic_officer_id = $1
	`, officerID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"officer_id": officerID,
			"error":      err.Error(),
		}).Error("Failed to unlink officer from PIC locations")
		return fmt.Errorf("%w: failed to unlink PIC locations: %v", models.ErrPersistence, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM apar.officers WHERE id = $1`, officerID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"officer_id": officerID,
			"error":      err.Error(),
		}).Error("Failed to delete officer")
		return fmt.Errorf("%w: failed to delete officer: %v", models.ErrPersistence, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read affected rows: %v", models.ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: officer %d", models.ErrOfficerNotFound, officerID)
	}

	if err = tx.Commit(); err != nil {
		dao.Logger.WithError(err).Error("Failed to commit officer deletion")
		return fmt.Errorf("%w: failed to commit transaction: %v", models.ErrPersistence, err)
	}

	pics, _ := unlinked.RowsAffected()
	dao.Logger.WithFields(logrus.Fields{
		"officer_id":         officerID,
		"unlinked_locations": pics,
	}).Info("Successfully deleted officer")

	return nil
}
