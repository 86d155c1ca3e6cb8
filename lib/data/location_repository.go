package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// LocationRepository defines the interface for location data operations
type LocationRepository interface {
	// GetLocationByID retrieves a location with its point-of-contact badge
	GetLocationByID(ctx context.Context, locationID int64) (*models.Location, error)

	// AssignPIC sets the location's point-of-contact officer
	AssignPIC(ctx context.Context, locationID, officerID int64) (*models.Location, error)

	// UnlinkPIC clears the location's point-of-contact officer
	UnlinkPIC(ctx context.Context, locationID int64) error

	// DeleteLocation deletes a location no equipment references, unlinking home officers first
	DeleteLocation(ctx context.Context, locationID int64) error
}

// LocationDao implements LocationRepository interface using PostgreSQL
type LocationDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// GetLocationByID retrieves a location with its point-of-contact badge
func (dao *LocationDao) GetLocationByID(ctx context.Context, locationID int64) (*models.Location, error) {
	var (
		location models.Location
		picID    sql.NullInt64
		picBadge sql.NullString
	)
	err := dao.DB.QueryRowContext(ctx, `
		SELECT l.id, l.name, l.latitude, l.longitude, l.pic_officer_id, o.badge_number
		FROM apar.locations l
		LEFT JOIN apar.officers o ON o.id = l.pic_officer_id
		WHERE l.id = $1
	`, locationID).Scan(
		&location.ID,
		&location.Name,
		&location.Latitude,
		&location.Longitude,
		&picID,
		&picBadge,
	)
	if err == sql.ErrNoRows {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
		}).Warn("Location not found")
		return nil, fmt.Errorf("%w: location %d", models.ErrLocationNotFound, locationID)
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
			"error":       err.Error(),
		}).Error("Failed to get location")
		return nil, fmt.Errorf("%w: failed to get location: %v", models.ErrPersistence, err)
	}

	location.PICOfficerID = nullInt64Ptr(picID)
	location.PICBadge = nullStringPtr(picBadge)
	return &location, nil
}

// AssignPIC sets the location's point-of-contact officer
func (dao *LocationDao) AssignPIC(ctx context.Context, locationID, officerID int64) (*models.Location, error) {
	var exists bool
	err := dao.DB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM apar.officers WHERE id = $1)
	`, officerID).Scan(&exists)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"officer_id": officerID,
			"error":      err.Error(),
		}).Error("Failed to check officer")
		return nil, fmt.Errorf("%w: failed to check officer: %v", models.ErrPersistence, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: officer %d", models.ErrOfficerNotFound, officerID)
	}

	result, err := dao.DB.ExecContext(ctx, `
		UPDATE apar.locations SET pic_officer_id = $2 WHERE id = $1
	`, locationID, officerID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
			"officer_id":  officerID,
			"error":       err.Error(),
		}).Error("Failed to assign PIC")
		return nil, fmt.Errorf("%w: failed to assign PIC: %v", models.ErrPersistence, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("%w: location %d", models.ErrLocationNotFound, locationID)
	}

	dao.Logger.WithFields(logrus.Fields{
		"location_id": locationID,
		"officer_id":  officerID,
	}).Info("Successfully assigned PIC")

	return dao.GetLocationByID(ctx, locationID)
}

// UnlinkPIC clears the location's point-of-contact officer
func (dao *LocationDao) UnlinkPIC(ctx context.Context, locationID int64) error {
	result, err := dao.DB.ExecContext(ctx, `
		UPDATE apar.locations SET pic_officer_id = NULL WHERE id = $1
	`, locationID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
			"error":       err.Error(),
		}).Error("Failed to unlink PIC")
		return fmt.Errorf("%w: failed to unlink PIC: %v", models.ErrPersistence, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: location %d", models.ErrLocationNotFound, locationID)
	}
	return nil
}

// DeleteLocation deletes a location no equipment references, unlinking home officers first
func (dao *LocationDao) DeleteLocation(ctx context.Context, locationID int64) error {
	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		dao.Logger.WithError(err).Error("Failed to start transaction for location deletion")
		return fmt.Errorf("%w: failed to start transaction: %v", models.ErrPersistence, err)
	}
	defer tx.Rollback()

	var equipmentCount int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM apar.equipment WHERE location_id = $1
	`, locationID).Scan(&equipmentCount)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
			"error":       err.Error(),
		}).Error("Failed to count equipment at location")
		return fmt.Errorf("%w: failed to count equipment: %v", models.ErrPersistence, err)
	}
	if equipmentCount > 0 {
		dao.Logger.WithFields(logrus.Fields{
			"location_id":     locationID,
			"equipment_count": equipmentCount,
		}).Warn("Refusing to delete location with equipment")
		return fmt.Errorf("%w: location %d still has %d equipment units", models.ErrConflict, locationID, equipmentCount)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE apar.officers SET location_id = NULL WHERE location_id = $1
	`, locationID); err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
			"error":       err.Error(),
		}).Error("Failed to unlink officers from location")
		return fmt.Errorf("%w: failed to unlink officers: %v", models.ErrPersistence, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM apar.locations WHERE id = $1`, locationID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"location_id": locationID,
			"error":       err.Error(),
		}).Error("Failed to delete location")
		return fmt.Errorf("%w: failed to delete location: %v", models.ErrPersistence, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: location %d", models.ErrLocationNotFound, locationID)
	}

	if err = tx.Commit(); err != nil {
		dao.Logger.WithError(err).Error("Failed to commit location deletion")
		return fmt.Errorf("%w: failed to commit transaction: %v", models.ErrPersistence, err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"location_id": locationID,
	}).Info("Successfully deleted location")
	return nil
}
