package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// IntervalRepository defines the interface for interval lookups
type IntervalRepository interface {
	// GetIntervalByID returns nil without error when the interval does not exist
	GetIntervalByID(ctx context.Context, intervalID int64) (*models.Interval, error)
}

// IntervalDao implements IntervalRepository interface using PostgreSQL
type IntervalDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// GetIntervalByID returns nil without error when the interval does not exist
func (dao *IntervalDao) GetIntervalByID(ctx context.Context, intervalID int64) (*models.Interval, error) {
	var interval models.Interval
	err := dao.DB.QueryRowContext(ctx, `
		SELECT id, name, months FROM apar.intervals WHERE id = $1
	`, intervalID).Scan(&interval.ID, &interval.Name, &interval.Months)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"interval_id": intervalID,
			"error":       err.Error(),
		}).Error("Failed to get interval")
		return nil, fmt.Errorf("%w: failed to get interval: %v", models.ErrPersistence, err)
	}
	return &interval, nil
}
