// Package storage keeps inspection photo evidence outside the database. Only
// the returned path is persisted on the inspection.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"apar/lib/models"
)

// PhotoStore saves and removes photo objects addressed by a relative path
type PhotoStore interface {
	Save(ctx context.Context, equipmentID int64, photo models.PhotoUpload) (string, error)
	Delete(ctx context.Context, path string) error
	URL(ctx context.Context, path string) (string, error)
}

// PhotoKey builds a unique object path grouped by equipment, e.g.
// inspections/12/3f2c...a3c.jpg. The extension follows the sniffed content.
func PhotoKey(equipmentID int64, photo models.PhotoUpload) string {
	ext := mimetype.Detect(photo.Data).Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(photo.FileName))
	}
	return fmt.Sprintf("inspections/%d/%s%s", equipmentID, uuid.NewString(), ext)
}
