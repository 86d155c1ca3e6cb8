package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// DiskPhotoStore keeps photos under a local directory, used when running locally
type DiskPhotoStore struct {
	Dir    string
	Logger *logrus.Logger
}

func (d *DiskPhotoStore) Save(ctx context.Context, equipmentID int64, photo models.PhotoUpload) (string, error) {
	key := PhotoKey(equipmentID, photo)
	full := d.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, photo.Data, 0o644); err != nil {
		d.Logger.WithFields(logrus.Fields{
			"equipment_id": equipmentID,
			"photo_path":   full,
			"error":        err.Error(),
		}).Error("Failed to write inspection photo")
		return "", err
	}
	return key, nil
}

// Delete treats an already missing file as deleted
func (d *DiskPhotoStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(d.fullPath(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *DiskPhotoStore) URL(ctx context.Context, path string) (string, error) {
	return d.fullPath(path), nil
}

func (d *DiskPhotoStore) fullPath(key string) string {
	return filepath.Join(d.Dir, filepath.FromSlash(key))
}
