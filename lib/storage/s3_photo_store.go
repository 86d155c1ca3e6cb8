package storage

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"apar/lib/clients"
	"apar/lib/models"
)

const defaultURLExpiry = 15 * time.Minute

// S3PhotoStore keeps photos in the configured S3 bucket
type S3PhotoStore struct {
	Client    clients.S3ClientInterface
	Logger    *logrus.Logger
	URLExpiry time.Duration
}

func (s *S3PhotoStore) Save(ctx context.Context, equipmentID int64, photo models.PhotoUpload) (string, error) {
	key := PhotoKey(equipmentID, photo)
	contentType := mimetype.Detect(photo.Data).String()

	if err := s.Client.PutObject(ctx, key, contentType, photo.Data); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"equipment_id": equipmentID,
			"s3_key":       key,
			"error":        err.Error(),
		}).Error("Failed to upload inspection photo")
		return "", err
	}

	s.Logger.WithFields(logrus.Fields{
		"equipment_id": equipmentID,
		"s3_key":       key,
		"size":         len(photo.Data),
	}).Debug("Uploaded inspection photo")
	return key, nil
}

func (s *S3PhotoStore) Delete(ctx context.Context, path string) error {
	return s.Client.DeleteObject(ctx, path)
}

// URL returns a presigned download URL for an object that still exists
func (s *S3PhotoStore) URL(ctx context.Context, path string) (string, error) {
	exists, err := s.Client.ObjectExists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("photo %s: %w", path, fs.ErrNotExist)
	}

	expiry := s.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return s.Client.GenerateDownloadURL(ctx, path, expiry)
}
