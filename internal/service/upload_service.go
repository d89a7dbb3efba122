package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"dailyreport/internal/model"
	"dailyreport/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxUploadBytes is the largest accepted attachment.
const MaxUploadBytes = 20 << 20

type UploadService interface {
	Upload(ctx context.Context, employeeID uuid.UUID, name, contentType string, size int64, body io.Reader) (*model.FileRef, error)
}

type uploadService struct {
	store storage.FileStore
	log   *logrus.Logger
}

// NewUploadService accepts a nil store, in which case uploads are refused.
func NewUploadService(store storage.FileStore, log *logrus.Logger) UploadService {
	return &uploadService{store: store, log: log}
}

func (s *uploadService) Upload(ctx context.Context, employeeID uuid.UUID, name, contentType string, size int64, body io.Reader) (*model.FileRef, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if size <= 0 || size > MaxUploadBytes {
		return nil, fmt.Errorf("%w: file size must be between 1 byte and %d MB", ErrValidation, MaxUploadBytes>>20)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(filepath.Ext(name)); guessed != "" {
			contentType = guessed
		}
	}

	url, err := s.store.Put(ctx, name, contentType, body, size)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"file":        name,
		"size":        size,
	}).Info("file uploaded")

	return &model.FileRef{
		Name:      name,
		MediaType: contentType,
		Size:      size,
		URL:       url,
	}, nil
}
