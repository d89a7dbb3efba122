package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dailyreport/internal/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	store := &memoryStore{files: map[string][]byte{}}
	svc := NewUploadService(store, logger.Discard())

	ref, err := svc.Upload(context.Background(), uuid.New(), "notes.txt", "", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "s3://test/notes.txt", ref.URL)
	assert.Contains(t, ref.MediaType, "text/plain")
	assert.Equal(t, int64(5), ref.Size)
	assert.False(t, ref.IsSelectedForAI)
	assert.Equal(t, []byte("hello"), store.files[ref.URL])
}

func TestUpload_Rejects(t *testing.T) {
	store := &memoryStore{files: map[string][]byte{}}
	tests := []struct {
		name string
		svc  UploadService
		file string
		size int64
	}{
		{"no store", NewUploadService(nil, logger.Discard()), "a.txt", 1},
		{"no name", NewUploadService(store, logger.Discard()), "", 1},
		{"empty", NewUploadService(store, logger.Discard()), "a.txt", 0},
		{"too large", NewUploadService(store, logger.Discard()), "a.txt", MaxUploadBytes + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Upload(context.Background(), uuid.New(), tt.file, "text/plain", tt.size, strings.NewReader("x"))
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
	assert.Empty(t, store.files)
}
