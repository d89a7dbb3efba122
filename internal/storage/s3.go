package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"dailyreport/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrForeignURL is returned for locators that do not point into the store.
var ErrForeignURL = errors.New("file url does not belong to this store")

// FileStore keeps uploaded file bytes. The rest of the service only handles URLs.
type FileStore interface {
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
	Read(ctx context.Context, fileURL string, limit int64) ([]byte, error)
}

type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store uses the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not configured")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Key builds the object key for a new upload. Names are kept for display only.
func (s *S3Store) Key(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	key := uuid.NewString() + "/" + base
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// Put uploads body and returns an s3:// locator for it.
func (s *S3Store) Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	key := s.Key(name)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put object %s into bucket %s: %w", key, s.bucket, err)
	}
	return (&url.URL{Scheme: "s3", Host: s.bucket, Path: "/" + key}).String(), nil
}

// Read returns at most limit bytes of the object behind fileURL.
func (s *S3Store) Read(ctx context.Context, fileURL string, limit int64) ([]byte, error) {
	bucket, key, err := ParseURL(fileURL)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, ErrForeignURL
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucket, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, limit)); err != nil {
		return nil, fmt.Errorf("failed to read object %s from bucket %s: %w", key, bucket, err)
	}
	return buf.Bytes(), nil
}

// ParseURL splits an s3://bucket/key locator.
func ParseURL(fileURL string) (bucket, key string, err error) {
	u, err := url.Parse(fileURL)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", ErrForeignURL
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", ErrForeignURL
	}
	return u.Host, key, nil
}
