package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"

	"pdfblur/internal/config"
)

// gcsStorage implements Storage on a Google Cloud Storage bucket.
type gcsStorage struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

// NewGCS creates a storage client using application default credentials.
func NewGCS(ctx context.Context, cfg config.GCSConfig) (Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsStorage{client: client, bucket: client.Bucket(cfg.Bucket)}, nil
}

func (s *gcsStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = opt.ContentType
	w.Metadata = opt.Metadata

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return ObjectInfo{}, fmt.Errorf("copy to gcs object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("finalize gcs object %s: %w", key, err)
	}
	attrs := w.Attrs()
	return ObjectInfo{
		Key:          key,
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
		Metadata:     attrs.Metadata,
	}, nil
}

func (s *gcsStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	rd, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ObjectInfo{}, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, s.bucket.BucketName(), key)
		}
		return nil, ObjectInfo{}, err
	}
	return rd, ObjectInfo{
		Key:          key,
		Size:         rd.Attrs.Size,
		ContentType:  rd.Attrs.ContentType,
		LastModified: rd.Attrs.LastModified,
	}, nil
}

func (s *gcsStorage) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *gcsStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return s.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	})
}
