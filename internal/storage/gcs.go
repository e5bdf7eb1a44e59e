package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore backs the file store with a Google Cloud Storage bucket.
type GCSStore struct {
	Bucket string
}

func NewGCSStore() (*GCSStore, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSStore{Bucket: bucket}, nil
}

// getClient prefers ADC (service account / GOOGLE_APPLICATION_CREDENTIALS).
// For local use, explicit JSON can be supplied via GCS_CREDENTIALS_JSON.
func getClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func (s *GCSStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	client, err := getClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wc := client.Bucket(s.Bucket).Object(path).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		return "", fmt.Errorf("write object %q: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close object %q: %w", path, err)
	}
	return path, nil
}

func (s *GCSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	client, err := getClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	rc, err := client.Bucket(s.Bucket).Object(ref).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", ref, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
