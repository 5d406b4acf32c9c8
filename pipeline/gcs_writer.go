package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSWriter uploads blobs to a Cloud Storage bucket.
type GCSWriter struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSWriter wraps an existing storage client. prefix may be empty.
func NewGCSWriter(client *storage.Client, bucket, prefix string) (*GCSWriter, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSWriter{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// ObjectName returns the object path used for key.
func (w *GCSWriter) ObjectName(key string) string {
	if w.prefix == "" {
		return key
	}
	return path.Join(w.prefix, key)
}

// Write uploads payload as a JSON or CSV object depending on the key suffix.
func (w *GCSWriter) Write(ctx context.Context, key string, payload []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is required")
	}
	name := w.ObjectName(key)
	writer := w.client.Bucket(w.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType(key)
	if _, err := writer.Write(payload); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("write gs://%s/%s: %w (close writer: %v)", w.bucket, name, err, closeErr)
		}
		return fmt.Errorf("write gs://%s/%s: %w", w.bucket, name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", w.bucket, name, err)
	}
	return nil
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json; charset=utf-8"
	case strings.HasSuffix(key, ".csv"):
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
