//go:build gcp

package footprint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSSource reads a seed document from a Cloud Storage object.
type GCSSource struct {
	client *storage.Client
	bucket string
	object string
}

func newGCSSource(ctx context.Context, bucket, object string) (Source, error) {
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("gcs seed needs bucket and object")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSSource{client: client, bucket: bucket, object: object}, nil
}

func (s *GCSSource) Records(ctx context.Context) ([]json.RawMessage, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer func() { _ = r.Close() }()

	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return SplitDocument(doc, FormatOf(s.object))
}
