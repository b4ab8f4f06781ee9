package storage

import (
	"context"
	"encoding/json"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hirelane/aicore/internal/models"
)

// GCSArchiver writes raw documents to a bucket, one JSON object per document
// keyed by document id. Archiving the same id twice overwrites in place.
type GCSArchiver struct {
	client *gcs.Client
	bucket string
}

// NewGCSArchiver dials GCS with application-default credentials unless the
// caller passes explicit client options.
func NewGCSArchiver(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSArchiver, error) {
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSArchiver{client: c, bucket: bucket}, nil
}

func (a *GCSArchiver) Close() error { return a.client.Close() }

func (a *GCSArchiver) Archive(ctx context.Context, doc models.Document) (string, error) {
	objectName := fmt.Sprintf("documents/%s.json", doc.ID)
	obj := a.client.Bucket(a.bucket).Object(objectName)

	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}
