package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var _ Archiver = (*GCSArchiver)(nil)

// GCSArchiver uploads finished decks to a bucket under <prefix>/<id>/<file>.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSArchiver(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSArchiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

func (a *GCSArchiver) Archive(ctx context.Context, localPath, id string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open deck: %w", err)
	}
	defer func() { _ = f.Close() }()

	name := objectName(a.prefix, id, localPath)
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = PresentationMIME

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload deck: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, name), nil
}

func objectName(prefix, id, localPath string) string {
	return path.Join(prefix, id, filepath.Base(localPath))
}
