package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"sidecrew/internal/pkg/logger"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores blobs as objects in one Cloud Storage bucket. The reference is
// the object name.
type GCS struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

var _ Store = (*GCS)(nil)

// NewGCS connects with the service-account file when one is given and with
// application default credentials otherwise.
func NewGCS(ctx context.Context, bucket, credentialsFile string, log *logger.Logger) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	l := logger.OrNop(log).With("component", "blob", "backend", "gcs", "bucket", bucket)

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else {
		l.Warn("no credentials file configured, using application default credentials")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, log: l}, nil
}

func (g *GCS) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(k).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gcs object: %w", err)
	}
	g.log.Debug("blob stored", "key", k)
	return k, nil
}

func (g *GCS) Delete(ctx context.Context, ref string) error {
	k, err := cleanKey(ref)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = g.client.Bucket(g.bucket).Object(k).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %q: %w", k, err)
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
