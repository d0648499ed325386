// Package blob stores uploaded files and hands back an opaque reference.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"sidecrew/internal/config"
	"sidecrew/internal/pkg/logger"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid blob key")

type Store interface {
	// Put writes r under key and returns the reference to persist.
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	Close() error
}

var allowedImageExt = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".webp": ".webp",
	".heic": ".heic",
}

// ProofKey names a proof image: work_proofs/<application>/<random><ext>.
// Unknown extensions are stored as .jpg.
func ProofKey(applicationID uuid.UUID, filename string) string {
	return fmt.Sprintf("work_proofs/%s/%s%s", applicationID, uuid.NewString(), imageExt(filename))
}

// ProfilePicKey names a profile picture: profile_pics/<role>/<account>/<random><ext>.
func ProfilePicKey(role string, accountID uuid.UUID, filename string) string {
	return fmt.Sprintf("profile_pics/%s/%s/%s%s", role, accountID, uuid.NewString(), imageExt(filename))
}

func imageExt(filename string) string {
	if ext, ok := allowedImageExt[strings.ToLower(path.Ext(filename))]; ok {
		return ext
	}
	return ".jpg"
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.BlobConfig, log *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BlobBackendGCS:
		return NewGCS(ctx, cfg.GCSBucket, cfg.CredentialsFile, log)
	case config.BlobBackendLocal, "":
		return NewLocal(cfg.LocalDir, log)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

func cleanKey(key string) (string, error) {
	k := path.Clean(strings.TrimPrefix(key, "/"))
	if k == "." || k == ".." || strings.HasPrefix(k, "../") {
		return "", ErrInvalidKey
	}
	return k, nil
}
