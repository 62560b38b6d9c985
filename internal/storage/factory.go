package storage

import (
	"context"
	"fmt"

	"github.com/SHIS22proxy/paygate/internal/config"
)

// New builds the archive backend from configuration. An empty backend
// disables archiving; callers treat a nil Archive as "off".
func New(ctx context.Context, cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "local":
		return NewLocal(cfg.LocalDir), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Region: cfg.S3Region,
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive backend: %s", cfg.Backend)
	}
}
