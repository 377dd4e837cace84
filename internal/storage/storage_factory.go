package storage

import (
	"context"
	"fmt"

	"pdfblur/internal/config"
)

// New selects the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", config.StorageMinIO:
		return NewMinIO(cfg.MinIO)
	case config.StorageGCS:
		return NewGCS(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
