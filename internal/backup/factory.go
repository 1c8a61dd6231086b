package backup

import (
	"context"
	"fmt"

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
)

// NewArtifactStore creates the artifact store named by the configuration
func NewArtifactStore(ctx context.Context, cfg config.ArtifactsConfig) (ArtifactStore, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalArtifactStore(cfg.Local.BasePath)
	case "s3":
		return NewS3ArtifactStore(cfg.S3)
	case "gcs":
		return NewGCSArtifactStore(ctx, cfg.GCS)
	case "azure":
		return NewAzureArtifactStore(cfg.Azure)
	default:
		return nil, apperrors.NewFault(fmt.Sprintf("unsupported artifact provider: %s", cfg.Provider), nil)
	}
}
