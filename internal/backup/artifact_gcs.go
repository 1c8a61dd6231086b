package backup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
)

// GCSArtifactStore keeps artifacts in a Google Cloud Storage bucket
type GCSArtifactStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArtifactStore creates a GCS-backed artifact store. With no credentials
// path the default environment credentials are used.
func NewGCSArtifactStore(ctx context.Context, cfg config.GCSArtifacts) (*GCSArtifactStore, error) {
	var client *storage.Client
	var err error

	if cfg.CredentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, apperrors.NewFault("failed to create GCS client", err)
	}

	return &GCSArtifactStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix, "backups/"),
	}, nil
}

// Put uploads a table's artifact
func (s *GCSArtifactStore) Put(ctx context.Context, table string, data []byte) error {
	name := s.prefix + artifactName(table)
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"
	writer.Metadata = map[string]string{"table": table}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return apperrors.NewFault("failed to upload artifact to GCS", err).WithContext("object", name)
	}
	if err := writer.Close(); err != nil {
		return apperrors.NewFault("failed to finalize GCS upload", err).WithContext("object", name)
	}
	return nil
}

// Get downloads a table's artifact
func (s *GCSArtifactStore) Get(ctx context.Context, table string) ([]byte, error) {
	name := s.prefix + artifactName(table)
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperrors.NewNotFound(table,
				fmt.Sprintf("Backup file for table '%s' not found.", table), err)
		}
		return nil, apperrors.NewFault("failed to open artifact in GCS", err).WithContext("object", name)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewFault("failed to read artifact body", err).WithContext("object", name)
	}
	return data, nil
}
