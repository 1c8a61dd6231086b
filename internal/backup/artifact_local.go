package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "workforce-ingest/internal/errors"
)

// LocalArtifactStore keeps artifacts on the local file system, one file per
// table under a base directory.
type LocalArtifactStore struct {
	basePath string
}

// NewLocalArtifactStore creates a local artifact store rooted at basePath
func NewLocalArtifactStore(basePath string) (*LocalArtifactStore, error) {
	if basePath == "" {
		return nil, apperrors.NewFault("local artifact base path is required", nil)
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, apperrors.NewFault("failed to create artifact directory", err)
	}
	return &LocalArtifactStore{basePath: basePath}, nil
}

// Put writes a table's artifact, replacing any previous snapshot
func (s *LocalArtifactStore) Put(ctx context.Context, table string, data []byte) error {
	path := filepath.Join(s.basePath, artifactName(table))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewFault("failed to write artifact file", err).WithContext("path", path)
	}
	return nil
}

// Get reads a table's artifact
func (s *LocalArtifactStore) Get(ctx context.Context, table string) ([]byte, error) {
	path := filepath.Join(s.basePath, artifactName(table))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound(table,
				fmt.Sprintf("Backup file for table '%s' not found.", table), err)
		}
		return nil, apperrors.NewFault("failed to read artifact file", err).WithContext("path", path)
	}
	return data, nil
}
