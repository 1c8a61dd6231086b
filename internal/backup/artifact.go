// Package backup drives per-table snapshot export and truncate-and-reload
// restore, with pluggable artifact storage backends.
package backup

import (
	"context"
)

// ArtifactStore persists one binary snapshot artifact per table, keyed by
// table name. Get returns a not-found error naming the table when no artifact
// exists.
type ArtifactStore interface {
	Put(ctx context.Context, table string, data []byte) error
	Get(ctx context.Context, table string) ([]byte, error)
}

// artifactName is the object key of a table's snapshot artifact
func artifactName(table string) string {
	return table + ".avro"
}
