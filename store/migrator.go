package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migration
var migrationFS embed.FS

const (
	// latestSchemaFileName holds the full schema for fresh installations.
	latestSchemaFileName = "LATEST.sql"

	// vectorDimPlaceholder is substituted with the configured embedding
	// dimension before the schema is applied. Only the postgres schema
	// uses it; sqlite stores vectors as serialized text.
	vectorDimPlaceholder = "__VECTOR_DIM__"
)

// Migrate applies the latest schema for the configured driver. The schema
// statements are idempotent, so running Migrate on an initialized database
// is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}

	buf, err := migrationFS.ReadFile(fmt.Sprintf("migration/%s/%s", s.profile.Driver, latestSchemaFileName))
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema for driver %q", s.profile.Driver)
	}

	stmt := strings.ReplaceAll(string(buf), vectorDimPlaceholder, fmt.Sprintf("%d", s.profile.EmbeddingDim))
	if _, err := s.driver.GetDB().ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}

	if !initialized {
		slog.Info("database schema initialized",
			"driver", s.profile.Driver,
			"embedding_dim", s.profile.EmbeddingDim)
	}
	return nil
}
