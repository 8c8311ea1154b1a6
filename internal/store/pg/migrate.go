package pg

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"stayvista.app/internal/store/pg/migrations"
)

var (
	gooseOnce sync.Once
	gooseErr  error

	// seams for tests
	gooseUpContext   = goose.UpContext
	gooseDownContext = goose.DownContext
	gooseVersion     = goose.GetDBVersionContext
)

func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		gooseErr = goose.SetDialect("pgx")
	})
	return gooseErr
}

// MigrateUp applies all pending schema migrations.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("pg: goose setup: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("pg: migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent schema migration.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("pg: goose setup: %w", err)
	}
	if err := gooseDownContext(ctx, db, "."); err != nil {
		return fmt.Errorf("pg: migrate down: %w", err)
	}
	return nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, fmt.Errorf("pg: goose setup: %w", err)
	}
	return gooseVersion(ctx, db)
}
