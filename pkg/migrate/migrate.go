package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where the repo keeps its goose SQL migrations.
const DefaultDir = "pkg/migrate/migrations"

// The deployment target is Postgres; sqlite only appears in tests,
// where gorm AutoMigrate builds the schema instead.
func prepare(db *sql.DB, dir string) error {
	if db == nil {
		return fmt.Errorf("database handle is required")
	}
	if dir == "" {
		return fmt.Errorf("migrations dir is required")
	}
	return goose.SetDialect("postgres")
}

// Run executes a goose command (up, down, status) against the connected database.
func Run(ctx context.Context, db *sql.DB, dir, command string, args ...string) error {
	if err := prepare(db, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir, targetVersion string) error {
	if err := prepare(db, dir); err != nil {
		return err
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil || target <= 0 {
		return fmt.Errorf("target version %q must be a YYYYMMDDHHMMSS timestamp", targetVersion)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, dir, target)
	case current > target:
		err = goose.DownToContext(ctx, db, dir, target)
	}
	if err != nil {
		return fmt.Errorf("migrate %d to %d: %w", current, target, err)
	}
	return nil
}
