// Package catalog persists a queryable snapshot of the skill library in
// SQLite. The library on disk remains the source of truth; the catalog
// exists so the CLI and server can answer list, breakdown and history
// questions without re-parsing every document.
package catalog

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/db"
	"github.com/skillet-cli/skillet/pkg/db/migrations"
)

// Store wraps the catalog database.
type Store struct {
	dbPath string
	db     *sqlx.DB
}

// Open opens or creates the catalog database at the given path and runs
// any pending migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	runner := db.NewMigrationRunner(sqlDB)
	if err := runner.Run(ctx, migrations.All()); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to run catalog migrations")
	}

	return &Store{dbPath: dbPath, db: sqlDB}, nil
}

// OpenDefault opens the catalog for the given library root at its default
// location under the skillet base path. Each library root gets its own
// database file so catalogs never bleed into each other.
func OpenDefault(ctx context.Context, root string) (*Store, error) {
	dbPath, err := db.DefaultDBPath(root)
	if err != nil {
		return nil, err
	}
	return Open(ctx, dbPath)
}

// Path returns the location of the underlying database file.
func (s *Store) Path() string {
	return s.dbPath
}

// Verify checks that the underlying database carries the expected
// WAL configuration.
func (s *Store) Verify() error {
	return db.VerifyConfiguration(s.db)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
