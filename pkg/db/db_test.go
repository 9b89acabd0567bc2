package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, VerifyConfiguration(db))
}

func TestOpen_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
}

func TestBasePath(t *testing.T) {
	t.Run("with SKILLET_BASE_PATH", func(t *testing.T) {
		t.Setenv("SKILLET_BASE_PATH", "/custom/path")
		base, err := BasePath()
		require.NoError(t, err)
		assert.Equal(t, "/custom/path", base)
	})

	t.Run("without SKILLET_BASE_PATH", func(t *testing.T) {
		t.Setenv("SKILLET_BASE_PATH", "")
		base, err := BasePath()
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".skillet"), base)
	})
}

func TestLibraryID(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	idA, err := LibraryID(rootA)
	require.NoError(t, err)
	assert.Len(t, idA, 12)

	// Stable for the same root, regardless of how the path is spelled
	again, err := LibraryID(filepath.Join(rootA, ".", "."))
	require.NoError(t, err)
	assert.Equal(t, idA, again)

	idB, err := LibraryID(rootB)
	require.NoError(t, err)
	assert.NotEqual(t, idA, idB)
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("SKILLET_BASE_PATH", "/custom/path")

	rootA := t.TempDir()
	rootB := t.TempDir()

	pathA, err := DefaultDBPath(rootA)
	require.NoError(t, err)
	idA, err := LibraryID(rootA)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/path", "catalog", idA+".db"), pathA)

	// Different library roots never share a database file
	pathB, err := DefaultDBPath(rootB)
	require.NoError(t, err)
	assert.NotEqual(t, pathA, pathB)
}

func TestVerifyConfiguration(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	err = VerifyConfiguration(db)
	require.NoError(t, err)
}

func TestMigrationRunner(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{
		{
			Version:     20240101000001,
			Description: "Create test table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE test_table (id INTEGER PRIMARY KEY)")
				return err
			},
		},
		{
			Version:     20240101000002,
			Description: "Add column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE test_table ADD COLUMN name TEXT")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	err = runner.Run(context.Background(), migrations)
	require.NoError(t, err)

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='test_table'
	`).Scan(&tableExists)
	require.NoError(t, err)
	assert.True(t, tableExists)

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20240101000001, 20240101000002}, versions)
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{
		{
			Version:     20240101000001,
			Description: "Create test table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE test_table (id INTEGER PRIMARY KEY)")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)

	err = runner.Run(context.Background(), migrations)
	require.NoError(t, err)

	err = runner.Run(context.Background(), migrations)
	require.NoError(t, err)

	var count int
	err = db.Get(&count, "SELECT COUNT(*) FROM schema_migrations")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrationRunner_OutOfOrder(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	// Add migrations out of order - runner should sort by timestamp
	migrations := []Migration{
		{
			Version:     20240101000002,
			Description: "Second migration",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE test_table ADD COLUMN name TEXT")
				return err
			},
		},
		{
			Version:     20240101000001,
			Description: "First migration",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE test_table (id INTEGER PRIMARY KEY)")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	err = runner.Run(context.Background(), migrations)
	require.NoError(t, err)

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20240101000001, 20240101000002}, versions)
}

func TestMigrationRunner_Rollback(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{
		{
			Version:     20240101000001,
			Description: "Create test table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE test_table (id INTEGER PRIMARY KEY)")
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec("DROP TABLE test_table")
				return err
			},
		},
	}

	runner := NewMigrationRunner(db)
	err = runner.Run(context.Background(), migrations)
	require.NoError(t, err)

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='test_table'
	`).Scan(&tableExists)
	require.NoError(t, err)
	assert.True(t, tableExists)

	err = runner.Rollback(context.Background(), migrations)
	require.NoError(t, err)

	err = db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master
		WHERE type='table' AND name='test_table'
	`).Scan(&tableExists)
	require.NoError(t, err)
	assert.False(t, tableExists)

	versions, err := runner.GetAppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, versions)
}
