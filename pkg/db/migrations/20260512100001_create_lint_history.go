package migrations

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/skillet-cli/skillet/pkg/db"
)

// Migration20260512100001CreateLintHistory creates lint_runs and lint_findings tables.
func Migration20260512100001CreateLintHistory() db.Migration {
	return db.Migration{
		Version:     20260512100001,
		Description: "Create lint_runs and lint_findings tables",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS lint_runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					checked INTEGER NOT NULL DEFAULT 0,
					errors INTEGER NOT NULL DEFAULT 0,
					warnings INTEGER NOT NULL DEFAULT 0
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create lint_runs table")
			}

			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS lint_findings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL REFERENCES lint_runs(id) ON DELETE CASCADE,
					rule TEXT NOT NULL,
					severity TEXT NOT NULL,
					path TEXT NOT NULL,
					line INTEGER NOT NULL DEFAULT 0,
					message TEXT NOT NULL
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create lint_findings table")
			}

			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP TABLE IF EXISTS lint_findings"); err != nil {
				return errors.Wrap(err, "failed to drop lint_findings table")
			}
			if _, err := tx.Exec("DROP TABLE IF EXISTS lint_runs"); err != nil {
				return errors.Wrap(err, "failed to drop lint_runs table")
			}
			return nil
		},
	}
}
