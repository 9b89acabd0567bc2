package migrations

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/skillet-cli/skillet/pkg/db"
)

// Migration20260512100000CreateDocuments creates the documents table that
// mirrors the front matter and file identity of every skill in the library.
func Migration20260512100000CreateDocuments() db.Migration {
	return db.Migration{
		Version:     20260512100000,
		Description: "Create documents table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS documents (
					path TEXT PRIMARY KEY,
					category TEXT NOT NULL,
					slug TEXT NOT NULL,
					name TEXT NOT NULL,
					description TEXT NOT NULL,
					license TEXT,
					author TEXT,
					version TEXT,
					checksum TEXT NOT NULL,
					size INTEGER NOT NULL,
					modified_at DATETIME,
					synced_at DATETIME NOT NULL
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create documents table")
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP TABLE IF EXISTS documents"); err != nil {
				return errors.Wrap(err, "failed to drop documents table")
			}
			return nil
		},
	}
}
