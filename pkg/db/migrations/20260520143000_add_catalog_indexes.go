package migrations

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/skillet-cli/skillet/pkg/db"
)

// Migration20260520143000AddCatalogIndexes adds lookup indexes for documents and lint history.
func Migration20260520143000AddCatalogIndexes() db.Migration {
	return db.Migration{
		Version:     20260520143000,
		Description: "Add lookup indexes for documents and lint history",
		Up: func(tx *sql.Tx) error {
			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category)",
				"CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name)",
				"CREATE INDEX IF NOT EXISTS idx_documents_checksum ON documents(checksum)",
				"CREATE INDEX IF NOT EXISTS idx_lint_runs_started_at ON lint_runs(started_at DESC)",
				"CREATE INDEX IF NOT EXISTS idx_lint_findings_run_id ON lint_findings(run_id)",
				"CREATE INDEX IF NOT EXISTS idx_lint_findings_rule ON lint_findings(rule)",
			}

			for _, idx := range indexes {
				if _, err := tx.Exec(idx); err != nil {
					return errors.Wrap(err, "failed to create index")
				}
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			dropIndexes := []string{
				"DROP INDEX IF EXISTS idx_lint_findings_rule",
				"DROP INDEX IF EXISTS idx_lint_findings_run_id",
				"DROP INDEX IF EXISTS idx_lint_runs_started_at",
				"DROP INDEX IF EXISTS idx_documents_checksum",
				"DROP INDEX IF EXISTS idx_documents_name",
				"DROP INDEX IF EXISTS idx_documents_category",
			}

			for _, drop := range dropIndexes {
				if _, err := tx.Exec(drop); err != nil {
					return errors.Wrap(err, "failed to drop index")
				}
			}
			return nil
		},
	}
}
