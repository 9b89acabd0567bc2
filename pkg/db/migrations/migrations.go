// Package migrations contains all database migrations for the skill catalog.
// Migrations use Rails-style timestamp versioning (YYYYMMDDHHmmss).
package migrations

import (
	"github.com/skillet-cli/skillet/pkg/db"
)

// All returns all registered migrations in the correct order.
// New migrations should be added to this list.
func All() []db.Migration {
	return []db.Migration{
		Migration20260512100000CreateDocuments(),
		Migration20260512100001CreateLintHistory(),
		Migration20260520143000AddCatalogIndexes(),
	}
}
