package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/logger"
)

// Sync reconciles the catalog with the parsed library: new documents are
// inserted, drifted documents (checksum change) are updated, and rows for
// documents no longer on disk are removed. Unparseable files are left out
// of the catalog entirely.
func (s *Store) Sync(ctx context.Context, lib *corpus.Library) (SyncResult, error) {
	var result SyncResult

	existing, err := s.checksumsByPath(ctx)
	if err != nil {
		return result, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now()
	seen := make(map[string]bool, len(lib.Files))

	for _, f := range lib.Files {
		if f.Err != nil || f.Doc == nil {
			continue
		}
		seen[f.RelPath] = true

		checksum, known := existing[f.RelPath]
		if known && checksum == f.Doc.Checksum {
			result.Unchanged++
			continue
		}

		record := fromDocument(f.RelPath, f.Doc, now)
		query := `
			INSERT INTO documents (
				path, category, slug, name, description, license, author,
				version, checksum, size, modified_at, synced_at
			) VALUES (
				:path, :category, :slug, :name, :description, :license, :author,
				:version, :checksum, :size, :modified_at, :synced_at
			)
			ON CONFLICT(path) DO UPDATE SET
				category = excluded.category,
				slug = excluded.slug,
				name = excluded.name,
				description = excluded.description,
				license = excluded.license,
				author = excluded.author,
				version = excluded.version,
				checksum = excluded.checksum,
				size = excluded.size,
				modified_at = excluded.modified_at,
				synced_at = excluded.synced_at
		`
		if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
			return result, errors.Wrapf(err, "failed to upsert document %s", f.RelPath)
		}

		if known {
			result.Updated++
		} else {
			result.Inserted++
		}
	}

	for path := range existing {
		if seen[path] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path); err != nil {
			return result, errors.Wrapf(err, "failed to remove document %s", path)
		}
		result.Removed++
	}

	if err := tx.Commit(); err != nil {
		return result, errors.Wrap(err, "failed to commit sync")
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"inserted":  result.Inserted,
		"updated":   result.Updated,
		"unchanged": result.Unchanged,
		"removed":   result.Removed,
	}).Debug("catalog synced")

	return result, nil
}

// Stale returns the library-relative paths of documents that are missing
// from the catalog or whose checksum no longer matches the catalogued one.
// Parse failures are reported as stale so a later sync revisits them.
func (s *Store) Stale(ctx context.Context, lib *corpus.Library) ([]string, error) {
	existing, err := s.checksumsByPath(ctx)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, f := range lib.Files {
		if f.Err != nil || f.Doc == nil {
			stale = append(stale, f.RelPath)
			continue
		}
		if existing[f.RelPath] != f.Doc.Checksum {
			stale = append(stale, f.RelPath)
		}
	}
	return stale, nil
}

func (s *Store) checksumsByPath(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		Path     string `db:"path"`
		Checksum string `db:"checksum"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, "SELECT path, checksum FROM documents"); err != nil {
		return nil, errors.Wrap(err, "failed to load catalogued checksums")
	}

	checksums := make(map[string]string, len(rows))
	for _, row := range rows {
		checksums[row.Path] = row.Checksum
	}
	return checksums, nil
}
