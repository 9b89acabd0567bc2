package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Get retrieves one catalogued document by its library-relative path.
func (s *Store) Get(ctx context.Context, path string) (Record, error) {
	var row dbRecord
	query := `SELECT path, category, slug, name, description, license, author,
		version, checksum, size, modified_at, synced_at
		FROM documents WHERE path = ?`
	if err := s.db.GetContext(ctx, &row, query, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, errors.Errorf("document not found: %s", path)
		}
		return Record{}, errors.Wrap(err, "failed to load document")
	}
	return row.toRecord(), nil
}

// List returns catalogued documents with filtering, sorting, and pagination.
func (s *Store) List(ctx context.Context, options ListOptions) (ListResult, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if options.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = options.Category
	}

	if options.SearchTerm != "" {
		searchPattern := "%" + strings.ToLower(options.SearchTerm) + "%"
		conditions = append(conditions, "(LOWER(name) LIKE :search_term OR LOWER(description) LIKE :search_term)")
		args["search_term"] = searchPattern
	}

	sortBy := "name"
	switch options.SortBy {
	case "category":
		sortBy = "category"
	case "size":
		sortBy = "size"
	case "syncedAt":
		sortBy = "synced_at"
	}

	sortOrder := "ASC"
	if options.SortOrder == "desc" {
		sortOrder = "DESC"
	}

	baseQuery := `SELECT path, category, slug, name, description, license, author,
		version, checksum, size, modified_at, synced_at FROM documents`
	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY " + sortBy + " " + sortOrder + ", path ASC"

	if options.Limit > 0 {
		baseQuery += " LIMIT :limit"
		args["limit"] = options.Limit

		if options.Offset > 0 {
			baseQuery += " OFFSET :offset"
			args["offset"] = options.Offset
		}
	}

	var rows []dbRecord
	finalQuery, argsSlice, err := sqlx.Named(baseQuery, args)
	if err != nil {
		return ListResult{}, errors.Wrap(err, "failed to build named query")
	}

	finalQuery = s.db.Rebind(finalQuery)
	if err := s.db.SelectContext(ctx, &rows, finalQuery, argsSlice...); err != nil {
		return ListResult{}, errors.Wrap(err, "failed to list documents")
	}

	records := make([]Record, len(rows))
	for i := range rows {
		records[i] = rows[i].toRecord()
	}

	countQuery := "SELECT COUNT(*) FROM documents"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	countArgs := make(map[string]interface{})
	for k, v := range args {
		if k != "limit" && k != "offset" {
			countArgs[k] = v
		}
	}

	var total int
	finalCountQuery, countArgsSlice, err := sqlx.Named(countQuery, countArgs)
	if err != nil {
		return ListResult{}, errors.Wrap(err, "failed to build named count query")
	}

	finalCountQuery = s.db.Rebind(finalCountQuery)
	if err := s.db.GetContext(ctx, &total, finalCountQuery, countArgsSlice...); err != nil {
		return ListResult{}, errors.Wrap(err, "failed to count documents")
	}

	return ListResult{
		Records:     records,
		Total:       total,
		ListOptions: options,
	}, nil
}

// CategoryCounts returns per-category document counts sorted by category.
func (s *Store) CategoryCounts(ctx context.Context) ([]ValueCount, error) {
	return s.valueCounts(ctx, `
		SELECT category AS value, COUNT(*) AS count
		FROM documents GROUP BY category ORDER BY category
	`, "failed to count categories")
}

// LicenseCounts returns per-license document counts, most common first.
// Documents without a license are bucketed under the empty string.
func (s *Store) LicenseCounts(ctx context.Context) ([]ValueCount, error) {
	return s.valueCounts(ctx, `
		SELECT COALESCE(license, '') AS value, COUNT(*) AS count
		FROM documents GROUP BY license ORDER BY count DESC, value ASC
	`, "failed to count licenses")
}

// AuthorCounts returns per-author document counts, most prolific first.
func (s *Store) AuthorCounts(ctx context.Context) ([]ValueCount, error) {
	return s.valueCounts(ctx, `
		SELECT COALESCE(author, '') AS value, COUNT(*) AS count
		FROM documents GROUP BY author ORDER BY count DESC, value ASC
	`, "failed to count authors")
}

// Count returns the number of catalogued documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents"); err != nil {
		return 0, errors.Wrap(err, "failed to count documents")
	}
	return total, nil
}

func (s *Store) valueCounts(ctx context.Context, query, errMsg string) ([]ValueCount, error) {
	rows := []struct {
		Value string `db:"value"`
		Count int    `db:"count"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	counts := make([]ValueCount, len(rows))
	for i, row := range rows {
		counts[i] = ValueCount{Value: row.Value, Count: row.Count}
	}
	return counts, nil
}
