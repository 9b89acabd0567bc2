package catalog

import (
	"time"

	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// Record is one catalogued skill document.
type Record struct {
	Path        string    `json:"path"`
	Category    string    `json:"category"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	License     string    `json:"license,omitempty"`
	Author      string    `json:"author,omitempty"`
	Version     string    `json:"version,omitempty"`
	Checksum    string    `json:"checksum"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	SyncedAt    time.Time `json:"syncedAt"`
}

// Key returns the category-qualified lookup key of the record.
func (r Record) Key() string {
	if r.Category == "" {
		return r.Slug
	}
	return r.Category + "/" + r.Slug
}

// SyncResult summarises one catalog sync against the library on disk.
type SyncResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// ListOptions filters and paginates catalog listings.
type ListOptions struct {
	Category   string
	SearchTerm string
	SortBy     string // "name", "category", "size", "syncedAt"
	SortOrder  string // "asc" or "desc"
	Limit      int
	Offset     int
}

// ListResult carries one page of records plus the unpaginated total.
type ListResult struct {
	Records []Record
	Total   int
	ListOptions
}

// ValueCount is one bucket of a license or author breakdown.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// LintRun records the outcome of one lint pass over the library.
type LintRun struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Checked     int       `json:"checked"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
}

// dbRecord mirrors the documents table.
type dbRecord struct {
	Path        string    `db:"path"`
	Category    string    `db:"category"`
	Slug        string    `db:"slug"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	License     *string   `db:"license"`
	Author      *string   `db:"author"`
	Version     *string   `db:"version"`
	Checksum    string    `db:"checksum"`
	Size        int64     `db:"size"`
	ModifiedAt  time.Time `db:"modified_at"`
	SyncedAt    time.Time `db:"synced_at"`
}

// dbLintRun mirrors the lint_runs table.
type dbLintRun struct {
	ID          string    `db:"id"`
	StartedAt   time.Time `db:"started_at"`
	CompletedAt time.Time `db:"completed_at"`
	Checked     int       `db:"checked"`
	Errors      int       `db:"errors"`
	Warnings    int       `db:"warnings"`
}

// dbLintFinding mirrors the lint_findings table.
type dbLintFinding struct {
	ID       int64  `db:"id"`
	RunID    string `db:"run_id"`
	Rule     string `db:"rule"`
	Severity string `db:"severity"`
	Path     string `db:"path"`
	Line     int    `db:"line"`
	Message  string `db:"message"`
}

func (r *dbRecord) toRecord() Record {
	record := Record{
		Path:        r.Path,
		Category:    r.Category,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Checksum:    r.Checksum,
		Size:        r.Size,
		ModifiedAt:  r.ModifiedAt,
		SyncedAt:    r.SyncedAt,
	}
	if r.License != nil {
		record.License = *r.License
	}
	if r.Author != nil {
		record.Author = *r.Author
	}
	if r.Version != nil {
		record.Version = *r.Version
	}
	return record
}

func (r *dbLintRun) toLintRun() LintRun {
	return LintRun{
		ID:          r.ID,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Checked:     r.Checked,
		Errors:      r.Errors,
		Warnings:    r.Warnings,
	}
}

func (f *dbLintFinding) toFinding() lint.Finding {
	return lint.Finding{
		Rule:     f.Rule,
		Severity: lint.Severity(f.Severity),
		Path:     f.Path,
		Line:     f.Line,
		Message:  f.Message,
	}
}

func fromDocument(relPath string, doc *skilldoc.Document, syncedAt time.Time) *dbRecord {
	record := &dbRecord{
		Path:        relPath,
		Category:    doc.Category,
		Slug:        doc.Slug,
		Name:        doc.Name,
		Description: doc.Description,
		Checksum:    doc.Checksum,
		Size:        doc.Size,
		ModifiedAt:  doc.ModTime,
		SyncedAt:    syncedAt,
	}
	if doc.License != "" {
		record.License = &doc.License
	}
	if author := doc.Author(); author != "" {
		record.Author = &author
	}
	if version := doc.Version(); version != "" {
		record.Version = &version
	}
	return record
}
