// Package search provides full-text search over the skill library backed
// by a Bleve index. The index lives on disk under the skillet base path
// and is synced incrementally by checksum, so only changed documents are
// reindexed.
package search

import (
	"time"

	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// ErrIndexClosed indicates an operation was attempted on a closed index.
var ErrIndexClosed = errors.New("index is closed")

// Document is the indexed representation of one skill. The document id is
// the library-relative path.
type Document struct {
	Key         string    `json:"key"`
	Path        string    `json:"path"`
	Category    string    `json:"category"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	License     string    `json:"license"`
	Author      string    `json:"author"`
	Sections    []string  `json:"sections"`
	Body        string    `json:"body"`
	Checksum    string    `json:"checksum"`
	ModifiedAt  time.Time `json:"modified_at"`
	IndexedAt   time.Time `json:"indexed_at"`
}

func fromSkillDocument(relPath string, doc *skilldoc.Document, indexedAt time.Time) *Document {
	sections := make([]string, 0, len(doc.Sections))
	for _, section := range doc.Sections {
		sections = append(sections, section.Title)
	}

	return &Document{
		Key:         doc.Key(),
		Path:        relPath,
		Category:    doc.Category,
		Slug:        doc.Slug,
		Name:        doc.Name,
		Description: doc.Description,
		License:     doc.License,
		Author:      doc.Author(),
		Sections:    sections,
		Body:        doc.Body,
		Checksum:    doc.Checksum,
		ModifiedAt:  doc.ModTime,
		IndexedAt:   indexedAt,
	}
}

// Query describes one search over the index.
type Query struct {
	// Text is matched against name, description, section titles and body.
	// An empty text matches everything (useful with a category filter).
	Text string

	// Category restricts hits to one category when set.
	Category string

	// Fuzziness is the edit distance applied to term matching. Zero means
	// exact matching.
	Fuzziness int

	// Highlight requests ANSI-highlighted fragments in the hits.
	Highlight bool

	Limit  int
	Offset int
}

// DefaultLimit caps result pages when a query does not set one.
const DefaultLimit = 10

// Hit is one scored search result.
type Hit struct {
	Key         string              `json:"key"`
	Path        string              `json:"path"`
	Category    string              `json:"category"`
	Slug        string              `json:"slug"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Score       float64             `json:"score"`
	Fragments   map[string][]string `json:"fragments,omitempty"`
}

// CategoryCount is one bucket of the category facet.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Result carries one page of hits plus the category distribution of the
// full match set.
type Result struct {
	Hits       []Hit           `json:"hits"`
	Total      int64           `json:"total"`
	Categories []CategoryCount `json:"categories,omitempty"`
	Took       time.Duration   `json:"took"`
}
