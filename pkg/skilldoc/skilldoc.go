// Package skilldoc defines the skill document model and its Markdown
// representation. A skill document is a Markdown file with YAML front matter
// (name, description, license, metadata) followed by prose sections that
// describe how to perform a task. Parsing, section extraction, and canonical
// front matter encoding live here; corpus walking, linting, and indexing are
// built on top of this package.
package skilldoc

import (
	"regexp"
	"strings"
	"time"
)

const (
	// MaxNameLength is the maximum length of a skill name
	MaxNameLength = 64
	// MaxDescriptionLength is the maximum length of a skill description
	MaxDescriptionLength = 1024
)

// namePattern matches lowercase kebab-case skill names
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidName reports whether name is lowercase kebab-case and within the
// length limit.
func ValidName(name string) bool {
	return name != "" && len(name) <= MaxNameLength && namePattern.MatchString(name)
}

// Manifest is the YAML front matter of a skill document. Unrecognized
// top-level keys are preserved in Extra so that reformatting round-trips
// documents written with looser conventions.
type Manifest struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description" json:"description"`
	License     string                 `yaml:"license,omitempty" json:"license,omitempty"`
	Metadata    map[string]string      `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Extra       map[string]interface{} `yaml:"-" json:"extra,omitempty"`
}

// Author returns the metadata author, if any
func (m *Manifest) Author() string {
	return m.Metadata["author"]
}

// Version returns the metadata version, if any
func (m *Manifest) Version() string {
	return m.Metadata["version"]
}

// Section is a heading in the document body together with the raw Markdown
// between it and the next heading of the same or higher level.
type Section struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Line    int    `json:"line"`
	Content string `json:"content,omitempty"`
}

// IsEmpty reports whether the section has no content below its heading
func (s Section) IsEmpty() bool {
	return strings.TrimSpace(s.Content) == ""
}

// Document is a parsed skill document
type Document struct {
	Manifest `json:"manifest"`

	// Body is the Markdown after the front matter
	Body string `json:"-"`

	// Sections are the body headings in document order
	Sections []Section `json:"sections,omitempty"`

	// HasFencedCode reports whether the body contains a fenced code block
	HasFencedCode bool `json:"-"`

	// Location fields, populated by ParseFile and the corpus loader
	Path     string    `json:"path,omitempty"`
	Category string    `json:"category,omitempty"`
	Slug     string    `json:"slug,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
	Size     int64     `json:"size,omitempty"`
	ModTime  time.Time `json:"modTime,omitempty"`
}

// Key returns the unique identifier of the document within a library,
// "category/slug". Documents outside a category directory are keyed by
// slug alone.
func (d *Document) Key() string {
	if d.Category == "" {
		return d.Slug
	}
	return d.Category + "/" + d.Slug
}

// SectionsAtLevel returns the sections with the given heading level,
// in document order.
func (d *Document) SectionsAtLevel(level int) []Section {
	var sections []Section
	for _, s := range d.Sections {
		if s.Level == level {
			sections = append(sections, s)
		}
	}
	return sections
}

// FindSection returns the first section whose title matches,
// case-insensitively, or nil.
func (d *Document) FindSection(title string) *Section {
	for i := range d.Sections {
		if strings.EqualFold(d.Sections[i].Title, title) {
			return &d.Sections[i]
		}
	}
	return nil
}
