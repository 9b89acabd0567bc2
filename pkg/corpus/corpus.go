// Package corpus loads skill libraries from disk. A library is a directory
// whose immediate subdirectories are topical categories, each holding skill
// documents either as <category>/<slug>.md files or as
// <category>/<slug>/SKILL.md directories. Documents are independent
// artifacts; the loader surfaces parse failures alongside parsed documents
// so that linting can report them instead of silently dropping files.
package corpus

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

const skillFileName = "SKILL.md"

// File is one candidate skill document found in a library. Exactly one of
// Doc and Err is set.
type File struct {
	// Path is the file path as discovered
	Path string
	// RelPath is the library-root-relative path, slash-separated
	RelPath string
	Doc     *skilldoc.Document
	Err     error
}

// Library is a loaded skill library
type Library struct {
	Root  string
	Files []File
}

// Documents returns the successfully parsed documents in walk order
func (l *Library) Documents() []*skilldoc.Document {
	docs := make([]*skilldoc.Document, 0, len(l.Files))
	for _, f := range l.Files {
		if f.Doc != nil {
			docs = append(docs, f.Doc)
		}
	}
	return docs
}

// Failed returns the files that could not be parsed
func (l *Library) Failed() []File {
	var failed []File
	for _, f := range l.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Categories returns category names with their document counts, sorted by
// name. Parse failures count toward their category as well.
func (l *Library) Categories() []Category {
	counts := make(map[string]int)
	for _, f := range l.Files {
		category, _ := Locate(f.RelPath)
		counts[category]++
	}

	categories := make([]Category, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, Category{Name: name, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories
}

// Category is a library subdirectory with its document count
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Scanner walks a library root collecting candidate skill documents
type Scanner struct {
	root           string
	ignoreDirs     []string
	ignorePatterns []string
	includePattern string
}

// Option is a function that configures a Scanner
type Option func(*Scanner) error

// WithIgnoreDirs sets directory names that are skipped entirely
func WithIgnoreDirs(dirs ...string) Option {
	return func(s *Scanner) error {
		s.ignoreDirs = dirs
		return nil
	}
}

// WithIgnorePatterns sets doublestar patterns matched against
// root-relative file paths; matching files are skipped
func WithIgnorePatterns(patterns ...string) Option {
	return func(s *Scanner) error {
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("invalid ignore pattern %q", pattern)
			}
		}
		s.ignorePatterns = patterns
		return nil
	}
}

// WithIncludePattern restricts scanning to files whose root-relative path
// matches the doublestar pattern
func WithIncludePattern(pattern string) Option {
	return func(s *Scanner) error {
		if pattern != "" && !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid include pattern %q", pattern)
		}
		s.includePattern = pattern
		return nil
	}
}

// NewScanner creates a scanner for the given library root
func NewScanner(root string, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		root:       root,
		ignoreDirs: []string{".git", "node_modules"},
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Scan returns the candidate skill document paths under the root
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.G(ctx).WithError(err).WithField("path", p).Debug("skipping unreadable entry")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") || s.ignoredDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(name), ".md") {
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.EqualFold(name, "README.md") {
			return nil
		}
		if s.ignoredPath(rel) {
			return nil
		}
		if s.includePattern != "" {
			if ok, _ := doublestar.Match(s.includePattern, rel); !ok {
				return nil
			}
		}

		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan library %s", s.root)
	}

	return paths, nil
}

// Load scans the root and parses every candidate into a File
func (s *Scanner) Load(ctx context.Context) (*Library, error) {
	paths, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	library := &Library{Root: s.root}
	for _, p := range paths {
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", p)
		}
		rel = filepath.ToSlash(rel)

		file := File{Path: p, RelPath: rel}
		doc, parseErr := skilldoc.ParseFile(p)
		if parseErr != nil {
			file.Err = errors.Wrapf(parseErr, "failed to parse %s", rel)
			logger.G(ctx).WithError(parseErr).WithField("path", rel).Debug("skill document failed to parse")
		} else {
			doc.Category, doc.Slug = Locate(rel)
			if doc.Slug == "" {
				// SKILL.md sitting at the library root has no directory
				// to take a slug from; fall back to the declared name
				doc.Slug = doc.Manifest.Name
			}
			file.Doc = doc
		}
		library.Files = append(library.Files, file)
	}

	return library, nil
}

// Load loads the library at root with default scanner settings
func Load(ctx context.Context, root string) (*Library, error) {
	scanner, err := NewScanner(root)
	if err != nil {
		return nil, err
	}
	return scanner.Load(ctx)
}

// Locate derives the category and slug of a document from its
// root-relative path. Directory-form documents (<dir>/SKILL.md) take their
// slug from the directory name; file-form documents take it from the file
// stem. The category is the remaining parent path, empty for documents at
// the library root.
func Locate(relPath string) (category, slug string) {
	relPath = filepath.ToSlash(relPath)
	dir, base := path.Split(relPath)
	dir = strings.TrimSuffix(dir, "/")

	if strings.EqualFold(base, skillFileName) {
		if dir == "" {
			return "", ""
		}
		parent, dirName := path.Split(dir)
		return strings.TrimSuffix(parent, "/"), dirName
	}

	return dir, strings.TrimSuffix(base, path.Ext(base))
}

func (s *Scanner) ignoredDir(name string) bool {
	for _, dir := range s.ignoreDirs {
		if name == dir {
			return true
		}
	}
	return false
}

func (s *Scanner) ignoredPath(rel string) bool {
	for _, pattern := range s.ignorePatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
