// Package importer converts existing HTML guides into skill document
// skeletons. Conversion is local-file only: skillet never fetches over the
// network.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// Request describes one HTML import
type Request struct {
	// SourcePath is the local HTML file to convert
	SourcePath string

	// Category places the generated document under the library root
	Category string

	// Name overrides the slug derived from the source file name
	Name string

	// Description fills the front matter; derived from the first heading
	// when empty
	Description string
	License     string
	Author      string
}

// Result is the generated document before it is written to disk
type Result struct {
	Document *skilldoc.Document
	Content  string
	Slug     string
}

// Import converts the HTML file into a parsed skill document. The caller
// decides where (and whether) to write it.
func Import(req Request) (*Result, error) {
	raw, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source file")
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert HTML to Markdown")
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, errors.Errorf("no convertible content in %s", req.SourcePath)
	}

	slug := req.Name
	if slug == "" {
		slug = Slugify(strings.TrimSuffix(filepath.Base(req.SourcePath), filepath.Ext(req.SourcePath)))
	}
	if !skilldoc.ValidName(slug) {
		return nil, errors.Errorf("derived name %q is not a valid skill name, pass one explicitly", slug)
	}

	title, body := splitLeadingTitle(markdown)

	description := req.Description
	if description == "" && title != "" {
		description = title
	}
	if description == "" {
		description = "Imported from " + filepath.Base(req.SourcePath)
	}

	manifest := skilldoc.Manifest{
		Name:        slug,
		Description: description,
		License:     req.License,
		Metadata:    map[string]string{"version": "0.1.0"},
	}
	if req.Author != "" {
		manifest.Metadata["author"] = req.Author
	}

	frontMatter, err := manifest.Encode()
	if err != nil {
		return nil, err
	}

	heading := title
	if heading == "" {
		heading = titleFromSlug(slug)
	}

	content := fmt.Sprintf("%s\n# %s\n\n%s\n", frontMatter, heading, body)

	doc, err := skilldoc.Parse([]byte(content))
	if err != nil {
		return nil, errors.Wrap(err, "generated document failed to parse")
	}
	doc.Category = req.Category
	doc.Slug = slug

	return &Result{Document: doc, Content: content, Slug: slug}, nil
}

// TargetPath returns where the imported document belongs under root
func (r *Result) TargetPath(root, category string) string {
	return filepath.Join(root, filepath.FromSlash(category), r.Slug+".md")
}

// Write persists the generated document, refusing to overwrite
func (r *Result) Write(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("skill already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create skill directory")
	}
	if err := os.WriteFile(path, []byte(r.Content), 0o644); err != nil {
		return errors.Wrap(err, "failed to write skill document")
	}
	return nil
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphens  = regexp.MustCompile(`-+`)
	leadingTitle = regexp.MustCompile(`^#\s+(.+)\n+`)
)

// Slugify lowercases and strips a free-form name into kebab-case
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > skilldoc.MaxNameLength {
		slug = strings.Trim(slug[:skilldoc.MaxNameLength], "-")
	}
	return slug
}

// splitLeadingTitle peels a leading H1 off the converted markdown so it can
// seed the description instead of duplicating the generated heading.
func splitLeadingTitle(markdown string) (title, rest string) {
	match := leadingTitle.FindStringSubmatch(markdown)
	if match == nil {
		return "", markdown
	}
	return strings.TrimSpace(match[1]), strings.TrimPrefix(markdown, match[0])
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
