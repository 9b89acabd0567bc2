// Package scaffold creates well-formed skill document skeletons for
// `skillet new`. The body template is embedded so a fresh checkout can
// scaffold without any library present.
package scaffold

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

//go:embed template.md
var bodyTemplate string

// Request describes the skill document to scaffold
type Request struct {
	// Category and Slug locate the document under the library root.
	// Slug must be a valid kebab-case skill name.
	Category string
	Slug     string

	// Description fills the front matter; a placeholder is used when empty
	Description string
	License     string
	Author      string
	Version     string

	// DirForm writes <category>/<slug>/SKILL.md instead of
	// <category>/<slug>.md
	DirForm bool
}

// Result reports what was written
type Result struct {
	Path string
	Key  string
}

// Validate checks the request before any file is touched
func (r *Request) Validate() error {
	if r.Slug == "" {
		return errors.New("slug is required")
	}
	if !skilldoc.ValidName(r.Slug) {
		return errors.Errorf("slug %q must be lowercase kebab-case of at most %d characters", r.Slug, skilldoc.MaxNameLength)
	}
	if strings.Contains(r.Category, "..") {
		return errors.Errorf("invalid category %q", r.Category)
	}
	return nil
}

// Create writes the scaffolded document under root. It refuses to
// overwrite an existing document in either layout.
func Create(root string, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fileForm := filepath.Join(root, filepath.FromSlash(req.Category), req.Slug+".md")
	dirForm := filepath.Join(root, filepath.FromSlash(req.Category), req.Slug, "SKILL.md")
	for _, existing := range []string{fileForm, dirForm} {
		if _, err := os.Stat(existing); err == nil {
			return nil, errors.Errorf("skill already exists at %s", existing)
		}
	}

	target := fileForm
	if req.DirForm {
		target = dirForm
	}

	content, err := renderDocument(req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create skill directory")
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write skill document")
	}

	key := req.Slug
	if req.Category != "" {
		key = req.Category + "/" + req.Slug
	}

	return &Result{Path: target, Key: key}, nil
}

func renderDocument(req Request) (string, error) {
	description := req.Description
	if description == "" {
		description = "Describe what this skill helps an agent accomplish"
	}
	version := req.Version
	if version == "" {
		version = "0.1.0"
	}

	manifest := skilldoc.Manifest{
		Name:        req.Slug,
		Description: description,
		License:     req.License,
		Metadata:    map[string]string{"version": version},
	}
	if req.Author != "" {
		manifest.Metadata["author"] = req.Author
	}

	frontMatter, err := manifest.Encode()
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("skill").Parse(bodyTemplate)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse scaffold template")
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"Title":       titleCase(req.Slug),
		"Description": description,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render scaffold template")
	}

	return frontMatter + "\n" + buf.String(), nil
}

// titleCase turns a kebab-case slug into a heading title
func titleCase(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
