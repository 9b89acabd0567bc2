package skilldoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `---
name: api-error-triage
description: Diagnose and categorize API integration failures
license: Apache-2.0
metadata:
  author: example-team
  version: 1.2.0
compatibility: any
---

# API Error Triage

Intro paragraph.

## Workflow

1. Reproduce the failing call
2. Classify the failure

## Examples

Run the probe:

` + "```bash\ncurl -i https://api.example.com/health\n```" + `

## Edge Cases

Rate limits can masquerade as auth failures.
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "api-error-triage", doc.Manifest.Name)
	assert.Equal(t, "Diagnose and categorize API integration failures", doc.Manifest.Description)
	assert.Equal(t, "Apache-2.0", doc.Manifest.License)
	assert.Equal(t, "example-team", doc.Manifest.Author())
	assert.Equal(t, "1.2.0", doc.Manifest.Version())
	assert.Equal(t, "any", doc.Manifest.Extra["compatibility"])

	assert.True(t, doc.HasFencedCode)
	assert.Contains(t, doc.Body, "# API Error Triage")
	assert.NotContains(t, doc.Body, "name: api-error-triage")
}

func TestParse_Sections(t *testing.T) {
	doc, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	titles := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"API Error Triage", "Workflow", "Examples", "Edge Cases"}, titles)

	workflow := doc.FindSection("workflow")
	require.NotNil(t, workflow)
	assert.Equal(t, 2, workflow.Level)
	assert.Contains(t, workflow.Content, "Reproduce the failing call")
	assert.NotContains(t, workflow.Content, "Run the probe")
	assert.False(t, workflow.IsEmpty())

	h2s := doc.SectionsAtLevel(2)
	require.Len(t, h2s, 3)
	assert.Equal(t, "Workflow", h2s[0].Title)
}

func TestParse_SectionLines(t *testing.T) {
	content := `---
name: line-check
description: Section line numbers
---

# Line Check

## First

text

## Second
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, 6, doc.Sections[0].Line)
	assert.Equal(t, 8, doc.Sections[1].Line)
	assert.Equal(t, 12, doc.Sections[2].Line)

	assert.True(t, doc.Sections[2].IsEmpty())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no front matter",
			content: "# Just a heading\n\nSome text.\n",
			wantErr: ErrNoFrontMatter,
		},
		{
			name:    "invalid yaml",
			content: "---\nname: [unclosed\n---\n\n# Body\n",
			wantErr: ErrInvalidFrontMatter,
		},
		{
			name:    "missing name",
			content: "---\ndescription: No name here\n---\n\n# Body\n",
			wantErr: ErrMissingName,
		},
		{
			name:    "missing description",
			content: "---\nname: no-description\n---\n\n# Body\n",
			wantErr: ErrMissingDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestParse_WeaklyTypedMetadata(t *testing.T) {
	content := `---
name: weak-types
description: Metadata values of mixed types
metadata:
  version: 2
  author: ops
---

# Weak Types
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "2", doc.Manifest.Version())
	assert.Equal(t, "ops", doc.Manifest.Author())
}

func TestParse_NoMetadataBlock(t *testing.T) {
	content := `---
name: bare-minimum
description: Only the required keys
---

# Bare Minimum

## Workflow

Do the thing.
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Empty(t, doc.Manifest.License)
	assert.Empty(t, doc.Manifest.Author())
	assert.Empty(t, doc.Manifest.Version())
	assert.Nil(t, doc.Manifest.Extra)
	assert.False(t, doc.HasFencedCode)
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "triage.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	doc, err := ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.Path)
	assert.Equal(t, Checksum([]byte(sampleDocument)), doc.Checksum)
	assert.Equal(t, int64(len(sampleDocument)), doc.Size)
	assert.False(t, doc.ModTime.IsZero())
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read skill file")
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   string
		wantBody string
	}{
		{
			name:     "standard document",
			content:  "---\nname: test\n---\n\n# Body\n\nContent here",
			wantFM:   "name: test",
			wantBody: "# Body\n\nContent here",
		},
		{
			name:     "no front matter",
			content:  "# Body\n\nJust content",
			wantFM:   "",
			wantBody: "# Body\n\nJust content",
		},
		{
			name:     "unterminated front matter",
			content:  "---\nname: test\n\n# Body",
			wantFM:   "",
			wantBody: "---\nname: test\n\n# Body",
		},
		{
			name:     "empty content",
			content:  "",
			wantFM:   "",
			wantBody: "",
		},
		{
			name:     "front matter only",
			content:  "---\nname: test\n---\n",
			wantFM:   "name: test",
			wantBody: "",
		},
		{
			name:     "multi-line front matter",
			content:  "---\nname: test\ndescription: desc\n---\nBody",
			wantFM:   "name: test\ndescription: desc",
			wantBody: "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := SplitFrontMatter(tt.content)
			assert.Equal(t, tt.wantFM, fm)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"code-review", true},
		{"k8s", true},
		{"a", true},
		{"pdf-processing-2", true},
		{"", false},
		{"Code-Review", false},
		{"code_review", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--dash", false},
		{"has space", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidName(tt.name))
		})
	}

	longName := make([]byte, MaxNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}
	assert.False(t, ValidName(string(longName)))
}

func TestDocumentKey(t *testing.T) {
	doc := &Document{Category: "devops-and-infrastructure", Slug: "terraform-review"}
	assert.Equal(t, "devops-and-infrastructure/terraform-review", doc.Key())

	uncategorized := &Document{Slug: "orphan"}
	assert.Equal(t, "orphan", uncategorized.Key())
}
