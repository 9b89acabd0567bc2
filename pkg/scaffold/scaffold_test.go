package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

func TestCreate_FileForm(t *testing.T) {
	root := t.TempDir()

	result, err := Create(root, Request{
		Category:    "writing-and-content",
		Slug:        "press-release",
		Description: "Draft a press release from product notes",
		License:     "MIT",
		Author:      "docs-team",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "writing-and-content", "press-release.md"), result.Path)
	assert.Equal(t, "writing-and-content/press-release", result.Key)

	doc, err := skilldoc.ParseFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "press-release", doc.Name)
	assert.Equal(t, "Draft a press release from product notes", doc.Description)
	assert.Equal(t, "MIT", doc.License)
	assert.Equal(t, "docs-team", doc.Author())
	assert.Equal(t, "0.1.0", doc.Version())
	require.NotNil(t, doc.FindSection("Workflow"))
	assert.True(t, doc.HasFencedCode)
}

func TestCreate_DirForm(t *testing.T) {
	root := t.TempDir()

	result, err := Create(root, Request{
		Category: "debugging",
		Slug:     "flaky-tests",
		DirForm:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "debugging", "flaky-tests", "SKILL.md"), result.Path)

	doc, err := skilldoc.ParseFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "flaky-tests", doc.Name)
}

func TestCreate_ScaffoldPassesErrorLint(t *testing.T) {
	root := t.TempDir()

	result, err := Create(root, Request{Category: "debugging", Slug: "flaky-tests"})
	require.NoError(t, err)

	doc, err := skilldoc.ParseFile(result.Path)
	require.NoError(t, err)

	linter, err := lint.New()
	require.NoError(t, err)
	for _, finding := range linter.LintDocument(doc) {
		assert.NotEqual(t, lint.SeverityError, finding.Severity, "rule %s: %s", finding.Rule, finding.Message)
	}
}

func TestCreate_RefusesOverwrite(t *testing.T) {
	root := t.TempDir()

	_, err := Create(root, Request{Category: "debugging", Slug: "flaky-tests"})
	require.NoError(t, err)

	_, err = Create(root, Request{Category: "debugging", Slug: "flaky-tests"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// dir-form also collides with the existing file-form document
	_, err = Create(root, Request{Category: "debugging", Slug: "flaky-tests", DirForm: true})
	require.Error(t, err)
}

func TestCreate_InvalidSlug(t *testing.T) {
	root := t.TempDir()

	_, err := Create(root, Request{Category: "debugging", Slug: "Bad Slug"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kebab-case")

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
