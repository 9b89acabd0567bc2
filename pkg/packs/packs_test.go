package packs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSkill = `---
name: keyword-research
description: Find and rank keywords for a content plan
license: MIT
metadata:
  author: seo-team
  version: 1.0.0
---

## Workflow

1. Gather seed terms
2. Expand with related queries

## Examples

` + "```\nskillet render seo/keyword-research\n```" + `
`

const brokenSkill = `---
name: ""
description: Missing a name
---

## Workflow

Broken on purpose.
`

func writePackSource(t *testing.T, skills map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for relPath, content := range skills {
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	return dir
}

func newInstaller(t *testing.T, root string, opts ...Option) *Installer {
	t.Helper()
	installer, err := NewInstaller(root, opts...)
	require.NoError(t, err)
	return installer
}

func TestAdd_LocalDirectory(t *testing.T) {
	source := writePackSource(t, map[string]string{
		"seo/keyword-research.md": validSkill,
	})
	root := t.TempDir()

	pack, err := newInstaller(t, root).Add(context.Background(), source, "")
	require.NoError(t, err)

	assert.NotEmpty(t, pack.ID)
	assert.Equal(t, filepath.Base(source), pack.Name)
	assert.Equal(t, []string{"seo/keyword-research"}, pack.Skills)

	installed := filepath.Join(root, pack.Name, "seo", "keyword-research.md")
	assert.FileExists(t, installed)
	assert.FileExists(t, filepath.Join(root, pack.Name, MarkerFileName))
}

func TestAdd_RefusesFailingLint(t *testing.T) {
	source := writePackSource(t, map[string]string{
		"seo/broken.md": brokenSkill,
	})
	root := t.TempDir()

	_, err := newInstaller(t, root).Add(context.Background(), source, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed lint")

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestAdd_RefusesEmptySource(t *testing.T) {
	source := t.TempDir()
	root := t.TempDir()

	_, err := newInstaller(t, root).Add(context.Background(), source, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no skill documents")
}

func TestAdd_AlreadyInstalled(t *testing.T) {
	source := writePackSource(t, map[string]string{
		"seo/keyword-research.md": validSkill,
	})
	root := t.TempDir()

	_, err := newInstaller(t, root).Add(context.Background(), source, "")
	require.NoError(t, err)

	_, err = newInstaller(t, root).Add(context.Background(), source, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already installed")

	// force replaces the existing install
	pack, err := newInstaller(t, root, WithForce(true)).Add(context.Background(), source, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"seo/keyword-research"}, pack.Skills)
}

func TestListAndRemove(t *testing.T) {
	source := writePackSource(t, map[string]string{
		"seo/keyword-research.md": validSkill,
	})
	root := t.TempDir()
	installer := newInstaller(t, root)

	// hand-authored category without a marker is not a pack
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hand-authored"), 0o755))

	pack, err := installer.Add(context.Background(), source, "")
	require.NoError(t, err)

	packs, err := installer.List()
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, pack.Name, packs[0].Name)
	assert.Equal(t, pack.ID, packs[0].ID)

	require.NoError(t, installer.Remove(pack.Name))
	assert.NoDirExists(t, filepath.Join(root, pack.Name))

	packs, err = installer.List()
	require.NoError(t, err)
	assert.Empty(t, packs)
}

func TestRemove_RefusesNonPack(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hand-authored"), 0o755))

	err := newInstaller(t, root).Remove("hand-authored")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
	assert.DirExists(t, filepath.Join(root, "hand-authored"))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/skills.git"))
	assert.True(t, IsRemote("git@github.com:org/skills.git"))
	assert.False(t, IsRemote("./local/packs"))
	assert.False(t, IsRemote("/abs/path"))
}

func TestPackName(t *testing.T) {
	assert.Equal(t, "skills", PackName("https://example.com/org/skills.git"))
	assert.Equal(t, "skills", PackName("git@github.com:org/skills.git"))
	assert.Equal(t, "local-pack", PackName("/packs/local-pack/"))
}
