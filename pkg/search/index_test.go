package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/db"
)

func writeSkill(t *testing.T, root, relPath, name, description string) {
	t.Helper()
	path := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n\n## Workflow\n\n1. Do the thing.\n", name, description)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadLibrary(t *testing.T, root string) *corpus.Library {
	t.Helper()
	lib, err := corpus.Load(context.Background(), root)
	require.NoError(t, err)
	return lib
}

func newSyncedIndex(t *testing.T, root string) *Index {
	t.Helper()
	ix, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	_, err = ix.Sync(context.Background(), loadLibrary(t, root))
	require.NoError(t, err)
	return ix
}

func TestOpen_CreatesAndReopens(t *testing.T) {
	ctx := context.Background()
	indexPath := filepath.Join(t.TempDir(), "index.bleve")
	root := t.TempDir()

	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")
	writeSkill(t, root, "writing/summarize.md", "summarize", "Summarize long documents")

	ix, err := Open(indexPath)
	require.NoError(t, err)
	assert.Equal(t, indexPath, ix.Path())

	result, err := ix.Sync(ctx, loadLibrary(t, root))
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Indexed: 2}, result)
	require.NoError(t, ix.Close())

	reopened, err := Open(indexPath)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestSync_Incremental(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")
	writeSkill(t, root, "writing/summarize.md", "summarize", "Summarize long documents")

	ix, err := OpenMemory()
	require.NoError(t, err)
	defer ix.Close()

	result, err := ix.Sync(ctx, loadLibrary(t, root))
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Indexed: 2}, result)

	result, err = ix.Sync(ctx, loadLibrary(t, root))
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Unchanged: 2}, result)

	writeSkill(t, root, "security/threat-model.md", "threat-model", "Threat modeling with STRIDE")

	result, err = ix.Sync(ctx, loadLibrary(t, root))
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Indexed: 1, Unchanged: 1}, result)

	require.NoError(t, os.Remove(filepath.Join(root, "writing/summarize.md")))

	result, err = ix.Sync(ctx, loadLibrary(t, root))
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Unchanged: 1, Removed: 1}, result)

	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearch_TextMatch(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling for designs")
	writeSkill(t, root, "writing/summarize.md", "summarize", "Summarize long documents")
	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{Text: "threat"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, int64(1), result.Total)

	hit := result.Hits[0]
	assert.Equal(t, "security/threat-model", hit.Key)
	assert.Equal(t, "security/threat-model.md", hit.Path)
	assert.Equal(t, "security", hit.Category)
	assert.Equal(t, "threat-model", hit.Slug)
	assert.Equal(t, "threat-model", hit.Name)
	assert.Equal(t, "Structured threat modeling for designs", hit.Description)
	assert.Greater(t, hit.Score, 0.0)
}

func TestSearch_NameMatchRanksFirst(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "api/throttling.md", "throttling", "Design rate limiting for APIs")

	// The query term appears only in this document's body
	bodyOnly := "---\nname: resilience\ndescription: Make services degrade gracefully\n---\n\n## Workflow\n\n1. Apply throttling at the edge before anything else.\n"
	path := filepath.Join(root, "api/resilience.md")
	require.NoError(t, os.WriteFile(path, []byte(bodyOnly), 0o644))

	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{Text: "throttling"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)

	assert.Equal(t, "api/throttling", result.Hits[0].Key)
	assert.Greater(t, result.Hits[0].Score, result.Hits[1].Score)
}

func TestSearch_CategoryFilter(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")
	writeSkill(t, root, "security/secret-scan.md", "secret-scan", "Scan repositories for secrets")
	writeSkill(t, root, "writing/summarize.md", "summarize", "Summarize long documents")
	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{Category: "security"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)

	keys := []string{result.Hits[0].Key, result.Hits[1].Key}
	assert.ElementsMatch(t, []string{"security/threat-model", "security/secret-scan"}, keys)

	result, err = ix.Search(context.Background(), Query{Text: "scan", Category: "writing"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Total)
}

func TestSearch_MatchAll(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")
	writeSkill(t, root, "writing/summarize.md", "summarize", "Summarize long documents")
	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestSearch_Fuzzy(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "observability/dashboards.md", "dashboards", "Build grafana dashboards for services")
	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{Text: "grafan"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Total)

	result, err = ix.Search(context.Background(), Query{Text: "grafan", Fuzziness: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
}

func TestSearch_Highlight(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")
	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{Text: "threat", Highlight: true})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.NotEmpty(t, result.Hits[0].Fragments)
}

func TestSearch_Facets(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")
	writeSkill(t, root, "security/secret-scan.md", "secret-scan", "Scan repositories for secrets")
	writeSkill(t, root, "writing/summarize.md", "summarize", "Summarize long documents")
	ix := newSyncedIndex(t, root)

	result, err := ix.Search(context.Background(), Query{})
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, bucket := range result.Categories {
		counts[bucket.Category] = bucket.Count
	}
	assert.Equal(t, map[string]int{"security": 2, "writing": 1}, counts)
}

func TestSearch_Pagination(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Review request payloads")
	writeSkill(t, root, "security/secret-scan.md", "secret-scan", "Review repository history")
	writeSkill(t, root, "security/input-validation.md", "input-validation", "Review handler inputs")
	ix := newSyncedIndex(t, root)

	first, err := ix.Search(context.Background(), Query{Text: "review", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Total)
	assert.Len(t, first.Hits, 2)

	second, err := ix.Search(context.Background(), Query{Text: "review", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.Total)
	assert.Len(t, second.Hits, 1)

	for _, hit := range first.Hits {
		assert.NotEqual(t, second.Hits[0].Key, hit.Key)
	}
}

func TestIndex_Closed(t *testing.T) {
	ix, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, ix.Close())
	require.NoError(t, ix.Close())

	_, err = ix.Count()
	assert.ErrorIs(t, err, ErrIndexClosed)

	_, err = ix.Search(context.Background(), Query{Text: "anything"})
	assert.ErrorIs(t, err, ErrIndexClosed)

	_, err = ix.Sync(context.Background(), &corpus.Library{})
	assert.ErrorIs(t, err, ErrIndexClosed)
}

func TestIndex_Destroy(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.bleve")
	root := t.TempDir()
	writeSkill(t, root, "security/threat-model.md", "threat-model", "Structured threat modeling")

	ix, err := Open(indexPath)
	require.NoError(t, err)

	_, err = ix.Sync(context.Background(), loadLibrary(t, root))
	require.NoError(t, err)

	require.NoError(t, ix.Destroy())

	_, err = os.Stat(indexPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultIndexPath(t *testing.T) {
	t.Setenv("SKILLET_BASE_PATH", "/custom/path")

	rootA := t.TempDir()
	rootB := t.TempDir()

	pathA, err := DefaultIndexPath(rootA)
	require.NoError(t, err)
	idA, err := db.LibraryID(rootA)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/path", "index", idA), pathA)

	// Each library root keeps its own index
	pathB, err := DefaultIndexPath(rootB)
	require.NoError(t, err)
	assert.NotEqual(t, pathA, pathB)
}
