package search

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/ansi"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/db"
	"github.com/skillet-cli/skillet/pkg/logger"
)

const (
	batchSize        = 100
	checksumPageSize = 500

	categoryFacetName = "categories"
	categoryFacetSize = 50
)

// DefaultIndexPath returns the location of the search index for the given
// library root, scoped under the skillet base path so each library keeps
// its own index.
func DefaultIndexPath(root string) (string, error) {
	base, err := db.BasePath()
	if err != nil {
		return "", err
	}
	id, err := db.LibraryID(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "index", id), nil
}

// Index wraps a Bleve index over the skill library. All methods are safe
// for concurrent use.
type Index struct {
	path   string // empty for in-memory indexes
	index  bleve.Index
	mu     sync.RWMutex
	closed bool
}

// Open opens the index at path, creating it with the skill document
// mapping when it does not exist yet.
func Open(path string) (*Index, error) {
	index, err := bleve.Open(path)
	if err == nil {
		return &Index{path: path, index: index}, nil
	}

	index, err = bleve.New(path, BuildIndexMapping())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create search index at %s", path)
	}
	return &Index{path: path, index: index}, nil
}

// OpenMemory creates an in-memory index. Used by `skillet search` when no
// on-disk index exists and by the server for ad-hoc corpora.
func OpenMemory() (*Index, error) {
	index, err := bleve.NewMemOnly(BuildIndexMapping())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create in-memory search index")
	}
	return &Index{index: index}, nil
}

// Path returns the filesystem path of the index, or empty for in-memory
// indexes.
func (ix *Index) Path() string {
	return ix.path
}

// Count returns the number of indexed documents.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed || ix.index == nil {
		return 0, ErrIndexClosed
	}
	return ix.index.DocCount()
}

// Close flushes and closes the index. Closing twice is a no-op.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed || ix.index == nil {
		return nil
	}

	ix.closed = true
	err := ix.index.Close()
	ix.index = nil
	return err
}

// Destroy closes the index and removes its files from disk. In-memory
// indexes are just closed.
func (ix *Index) Destroy() error {
	if err := ix.Close(); err != nil {
		return err
	}
	if ix.path == "" {
		return nil
	}
	return os.RemoveAll(ix.path)
}

// SyncResult summarises one index sync.
type SyncResult struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Sync reconciles the index with the parsed library. Documents whose
// checksum already matches the indexed copy are skipped, new and drifted
// documents are reindexed in batches, and entries for files gone from the
// library are deleted.
func (ix *Index) Sync(ctx context.Context, lib *corpus.Library) (SyncResult, error) {
	var result SyncResult

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed || ix.index == nil {
		return result, ErrIndexClosed
	}

	existing, err := ix.indexedChecksums(ctx)
	if err != nil {
		return result, err
	}

	now := time.Now()
	seen := make(map[string]bool, len(lib.Files))
	batch := ix.index.NewBatch()

	commit := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := ix.index.Batch(batch); err != nil {
			return errors.Wrap(err, "failed to commit index batch")
		}
		batch = ix.index.NewBatch()
		return nil
	}

	for _, f := range lib.Files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if f.Err != nil || f.Doc == nil {
			continue
		}
		seen[f.RelPath] = true

		if existing[f.RelPath] == f.Doc.Checksum {
			result.Unchanged++
			continue
		}

		if err := batch.Index(f.RelPath, fromSkillDocument(f.RelPath, f.Doc, now)); err != nil {
			return result, errors.Wrapf(err, "failed to index %s", f.RelPath)
		}
		result.Indexed++

		if batch.Size() >= batchSize {
			if err := commit(); err != nil {
				return result, err
			}
		}
	}

	for path := range existing {
		if seen[path] {
			continue
		}
		batch.Delete(path)
		result.Removed++

		if batch.Size() >= batchSize {
			if err := commit(); err != nil {
				return result, err
			}
		}
	}

	if err := commit(); err != nil {
		return result, err
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"indexed":   result.Indexed,
		"unchanged": result.Unchanged,
		"removed":   result.Removed,
	}).Debug("search index synced")

	return result, nil
}

// indexedChecksums pages through the index and returns checksum by path.
// Must be called with the lock held.
func (ix *Index) indexedChecksums(ctx context.Context) (map[string]string, error) {
	checksums := make(map[string]string)

	for from := 0; ; from += checksumPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), checksumPageSize, from, false)
		req.Fields = []string{"checksum"}

		result, err := ix.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read indexed checksums")
		}

		for _, hit := range result.Hits {
			checksums[hit.ID] = getStringField(hit.Fields, "checksum")
		}

		if uint64(from+len(result.Hits)) >= result.Total || len(result.Hits) == 0 {
			break
		}
	}

	return checksums, nil
}

// Search executes a query against the index.
func (ix *Index) Search(ctx context.Context, q Query) (*Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed || ix.index == nil {
		return nil, ErrIndexClosed
	}

	req := buildSearchRequest(q)

	start := time.Now()
	bleveResult, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}

	return convertResult(bleveResult, start), nil
}

func buildSearchRequest(q Query) *bleve.SearchRequest {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, q.Offset, false)
	req.Fields = []string{"key", "path", "category", "slug", "name", "description"}

	if q.Highlight {
		req.Highlight = bleve.NewHighlightWithStyle(ansi.Name)
	}

	if req.Facets == nil {
		req.Facets = make(bleve.FacetsRequest)
	}
	req.Facets[categoryFacetName] = bleve.NewFacetRequest("category", categoryFacetSize)

	return req
}

// nameBoost ranks name matches above body and description matches
const nameBoost = 3.0

func buildQuery(q Query) query.Query {
	var queries []query.Query

	if q.Text != "" {
		queries = append(queries, buildTextQuery(q))
	}

	if q.Category != "" {
		termQuery := bleve.NewTermQuery(q.Category)
		termQuery.SetField("category")
		queries = append(queries, termQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}

	boolQuery := bleve.NewBooleanQuery()
	for _, sub := range queries {
		boolQuery.AddMust(sub)
	}
	return boolQuery
}

// buildTextQuery matches the text against name, description and body,
// with name matches boosted.
func buildTextQuery(q Query) query.Query {
	newMatch := func(field string) *query.MatchQuery {
		matchQuery := bleve.NewMatchQuery(q.Text)
		matchQuery.SetField(field)
		if q.Fuzziness > 0 {
			matchQuery.SetFuzziness(q.Fuzziness)
		}
		return matchQuery
	}

	nameQuery := newMatch("name")
	nameQuery.SetBoost(nameBoost)

	return bleve.NewDisjunctionQuery(nameQuery, newMatch("description"), newMatch("body"))
}

func convertResult(bleveResult *bleve.SearchResult, start time.Time) *Result {
	hits := make([]Hit, 0, len(bleveResult.Hits))
	for _, hit := range bleveResult.Hits {
		converted := Hit{
			Key:         getStringField(hit.Fields, "key"),
			Path:        getStringField(hit.Fields, "path"),
			Category:    getStringField(hit.Fields, "category"),
			Slug:        getStringField(hit.Fields, "slug"),
			Name:        getStringField(hit.Fields, "name"),
			Description: getStringField(hit.Fields, "description"),
			Score:       hit.Score,
		}
		if len(hit.Fragments) > 0 {
			converted.Fragments = hit.Fragments
		}
		hits = append(hits, converted)
	}

	result := &Result{
		Hits:  hits,
		Total: int64(bleveResult.Total),
		Took:  time.Since(start),
	}

	if facet := bleveResult.Facets[categoryFacetName]; facet != nil {
		for _, term := range facet.Terms.Terms() {
			result.Categories = append(result.Categories, CategoryCount{
				Category: term.Term,
				Count:    term.Count,
			})
		}
	}

	return result
}

func getStringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
