// Package registry provides in-memory lookup over a loaded skill library.
// It is the surface an embedding host uses to resolve skills by key or bare
// name, filter them by category, glob, or allowlist, and cache rendered
// prompt payloads.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// ErrNotFound indicates no skill matched the requested key or name
var ErrNotFound = errors.New("skill not found")

const defaultCacheSize = 128

// Collision records a duplicate key dropped during load. The first
// document in walk order wins.
type Collision struct {
	Key         string
	KeptPath    string
	DroppedPath string
}

// Registry is an immutable snapshot of a skill library with lookup indexes
type Registry struct {
	root       string
	opts       []Option
	library    *corpus.Library
	byKey      map[string]*skilldoc.Document
	byName     map[string][]*skilldoc.Document
	keys       []string
	collisions []Collision
	renders    *lru.Cache[string, string]
}

type config struct {
	cacheSize   int
	scannerOpts []corpus.Option
}

// Option is a function that configures registry loading
type Option func(*config) error

// WithCacheSize sets the rendered-prompt cache capacity
func WithCacheSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return errors.Errorf("cache size must be positive, got %d", size)
		}
		c.cacheSize = size
		return nil
	}
}

// WithScannerOptions passes options through to the corpus scanner
func WithScannerOptions(opts ...corpus.Option) Option {
	return func(c *config) error {
		c.scannerOpts = append(c.scannerOpts, opts...)
		return nil
	}
}

// Load scans and parses the library at root and builds a registry over it
func Load(ctx context.Context, root string, opts ...Option) (*Registry, error) {
	cfg := &config{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	scanner, err := corpus.NewScanner(root, cfg.scannerOpts...)
	if err != nil {
		return nil, err
	}
	library, err := scanner.Load(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := FromLibrary(library, opts...)
	if err != nil {
		return nil, err
	}
	registry.root = root
	registry.opts = opts

	for _, collision := range registry.collisions {
		logger.G(ctx).WithFields(logrus.Fields{
			"key":     collision.Key,
			"kept":    collision.KeptPath,
			"dropped": collision.DroppedPath,
		}).Warn("duplicate skill key, keeping first")
	}

	return registry, nil
}

// FromLibrary builds a registry over an already loaded library
func FromLibrary(library *corpus.Library, opts ...Option) (*Registry, error) {
	cfg := &config{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	renders, err := lru.New[string, string](cfg.cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create render cache")
	}

	r := &Registry{
		library: library,
		byKey:   make(map[string]*skilldoc.Document),
		byName:  make(map[string][]*skilldoc.Document),
		renders: renders,
	}

	for _, doc := range library.Documents() {
		key := doc.Key()
		if kept, exists := r.byKey[key]; exists {
			r.collisions = append(r.collisions, Collision{
				Key:         key,
				KeptPath:    kept.Path,
				DroppedPath: doc.Path,
			})
			continue
		}
		r.byKey[key] = doc
		r.keys = append(r.keys, key)

		r.indexName(doc.Manifest.Name, doc)
		if doc.Slug != doc.Manifest.Name {
			r.indexName(doc.Slug, doc)
		}
	}
	sort.Strings(r.keys)

	return r, nil
}

func (r *Registry) indexName(name string, doc *skilldoc.Document) {
	if name == "" {
		return
	}
	r.byName[name] = append(r.byName[name], doc)
}

// Reload re-scans the library from disk and returns a fresh registry
func (r *Registry) Reload(ctx context.Context) (*Registry, error) {
	if r.root == "" {
		return nil, errors.New("registry was not loaded from a root directory")
	}
	return Load(ctx, r.root, r.opts...)
}

// Library returns the underlying loaded library
func (r *Registry) Library() *corpus.Library {
	return r.library
}

// Keys returns all skill keys, sorted
func (r *Registry) Keys() []string {
	return r.keys
}

// Collisions returns the duplicate keys dropped during load
func (r *Registry) Collisions() []Collision {
	return r.collisions
}

// Len returns the number of registered skills
func (r *Registry) Len() int {
	return len(r.byKey)
}

// Documents returns all documents sorted by key
func (r *Registry) Documents() []*skilldoc.Document {
	docs := make([]*skilldoc.Document, 0, len(r.keys))
	for _, key := range r.keys {
		docs = append(docs, r.byKey[key])
	}
	return docs
}

// Categories returns the library categories with counts
func (r *Registry) Categories() []corpus.Category {
	return r.library.Categories()
}

// Get resolves a skill by key ("category/slug") or bare name. A bare name
// matching several skills in different categories is an error listing the
// candidate keys.
func (r *Registry) Get(nameOrKey string) (*skilldoc.Document, error) {
	if doc, ok := r.byKey[nameOrKey]; ok {
		return doc, nil
	}

	candidates := r.byName[nameOrKey]
	switch len(candidates) {
	case 0:
		return nil, errors.Wrapf(ErrNotFound, "skill %q", nameOrKey)
	case 1:
		return candidates[0], nil
	default:
		keys := make([]string, 0, len(candidates))
		for _, doc := range candidates {
			keys = append(keys, doc.Key())
		}
		sort.Strings(keys)
		return nil, errors.Errorf("skill name %q is ambiguous, use one of: %s",
			nameOrKey, strings.Join(keys, ", "))
	}
}

// FilterCategory returns the documents in the given category, sorted by key
func (r *Registry) FilterCategory(category string) []*skilldoc.Document {
	var docs []*skilldoc.Document
	for _, key := range r.keys {
		if r.byKey[key].Category == category {
			docs = append(docs, r.byKey[key])
		}
	}
	return docs
}

// FilterGlob returns the documents whose key matches the glob pattern,
// sorted by key
func (r *Registry) FilterGlob(pattern string) ([]*skilldoc.Document, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.Wrapf(err, "invalid filter pattern %q", pattern)
	}

	var docs []*skilldoc.Document
	for _, key := range r.keys {
		if g.Match(key) {
			docs = append(docs, r.byKey[key])
		}
	}
	return docs, nil
}

// FilterByAllowlist returns the documents whose key or name appears in the
// allowlist. An empty allowlist allows everything.
func FilterByAllowlist(docs []*skilldoc.Document, allowed []string) []*skilldoc.Document {
	if len(allowed) == 0 {
		return docs
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = true
	}

	var filtered []*skilldoc.Document
	for _, doc := range docs {
		if allowedSet[doc.Key()] || allowedSet[doc.Manifest.Name] {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}

// CachedRender returns the cached rendered payload for a document and
// argument fingerprint, invoking render on a miss. Cache entries are keyed
// by document checksum, so edits invalidate naturally.
func (r *Registry) CachedRender(doc *skilldoc.Document, fingerprint string, render func() (string, error)) (string, error) {
	cacheKey := fmt.Sprintf("%s|%s", doc.Checksum, fingerprint)
	if doc.Checksum != "" {
		if cached, ok := r.renders.Get(cacheKey); ok {
			return cached, nil
		}
	}

	rendered, err := render()
	if err != nil {
		return "", err
	}

	if doc.Checksum != "" {
		r.renders.Add(cacheKey, rendered)
	}
	return rendered, nil
}
