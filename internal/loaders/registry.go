package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DeckLoaderRegistry = (*Registry)(nil)

// Registry maps file extensions to deck loaders.
// A loader registered later replaces an earlier one for the same extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]driven.DeckLoader
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]driven.DeckLoader),
	}
}

// Register adds a loader for every extension it supports.
func (r *Registry) Register(loader driven.DeckLoader) {
	if loader == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range loader.SupportedExtensions() {
		r.loaders[strings.ToLower(ext)] = loader
	}
}

// Load reads the deck at path with the loader registered for its extension.
// file:// URIs are accepted.
func (r *Registry) Load(ctx context.Context, path string) (*domain.Deck, error) {
	path = ResolvePath(path)
	loader, ok := r.lookup(path)
	if !ok {
		ext := filepath.Ext(path)
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: deck format %s", domain.ErrUnsupportedType, ext)
	}
	return loader.Load(ctx, path)
}

// IsSupported reports whether a loader is registered for path's extension.
func (r *Registry) IsSupported(path string) bool {
	_, ok := r.lookup(ResolvePath(path))
	return ok
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) lookup(path string) (driven.DeckLoader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return loader, ok
}

// ResolvePath converts a file:// URI to a local path.
// Bare paths pass through unchanged.
func ResolvePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
