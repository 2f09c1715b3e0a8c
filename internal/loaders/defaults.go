package loaders

import (
	"github.com/custodia-labs/deckscore/internal/loaders/html"
	"github.com/custodia-labs/deckscore/internal/loaders/jsondeck"
	"github.com/custodia-labs/deckscore/internal/loaders/markdown"
	"github.com/custodia-labs/deckscore/internal/loaders/plaintext"
)

// RegisterDefaults registers all built-in loaders with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(jsondeck.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	r.Register(html.New())
}

// Default returns a registry with every built-in loader.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
