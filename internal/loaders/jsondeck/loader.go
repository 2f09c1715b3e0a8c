// Package jsondeck loads decks already in the ingestion contract:
//
//	{"pages": [{"text": "..."}], "metadata": {"filename": "..."}}
package jsondeck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DeckLoader = (*Loader)(nil)

// Loader handles JSON deck files.
type Loader struct{}

// New creates a new JSON deck loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".json"}
}

// Load reads a JSON deck. Pages keep their order; the filename falls back
// to the base name of path when the document does not carry one.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load json deck: %w", err)
	}
	return Decode(data, filepath.Base(path))
}

// Decode parses a JSON deck from data. An empty pages array is not an
// error here; evaluation rejects it.
func Decode(data []byte, filename string) (*domain.Deck, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty json deck", domain.ErrInvalidInput)
	}

	var deck domain.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("%w: decode json deck: %w", domain.ErrInvalidInput, err)
	}
	if deck.Metadata.Filename == "" {
		deck.Metadata.Filename = filename
	}
	if deck.Pages == nil {
		deck.Pages = []domain.Page{}
	}
	return &deck, nil
}
