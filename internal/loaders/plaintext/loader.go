// Package plaintext loads text exports of slide decks. Slides are
// separated by form feeds, as written by pdftotext, or by lines of three
// or more dashes.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DeckLoader = (*Loader)(nil)

// Loader handles plain text decks.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// Load reads a plain text deck. Blank slides are dropped.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load text deck: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrInvalidInput, filepath.Base(path))
	}

	deck := &domain.Deck{
		Pages:    []domain.Page{},
		Metadata: domain.DeckMetadata{Filename: filepath.Base(path)},
	}
	for _, slide := range SplitSlides(string(data)) {
		deck.Pages = append(deck.Pages, domain.Page{Text: slide})
	}
	return deck, nil
}

var dashSeparator = regexp.MustCompile(`(?m)^[ \t]*-{3,}[ \t]*$`)

// SplitSlides splits text on form feeds and dash separator lines.
// Text without separators is one slide.
func SplitSlides(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = dashSeparator.ReplaceAllString(content, "\f")

	var slides []string
	for _, part := range strings.Split(content, "\f") {
		if s := strings.TrimSpace(part); s != "" {
			slides = append(slides, s)
		}
	}
	return slides
}
