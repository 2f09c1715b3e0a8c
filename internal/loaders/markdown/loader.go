// Package markdown loads slide decks written in Markdown. Slides are
// separated by horizontal rules made of dashes (the Marp and reveal.js
// convention) or, when a deck has none, by level-one headings.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DeckLoader = (*Loader)(nil)

// Loader handles Markdown decks.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Load reads a Markdown deck. Each slide becomes one page with the
// formatting stripped; blank slides are dropped.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load markdown deck: %w", err)
	}

	deck := &domain.Deck{
		Pages:    []domain.Page{},
		Metadata: domain.DeckMetadata{Filename: filepath.Base(path)},
	}
	for _, slide := range SplitSlides(string(data)) {
		if text := stripMarkdown(slide); text != "" {
			deck.Pages = append(deck.Pages, domain.Page{Text: text})
		}
	}
	return deck, nil
}

// Pre-compiled regular expressions for slide splitting and stripping.
var (
	slideSeparator = regexp.MustCompile(`^\s*-{3,}\s*$`)
	slideHeading   = regexp.MustCompile(`^#\s+\S`)
	frontMatter    = regexp.MustCompile(`\A---[ \t]*\n(?:[A-Za-z0-9_-]+[ \t]*:.*\n)*---[ \t]*\n`)

	codeBlock     = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote    = regexp.MustCompile(`(?m)^>\s*`)
	horizontal    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// SplitSlides splits raw Markdown into slide sources. Leading key: value
// front matter is skipped. Fenced code blocks never split a slide.
func SplitSlides(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = frontMatter.ReplaceAllString(content, "")
	lines := strings.Split(content, "\n")

	isBreak := func(line string) bool { return slideSeparator.MatchString(line) }
	keepBreakLine := false
	if !hasOutsideFence(lines, isBreak) {
		isBreak = func(line string) bool { return slideHeading.MatchString(line) }
		keepBreakLine = true
	}

	var slides []string
	var current []string
	inFence := false
	flush := func() {
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			slides = append(slides, s)
		}
		current = current[:0]
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && isBreak(line) {
			flush()
			if !keepBreakLine {
				continue
			}
		}
		current = append(current, line)
	}
	flush()
	return slides
}

func hasOutsideFence(lines []string, match func(string) bool) bool {
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence && match(line) {
			return true
		}
	}
	return false
}

// stripMarkdown removes common Markdown formatting, keeping heading and
// link text. Code blocks carry no pitch content and are dropped.
func stripMarkdown(content string) string {
	content = htmlComments.ReplaceAllString(content, "")
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
