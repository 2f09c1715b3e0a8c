// Package html loads HTML slide exports. Each <section> element is a
// slide, as in reveal.js and Google Slides "publish to web" exports.
// Pages without sections are split on <hr>.
package html

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DeckLoader = (*Loader)(nil)

// Loader handles HTML decks.
type Loader struct{}

// New creates a new HTML loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Load reads an HTML deck. Blank slides are dropped.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load html deck: %w", err)
	}

	content := string(data)
	deck := &domain.Deck{
		Pages:    []domain.Page{},
		Metadata: domain.DeckMetadata{Filename: filepath.Base(path)},
	}
	for _, slide := range SplitSlides(content) {
		if text := stripHTML(slide); text != "" {
			deck.Pages = append(deck.Pages, domain.Page{Text: text})
		}
	}
	return deck, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	sectionTag        = regexp.MustCompile(`(?is)<section[^>]*>(.*?)</section>`)
	nestedSectionOpen = regexp.MustCompile(`(?is)<section[^>]*>`)
	bodyTag           = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	asideNotes        = regexp.MustCompile(`(?is)<aside[^>]*class="[^"]*notes[^"]*"[^>]*>.*?</aside>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// SplitSlides returns the raw HTML of each slide. A section that holds
// nested sections contributes only its innermost slides.
func SplitSlides(content string) []string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	if matches := sectionTag.FindAllStringSubmatch(content, -1); len(matches) > 0 {
		slides := make([]string, 0, len(matches))
		for _, m := range matches {
			inner := m[1]
			// An outer vertical stack matches up to its first child's close tag.
			if loc := nestedSectionOpen.FindAllStringIndex(inner, -1); len(loc) > 0 {
				inner = inner[loc[len(loc)-1][1]:]
			}
			slides = append(slides, inner)
		}
		return slides
	}

	if m := bodyTag.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	return hrTags.Split(content, -1)
}

// stripHTML removes tags and speaker notes and returns readable text,
// one block element per line.
func stripHTML(content string) string {
	content = noscriptTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = asideNotes.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
