package services

import (
	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// BuildSlides turns ingested pages into slides in page order.
// Classification and embedding fields are left empty.
func BuildSlides(pages []domain.Page) []domain.Slide {
	slides := make([]domain.Slide, len(pages))
	for i, p := range pages {
		clean := textutil.CollapseWhitespace(p.Text)
		slides[i] = domain.Slide{
			Number:        i + 1,
			RawText:       p.Text,
			CleanText:     clean,
			TextDeficient: textutil.RuneLen(clean) < domain.MinCleanTextLength,
		}
	}
	return slides
}
