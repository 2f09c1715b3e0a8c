package services

import (
	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

const (
	// pitchInferenceSlides is how many leading slides are scanned.
	pitchInferenceSlides = 10
	pitchInferenceHits   = 2
)

// ResolvePitchType returns the explicit pitch type when it parses, and
// otherwise infers one from the opening slides.
func ResolvePitchType(explicit string, slides []domain.Slide) domain.PitchType {
	if p, ok := domain.ParsePitchType(explicit); ok {
		return p
	}
	return InferPitchType(slides)
}

// InferPitchType looks for government and contest vocabulary in the
// first ten slides and defaults to VC_DEMO.
func InferPitchType(slides []domain.Slide) domain.PitchType {
	var text string
	for i := range slides {
		if i == pitchInferenceSlides {
			break
		}
		text += " " + slides[i].CleanText
	}
	text = textutil.Normalize(text)

	switch {
	case textutil.CountContained(text, govKeywords) >= pitchInferenceHits:
		return domain.PitchTypeGovSupport
	case textutil.CountContained(text, contestKeywords) >= pitchInferenceHits:
		return domain.PitchTypeStartupContest
	default:
		return domain.PitchTypeVCDemo
	}
}
