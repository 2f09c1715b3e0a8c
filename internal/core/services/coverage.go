package services

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/logger"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// reviewEvidenceLimit is how many evidences a reviewer sees.
const reviewEvidenceLimit = 2

// CoverageDecider turns retrieval evidence into a coverage verdict.
// Borderline cases go to the optional reviewer; without one, the
// similarity ladder decides.
type CoverageDecider struct {
	reviewer driven.CoverageReviewer
	high     float64
	mid      float64
	low      float64
	fast     bool
}

// NewCoverageDecider creates a decider from scoring settings.
// The reviewer parameter is optional (can be nil).
func NewCoverageDecider(reviewer driven.CoverageReviewer, settings domain.ScoringSettings) *CoverageDecider {
	return &CoverageDecider{
		reviewer: reviewer,
		high:     settings.SimHigh,
		mid:      settings.SimMid,
		low:      settings.Low(),
		fast:     settings.FastMode,
	}
}

// Decide returns the coverage of item given its evidences, best first.
// The boolean reports whether a configured reviewer failed and the ladder
// was used in its place.
func (d *CoverageDecider) Decide(
	ctx context.Context, item domain.RubricItem, evidences []domain.Evidence,
) (domain.Coverage, bool) {
	top := 0.0
	if len(evidences) > 0 {
		top = evidences[0].Similarity
	}

	switch {
	case top >= d.high:
		if textutil.RuneLen(evidences[0].Excerpt) < domain.MinCleanTextLength {
			return d.review(ctx, item, evidences, top)
		}
		return domain.CoverageCovered, false

	case top >= d.mid:
		c, failed := d.review(ctx, item, evidences, top)
		return c.AtLeast(domain.CoveragePartial), failed

	case top >= d.low && len(evidences) > 0:
		if !item.FailIfMissing {
			return domain.CoveragePartial, false
		}
		// Low-band evidence for a required item is reviewed, and the
		// review may only lower it.
		c, failed := d.review(ctx, item, evidences, top)
		return c.AtMost(domain.CoveragePartial), failed

	case item.FailIfMissing:
		return d.review(ctx, item, evidences, top)

	default:
		return domain.CoverageNotCovered, false
	}
}

func (d *CoverageDecider) review(
	ctx context.Context, item domain.RubricItem, evidences []domain.Evidence, top float64,
) (domain.Coverage, bool) {
	if d.fast || d.reviewer == nil || len(evidences) == 0 {
		return d.ladder(top), false
	}
	shown := evidences
	if len(shown) > reviewEvidenceLimit {
		shown = shown[:reviewEvidenceLimit]
	}
	verdict, err := d.reviewer.Review(ctx, item, shown)
	if err != nil {
		logger.Debug("Item %s: coverage review failed, using thresholds: %v", item.ID, err)
		return d.ladder(top), true
	}
	verdict.Confidence = textutil.Clamp01(verdict.Confidence)
	return verdict.Coverage(), false
}

// ladder maps a similarity onto a verdict without a reviewer.
func (d *CoverageDecider) ladder(top float64) domain.Coverage {
	switch {
	case top >= d.high:
		return domain.CoverageCovered
	case top >= d.low:
		return domain.CoveragePartial
	default:
		return domain.CoverageNotCovered
	}
}
