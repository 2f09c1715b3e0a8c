package driven

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// SlideClassifier assigns a category, summary and key claims to a slide.
// This is an optional capability - the scoring engine always holds a
// keyword classifier to fall back on.
type SlideClassifier interface {
	// Classify returns the classification of one slide.
	// The category must belong to the closed domain.Category set;
	// callers treat anything else as a failure.
	Classify(ctx context.Context, slide *domain.Slide) (domain.Classification, error)
}

// CoverageReviewer judges whether evidence satisfies a rubric item.
// Used only for borderline similarity bands. When nil or failing, the
// coverage decider applies its threshold ladder instead.
type CoverageReviewer interface {
	// Review returns a binary relevance judgment with confidence.
	Review(ctx context.Context, item domain.RubricItem, evidences []domain.Evidence) (domain.ReviewVerdict, error)
}

// GroupFeedbackRequest carries what a narrator needs to describe one group.
type GroupFeedbackRequest struct {
	Group   domain.RubricGroup
	Items   []domain.ItemResult
	Missing []domain.MissingItem
}

// GroupFeedback is a short evidence-grounded comment on one group.
type GroupFeedback struct {
	Feedback   string
	Confidence float64
}

// StructureSummaryRequest carries the scored groups of a deck.
type StructureSummaryRequest struct {
	PitchType domain.PitchType
	Criteria  []domain.CriteriaScore
}

// Narrator writes human-readable commentary.
// This is an optional capability - templated sentences are used without it.
type Narrator interface {
	// GroupFeedback writes feedback for one rubric group.
	GroupFeedback(ctx context.Context, req GroupFeedbackRequest) (GroupFeedback, error)

	// StructureSummary writes an overall comment on the deck structure.
	StructureSummary(ctx context.Context, req StructureSummaryRequest) (string, error)
}
