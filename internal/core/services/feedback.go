package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/logger"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// Template confidences.
const (
	fastMissingConfidence = 0.68
	fastCoveredConfidence = 0.74
	missingConfidence     = 0.65
	coveredConfidence     = 0.72
)

// defaultStructureSummary is used when no narrator answers.
const defaultStructureSummary = "The deck keeps the basic problem, solution, market and execution flow. " +
	"Strengthening the evidence behind the lowest scoring criteria would make it more persuasive."

// FeedbackWriter writes group feedback and the deck structure summary,
// preferring the optional narrator and falling back to templates.
type FeedbackWriter struct {
	narrator driven.Narrator
	fast     bool
}

// NewFeedbackWriter creates a feedback writer.
// The narrator parameter is optional (can be nil).
func NewFeedbackWriter(narrator driven.Narrator, fastMode bool) *FeedbackWriter {
	return &FeedbackWriter{narrator: narrator, fast: fastMode}
}

// GroupFeedback returns feedback and confidence for one group. The
// boolean reports whether a configured narrator failed.
func (w *FeedbackWriter) GroupFeedback(
	ctx context.Context, group domain.RubricGroup, results []domain.ItemResult, missing []domain.MissingItem,
) (string, float64, bool) {
	if w.fast {
		if len(missing) > 0 {
			return fmt.Sprintf("%s is missing some elements. Missing: %s", group.Name, missingNames(missing)),
				fastMissingConfidence, false
		}
		return fmt.Sprintf("%s has its key evidence in place.", group.Name), fastCoveredConfidence, false
	}

	failed := false
	if w.narrator != nil {
		out, err := w.narrator.GroupFeedback(ctx, driven.GroupFeedbackRequest{
			Group:   group,
			Items:   results,
			Missing: missing,
		})
		text := strings.TrimSpace(out.Feedback)
		if err == nil && text != "" {
			return text, textutil.Clamp01(out.Confidence), false
		}
		logger.Debug("Group %s: narrator feedback unavailable, using template: %v", group.ID, err)
		failed = true
	}

	hint := ""
	for _, r := range results {
		if s := r.TopSummary(); s != "" {
			hint = s
			break
		}
	}
	if len(missing) > 0 {
		text := fmt.Sprintf("%s lacks some required evidence. Missing: %s.", group.Name, missingNames(missing))
		if hint != "" {
			text += " Example evidence: " + textutil.Truncate(hint, 70) + "..."
		}
		return text, missingConfidence, failed
	}
	text := fmt.Sprintf("%s is covered stably by supporting slides.", group.Name)
	if hint != "" {
		text += " Key evidence: " + textutil.Truncate(hint, 80) + "..."
	}
	return text, coveredConfidence, failed
}

// StructureSummary returns the overall comment on the deck. The boolean
// reports whether a configured narrator failed.
func (w *FeedbackWriter) StructureSummary(
	ctx context.Context, pitchType domain.PitchType, criteria []domain.CriteriaScore,
) (string, bool) {
	if w.fast || w.narrator == nil {
		return defaultStructureSummary, false
	}
	out, err := w.narrator.StructureSummary(ctx, driven.StructureSummaryRequest{
		PitchType: pitchType,
		Criteria:  criteria,
	})
	if out = strings.TrimSpace(out); err == nil && out != "" {
		return out, false
	}
	logger.Debug("Structure summary unavailable, using template: %v", err)
	return defaultStructureSummary, true
}

// missingNames lists the first two missing item names.
func missingNames(missing []domain.MissingItem) string {
	names := make([]string, 0, 2)
	for _, m := range missing {
		if len(names) == 2 {
			break
		}
		names = append(names, m.ItemName)
	}
	return strings.Join(names, ", ")
}
