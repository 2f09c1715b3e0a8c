package services

import (
	"fmt"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/logger"
)

const (
	missingEvidenceFeedback   = "No supporting slide was found, so the score was reset to 0."
	missingEvidenceSuggestion = "Add a slide that explicitly addresses this criterion."
)

// RepairCriteria enforces that every positive score is backed by at
// least one related slide. Offending scores are reset in place and
// counted. Running it twice changes nothing the second time.
func RepairCriteria(criteria []domain.CriteriaScore, metrics driven.MetricsRecorder) int {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	repairs := 0
	for i := range criteria {
		c := &criteria[i]
		if c.Score <= 0 || c.HasEvidence() {
			continue
		}
		logger.Warn("%v: criteria %s scored %d without related slides, resetting",
			domain.ErrInvariantViolation, c.CriteriaID, c.Score)
		metrics.InvariantRepair(c.CriteriaID)
		repairs++

		c.Score = 0
		c.RawScore = 0
		c.CoverageStatus = domain.CoverageNotCovered
		c.IsCovered = false
		c.Feedback = missingEvidenceFeedback
		if len(c.MissingItems) == 0 {
			c.MissingItems = []domain.MissingItem{{
				ItemID:     fmt.Sprintf("%s_MISSING", c.CriteriaID),
				ItemName:   c.CriteriaName,
				Suggestion: missingEvidenceSuggestion,
			}}
		}
	}
	return repairs
}
