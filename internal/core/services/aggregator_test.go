package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func criteria(id string, raw, rawMax float64, feedback string, missing ...domain.MissingItem) domain.CriteriaScore {
	return domain.CriteriaScore{
		ID:           CriteriaScoreID(id),
		CriteriaID:   id,
		CriteriaName: id,
		RawScore:     raw,
		RawMaxScore:  rawMax,
		Score:        PercentScore(raw, rawMax),
		Feedback:     feedback,
		MissingItems: missing,
	}
}

func TestAggregateDeck(t *testing.T) {
	rubric := &domain.Rubric{Groups: []domain.RubricGroup{
		{ID: "A", Weight: 0.5},
		{ID: "B", Weight: 0.3},
		{ID: "C", Weight: 0.2},
		{ID: "D", Weight: 0},
	}}
	scores := []domain.CriteriaScore{
		criteria("A", 10, 10, "great"),
		criteria("B", 5, 10, "half", domain.MissingItem{Suggestion: "add pricing"}),
		criteria("C", 0, 10, "none"),
		criteria("D", 2, 10, "weightless"),
	}

	deck := AggregateDeck(rubric, scores)

	// 0.5*1 + 0.3*0.5 + 0.2*0 = 0.65
	assert.Equal(t, 65, deck.TotalScore)
	assert.Equal(t, []string{"A: great", "B: half", "D: weightless"}, deck.Strengths)
	assert.Equal(t, []string{"C: none", "D: weightless", "B: half"}, deck.Improvements)
	require.Len(t, deck.TopActions, 3)
	assert.Equal(t, "C: "+defaultTopAction, deck.TopActions[0])
	assert.Equal(t, "B: add pricing", deck.TopActions[2])
	assert.Empty(t, deck.StructureSummary)
}

func TestAggregateDeck_Bounds(t *testing.T) {
	rubric := &domain.Rubric{Groups: []domain.RubricGroup{{ID: "A", Weight: 1}}}

	full := AggregateDeck(rubric, []domain.CriteriaScore{criteria("A", 10, 10, "")})
	assert.Equal(t, 100, full.TotalScore)

	empty := AggregateDeck(rubric, nil)
	assert.Equal(t, 0, empty.TotalScore)
	assert.NotNil(t, empty.Strengths)
	assert.NotNil(t, empty.Improvements)
	assert.NotNil(t, empty.TopActions)

	zeroMax := AggregateDeck(rubric, []domain.CriteriaScore{criteria("A", 3, 0, "")})
	assert.Equal(t, 0, zeroMax.TotalScore)
}

func TestRepairCriteria(t *testing.T) {
	metrics := newRecordingMetrics()
	scores := []domain.CriteriaScore{
		{CriteriaID: "TEAM", CriteriaName: "Team", Score: 40, RawScore: 6, IsCovered: true,
			CoverageStatus: domain.CoveragePartial, Feedback: "ok"},
		{CriteriaID: "MARKET_BM", Score: 70, RawScore: 14, RelatedSlides: []int{4}, CoverageStatus: domain.CoverageCovered},
		{CriteriaID: "FINANCE", Score: 30, RawScore: 3, CoverageStatus: domain.CoveragePartial,
			MissingItems: []domain.MissingItem{{ItemID: "F1"}}},
		{CriteriaID: "PROBLEM", Score: 0, CoverageStatus: domain.CoverageNotCovered},
	}

	repairs := RepairCriteria(scores, metrics)

	assert.Equal(t, 2, repairs)
	assert.Equal(t, []string{"TEAM", "FINANCE"}, metrics.repairs)

	team := scores[0]
	assert.Zero(t, team.Score)
	assert.Zero(t, team.RawScore)
	assert.False(t, team.IsCovered)
	assert.Equal(t, domain.CoverageNotCovered, team.CoverageStatus)
	assert.Equal(t, missingEvidenceFeedback, team.Feedback)
	require.Len(t, team.MissingItems, 1)
	assert.Equal(t, "TEAM_MISSING", team.MissingItems[0].ItemID)
	assert.Equal(t, "Team", team.MissingItems[0].ItemName)

	assert.Equal(t, 70, scores[1].Score)
	assert.Equal(t, []domain.MissingItem{{ItemID: "F1"}}, scores[2].MissingItems)

	// Idempotent.
	before := append([]domain.CriteriaScore(nil), scores...)
	assert.Zero(t, RepairCriteria(scores, nil))
	assert.Equal(t, before, scores)
}

func TestRepairCriteria_Invariant(t *testing.T) {
	scores := []domain.CriteriaScore{
		{CriteriaID: "A", Score: 10},
		{CriteriaID: "B", Score: 55, RelatedSlides: []int{2}},
		{CriteriaID: "C"},
	}

	RepairCriteria(scores, nil)

	for _, c := range scores {
		assert.True(t, c.Score == 0 || len(c.RelatedSlides) > 0, "criteria %s", c.CriteriaID)
	}
}
