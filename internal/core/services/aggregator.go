package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// deckHighlights is how many groups feed strengths, improvements and actions.
const deckHighlights = 3

const defaultTopAction = "strengthen the key evidence with concrete figures."

// AggregateDeck computes the deck-level score and highlights from the
// criteria scores. The structure summary is left for the caller.
// Groups are matched to criteria by ID.
func AggregateDeck(rubric *domain.Rubric, criteria []domain.CriteriaScore) domain.DeckScore {
	weights := make(map[string]float64, len(rubric.Groups))
	for _, g := range rubric.Groups {
		weights[g.ID] = g.Weight
	}

	total := 0.0
	for _, c := range criteria {
		if c.RawMaxScore <= 0 {
			continue
		}
		total += weights[c.CriteriaID] * c.RawScore / c.RawMaxScore
	}

	ascending := make([]domain.CriteriaScore, len(criteria))
	copy(ascending, criteria)
	sort.SliceStable(ascending, func(i, j int) bool { return ascending[i].Score < ascending[j].Score })
	descending := make([]domain.CriteriaScore, len(criteria))
	copy(descending, criteria)
	sort.SliceStable(descending, func(i, j int) bool { return descending[i].Score > descending[j].Score })

	deck := domain.DeckScore{
		TotalScore:   int(textutil.Clamp(math.Round(total*100), 0, 100)),
		Strengths:    []string{},
		Improvements: []string{},
		TopActions:   []string{},
	}
	for _, c := range head(descending, deckHighlights) {
		deck.Strengths = append(deck.Strengths, c.CriteriaName+": "+c.Feedback)
	}
	for _, c := range head(ascending, deckHighlights) {
		deck.Improvements = append(deck.Improvements, c.CriteriaName+": "+c.Feedback)
		action := defaultTopAction
		if len(c.MissingItems) > 0 {
			action = c.MissingItems[0].Suggestion
		}
		deck.TopActions = append(deck.TopActions, c.CriteriaName+": "+action)
	}
	return deck
}

func head(c []domain.CriteriaScore, n int) []domain.CriteriaScore {
	if len(c) > n {
		return c[:n]
	}
	return c
}
