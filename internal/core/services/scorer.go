package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// Group coverage cut-offs on the weighted verdict mean.
const (
	groupCoveredMean = 0.60
	groupPartialMean = 0.25
)

// relatedSlack widens the related-slide band below SimMid.
const relatedSlack = 0.1

// ScoreItem converts a verdict into points out of maxScore.
// The result is rounded to two decimals.
func ScoreItem(maxScore float64, verdict domain.Coverage, similarity, simHigh float64) float64 {
	simHigh = textutil.Clamp(simHigh, 0.01, 0.99)
	switch verdict {
	case domain.CoverageCovered:
		ratio := 0.65 + textutil.Clamp01((similarity-simHigh)/(1-simHigh))*0.35
		return textutil.Round2(maxScore * ratio)
	case domain.CoveragePartial:
		ratio := textutil.Clamp((similarity/simHigh)*0.70, 0.35, 0.70)
		return textutil.Round2(maxScore * ratio)
	default:
		return 0
	}
}

// ReduceCoverage folds item verdicts into a group verdict using a
// weighted mean. Negative weights count as zero; without usable weights
// every verdict counts equally.
func ReduceCoverage(verdicts []domain.Coverage, weights []float64) domain.Coverage {
	if len(verdicts) == 0 {
		return domain.CoverageNotCovered
	}
	var sum, denom float64
	if len(weights) == len(verdicts) {
		for i, v := range verdicts {
			w := math.Max(0, weights[i])
			sum += v.Value() * w
			denom += w
		}
	}
	if denom == 0 {
		sum = 0
		for _, v := range verdicts {
			sum += v.Value()
		}
		denom = float64(len(verdicts))
	}
	mean := sum / denom
	switch {
	case mean >= groupCoveredMean:
		return domain.CoverageCovered
	case mean >= groupPartialMean:
		return domain.CoveragePartial
	default:
		return domain.CoverageNotCovered
	}
}

// MissingSuggestion returns the advice for an item that is not fully covered.
func MissingSuggestion(item domain.RubricItem, verdict domain.Coverage) string {
	name := strings.TrimSpace(item.Name)
	desc := strings.TrimSpace(item.Description)
	if verdict == domain.CoveragePartial {
		return fmt.Sprintf("'%s' appears in the deck but the evidence is thin. Strengthen %s with figures or concrete examples.", name, desc)
	}
	return fmt.Sprintf("Add an explicit '%s' section. %s", name, desc)
}

// Interpretation describes what a group is judged on.
func Interpretation(group domain.RubricGroup) string {
	return fmt.Sprintf("%s is judged on: %s", group.Name, strings.Join(group.ItemNames(), ", "))
}

// CriteriaScoreID returns the stable criteria score ID of a group.
func CriteriaScoreID(groupID string) string {
	return "cs-" + strings.ToLower(groupID)
}

// GroupScore is a group's numbers before feedback is written.
type GroupScore struct {
	Raw      float64
	Coverage domain.Coverage
	Related  []int
	Missing  []domain.MissingItem
}

// ScoreGroup sums item scores, reduces coverage, and collects the
// related slides and missing items of one group.
func ScoreGroup(group domain.RubricGroup, results []domain.ItemResult, simMid float64) GroupScore {
	var gs GroupScore
	verdicts := make([]domain.Coverage, len(results))
	weights := make([]float64, len(results))
	related := make(map[int]bool)

	for i, r := range results {
		gs.Raw += r.Score
		verdicts[i] = r.Coverage
		weights[i] = r.Item.MaxScore

		if r.Coverage != domain.CoverageNotCovered && len(r.Evidences) > 0 {
			related[r.Evidences[0].SlideNumber] = true
			for _, e := range r.Evidences[1:] {
				if e.Similarity >= simMid-relatedSlack {
					related[e.SlideNumber] = true
				}
			}
		}
		if r.Coverage != domain.CoverageCovered {
			gs.Missing = append(gs.Missing, domain.MissingItem{
				ItemID:     r.Item.ID,
				ItemName:   r.Item.Name,
				Suggestion: MissingSuggestion(r.Item, r.Coverage),
			})
		}
	}

	if gs.Raw > 0 && len(related) == 0 {
		for _, r := range results {
			if len(r.Evidences) > 0 {
				related[r.Evidences[0].SlideNumber] = true
			}
		}
	}

	gs.Raw = textutil.Round2(math.Min(gs.Raw, group.MaxScore))
	gs.Coverage = ReduceCoverage(verdicts, weights)
	gs.Related = sortedSlides(related)
	if gs.Missing == nil {
		gs.Missing = []domain.MissingItem{}
	}
	return gs
}

// PercentScore converts raw points into a 0-100 score.
func PercentScore(raw, rawMax float64) int {
	if rawMax <= 0 {
		return 0
	}
	return int(textutil.Clamp(math.Round(raw/rawMax*100), 0, 100))
}

func sortedSlides(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
