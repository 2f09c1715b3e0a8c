package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// Presentation guide limits.
const (
	guideWeakCriteria      = 2
	guideSlidesPerCriteria = 2
	cardListLimit          = 3
	cardPreviewRunes       = 90
)

// BuildPresentationGuide suggests which slides to stress and how to pace
// the talk. Slides backing the two weakest criteria are emphasised.
func BuildPresentationGuide(
	slides []domain.Slide, criteria []domain.CriteriaScore, pitchType domain.PitchType,
) domain.PresentationGuide {
	weakest := make([]domain.CriteriaScore, len(criteria))
	copy(weakest, criteria)
	sort.SliceStable(weakest, func(i, j int) bool { return weakest[i].Score < weakest[j].Score })
	if len(weakest) > guideWeakCriteria {
		weakest = weakest[:guideWeakCriteria]
	}

	emphasized := []domain.EmphasizedSlide{}
	seen := make(map[int]bool)
	for _, c := range weakest {
		related := c.RelatedSlides
		if len(related) > guideSlidesPerCriteria {
			related = related[:guideSlidesPerCriteria]
		}
		for _, n := range related {
			if seen[n] {
				continue
			}
			seen[n] = true
			emphasized = append(emphasized, domain.EmphasizedSlide{
				SlideNumber: n,
				Reason:      fmt.Sprintf("Lead with the key figures and evidence on this slide to shore up %s.", c.CriteriaName),
			})
		}
	}
	if len(emphasized) == 0 && len(slides) > 0 {
		emphasized = append(emphasized, domain.EmphasizedSlide{
			SlideNumber: 1,
			Reason:      "State the opening message clearly.",
		})
	}

	return domain.PresentationGuide{
		EmphasizedSlides: emphasized,
		Guide: []string{
			"Open by stating the size of the problem and the target customer in one sentence.",
			"In the body, keep the order anchored on slides with quantitative evidence.",
			"Close by summarising the execution plan and the ask: investment, selection or support.",
			fmt.Sprintf("Keep returning to what %s reviewers look for (%s).", pitchType.Description(), pitchType),
		},
		TimeAllocation: []domain.TimeSlot{
			{Section: "opening", Seconds: 60},
			{Section: "body", Seconds: 360},
			{Section: "closing", Seconds: 60},
		},
	}
}

// BuildSlideCards scores every slide for the presenter and lists rule
// based strengths and improvements.
func BuildSlideCards(slides []domain.Slide, criteria []domain.CriteriaScore) []domain.SlideCard {
	scores := make(map[int][]int)
	names := make(map[int][]string)
	for _, c := range criteria {
		for _, n := range c.RelatedSlides {
			scores[n] = append(scores[n], c.Score)
			names[n] = append(names[n], c.CriteriaName)
		}
	}

	cards := make([]domain.SlideCard, len(slides))
	for i := range slides {
		s := &slides[i]
		score := slideScore(s, scores[s.Number])
		strengths, improvements := slideAdvice(s, uniqueSorted(names[s.Number]))
		detail := fmt.Sprintf("Slide %d (%s) scored %d. Summary: %s",
			s.Number, s.Category, score, textutil.Preview(s.ShortSummary, cardPreviewRunes))
		cards[i] = domain.SlideCard{
			SlideNumber:      s.Number,
			Category:         s.Category,
			Score:            score,
			ContentSummary:   s.ShortSummary,
			DetailedFeedback: detail,
			Strengths:        strengths,
			Improvements:     improvements,
		}
	}
	return cards
}

func slideScore(s *domain.Slide, linked []int) int {
	length := textutil.RuneLen(s.CleanText)
	digits := textutil.CountDigits(s.CleanText)

	score := 45
	if len(linked) > 0 {
		sum := 0
		for _, v := range linked {
			sum += v
		}
		score += int(math.Round(float64(sum) / float64(len(linked)) * 0.35))
	}
	score += int(math.Round(s.CategoryConfidence * 20))
	switch {
	case digits >= 8:
		score += 8
	case digits >= 3:
		score += 4
	}
	if s.Category == domain.CategoryOther {
		score -= 8
	}
	if length > 1200 {
		score -= 6
	}
	if length < 40 {
		score -= 10
	}
	if s.TextDeficient {
		score = min(score, 50)
	}
	return int(textutil.Clamp(float64(score), 0, 100))
}

func slideAdvice(s *domain.Slide, criteria []string) (strengths, improvements []string) {
	digits := textutil.CountDigits(s.CleanText)
	strengths = []string{}
	improvements = []string{}

	if s.Category != domain.CategoryOther {
		strengths = append(strengths, fmt.Sprintf("The slide carries a clear %s message.", s.Category))
	}
	if len(s.KeyClaims) >= 2 {
		strengths = append(strengths, "Two or more key claims make the point easy to follow.")
	}
	if digits >= 3 {
		strengths = append(strengths, "Figures on the slide support an objective argument.")
	}
	if len(criteria) > 0 {
		if len(criteria) > 2 {
			criteria = criteria[:2]
		}
		strengths = append(strengths, "Related criteria: "+strings.Join(criteria, ", "))
	}

	if s.TextDeficient {
		improvements = append(improvements, "There is little text evidence; add one or two key sentences or figures.")
	}
	if textutil.RuneLen(s.CleanText) > 900 {
		improvements = append(improvements, "The text is dense; compress it around the key sentences.")
	}
	if digits == 0 {
		improvements = append(improvements, "Add at least one quantitative data point such as market, users or revenue.")
	}
	if (s.Category == domain.CategoryMarket || s.Category == domain.CategoryBusinessModel) && digits < 2 {
		improvements = append(improvements, "Show the calculation, base year or source behind market and revenue figures.")
	}
	if s.Category == domain.CategoryTeam {
		improvements = append(improvements, "Give each member one line for role, background and results.")
	}
	if len(improvements) == 0 {
		improvements = append(improvements, "Promote one key claim to the title and keep two supporting points in the body.")
	}

	if len(strengths) > cardListLimit {
		strengths = strengths[:cardListLimit]
	}
	if len(improvements) > cardListLimit {
		improvements = improvements[:cardListLimit]
	}
	return strengths, improvements
}

func uniqueSorted(values []string) []string {
	set := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !set[v] {
			set[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
