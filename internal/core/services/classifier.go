package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/logger"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// Summary and claim limits.
const (
	keywordSummaryRunes = 180
	llmSummaryRunes     = 280
	claimMinRunes       = 15
	maxClaims           = 5
	emptySlideSummary   = "no extractable text"
)

// KeywordClassifier assigns categories from trigger phrases and slide
// position. It is deterministic and needs no external service.
type KeywordClassifier struct{}

// Classify returns the keyword classification of slide in a deck of
// total slides.
func (KeywordClassifier) Classify(slide *domain.Slide, total int) domain.Classification {
	if slide.CleanText == "" {
		return domain.Classification{
			Category:     domain.CategoryOther,
			Confidence:   0.2,
			ShortSummary: emptySlideSummary,
			KeyClaims:    []string{},
		}
	}
	category, confidence := keywordCategory(slide, total)
	return domain.Classification{
		Category:     category,
		Confidence:   confidence,
		ShortSummary: textutil.Truncate(slide.CleanText, keywordSummaryRunes),
		KeyClaims:    textutil.SplitClaims(slide.CleanText, claimMinRunes, maxClaims),
	}
}

func keywordCategory(slide *domain.Slide, total int) (domain.Category, float64) {
	t := textutil.Normalize(slide.CleanText)
	tokens := len(textutil.Tokenize(t))
	lines := textutil.CountLines(slide.RawText)
	digits := textutil.CountDigits(t)

	market := textutil.ContainsAny(t, marketCore)
	plan := textutil.ContainsAny(t, planCore)
	traction := textutil.ContainsAny(t, tractionCore)
	product := textutil.ContainsAny(t, productCore)
	solution := textutil.ContainsAny(t, solutionCore)
	team := textutil.ContainsAny(t, teamCore)
	cover := textutil.ContainsAny(t, coverCore)

	if total > 0 {
		if slide.Number == 1 && tokens <= 40 {
			return domain.CategoryCover, 0.82
		}
		if slide.Number == total && tokens <= 60 {
			return domain.CategoryCover, 0.80
		}
	}
	if textutil.RuneLen(t) < 130 && textutil.ContainsAny(t, deckTitleWords) {
		return domain.CategoryCover, 0.78
	}
	if cover && tokens <= 20 && lines <= 4 && digits == 0 {
		return domain.CategoryCover, 0.70
	}
	if tokens <= 10 && digits == 0 && !(market || traction || product || solution || team) {
		return domain.CategoryCover, 0.66
	}
	if total > 0 && slide.Number <= 2 && team {
		return domain.CategoryTeam, 0.70
	}

	scores := make(map[domain.Category]float64, len(categoryKeywords))
	for category, phrases := range categoryKeywords {
		scores[category] = float64(textutil.CountContained(t, phrases))
	}

	if digits >= 8 {
		scores[domain.CategoryMarket] += 1.0
		scores[domain.CategoryBusinessModel] += 0.9
		scores[domain.CategoryTraction] += 0.7
	}
	if market {
		scores[domain.CategoryMarket] += 1.0
	} else {
		scores[domain.CategoryMarket] -= 0.6
	}
	if plan {
		scores[domain.CategoryAsk] += 1.1
		scores[domain.CategoryTraction] -= 0.4
	}
	if traction {
		scores[domain.CategoryTraction] += 1.2
		scores[domain.CategoryProblem] -= 0.3
	}
	if product {
		scores[domain.CategoryProduct] += 1.2
		if plan {
			scores[domain.CategoryProduct] += 0.4
			scores[domain.CategoryAsk] -= 0.3
		}
	}
	if solution {
		scores[domain.CategorySolution] += 1.2
		if !product {
			scores[domain.CategoryProduct] -= 0.5
		}
	}
	if team {
		scores[domain.CategoryTeam] += 1.4
		scores[domain.CategoryTraction] -= 0.4
		scores[domain.CategorySolution] -= 0.3
	}
	// Problem-then-solution slides lean towards SOLUTION.
	if solution && textutil.ContainsAny(t, problemWords) {
		scores[domain.CategorySolution] += 0.6
		scores[domain.CategoryProblem] += 0.3
	}

	best := domain.CategoryOther
	bestScore := 0.0
	for _, c := range categoryPriority {
		s, ok := scores[c]
		if !ok {
			continue
		}
		if best == domain.CategoryOther || s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore < 1.0 {
		return domain.CategoryOther, 0.35
	}
	return best, textutil.Clamp01(0.45 + min(0.40, bestScore/9.0))
}

// ClassificationService classifies the slides of a deck, preferring the
// optional LLM classifier and falling back to keywords.
type ClassificationService struct {
	llm     driven.SlideClassifier
	keyword KeywordClassifier
}

// NewClassificationService creates a classification service.
// The llm parameter is optional (can be nil).
func NewClassificationService(llm driven.SlideClassifier) *ClassificationService {
	return &ClassificationService{llm: llm}
}

// Classify classifies one slide. The LLM classifier is consulted only when
// useLLM is set. The boolean reports whether the keyword fallback served
// a slide that was meant for the LLM.
func (s *ClassificationService) Classify(
	ctx context.Context, slide *domain.Slide, total int, useLLM bool,
) (domain.Classification, bool) {
	fallback := s.keyword.Classify(slide, total)
	if !useLLM || s.llm == nil || slide.CleanText == "" {
		return fallback, false
	}

	c, err := s.llm.Classify(ctx, slide)
	if err != nil {
		logger.Debug("Slide %d: LLM classification failed, using keywords: %v", slide.Number, err)
		return fallback, true
	}
	if !c.Category.IsValid() {
		logger.Debug("Slide %d: LLM returned unknown category %q, using keywords", slide.Number, c.Category)
		return fallback, true
	}

	c.Confidence = textutil.Clamp01(c.Confidence)
	c.ShortSummary = textutil.Truncate(c.ShortSummary, llmSummaryRunes)
	if c.ShortSummary == "" {
		c.ShortSummary = fallback.ShortSummary
	}
	if len(c.KeyClaims) > maxClaims {
		c.KeyClaims = c.KeyClaims[:maxClaims]
	}
	if c.KeyClaims == nil {
		c.KeyClaims = fallback.KeyClaims
	}
	return c, false
}

// ClassifyAll classifies every slide in place with at most
// settings.Workers slides in flight. Slides past settings.LLMSlideLimit,
// and every slide in fast mode, use the keyword classifier.
func (s *ClassificationService) ClassifyAll(
	ctx context.Context, slides []domain.Slide, settings domain.ScoringSettings, log *DegradationLog,
) error {
	results := make([]domain.Classification, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, settings.Workers))
	for i := range slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			useLLM := !settings.FastMode && i < settings.LLMSlideLimit
			c, fellBack := s.Classify(gctx, &slides[i], len(slides), useLLM)
			if fellBack {
				log.Record(domain.CapabilityClassifier)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("classify slides: %w", err)
	}

	for i := range slides {
		results[i].Apply(&slides[i])
	}
	return nil
}
