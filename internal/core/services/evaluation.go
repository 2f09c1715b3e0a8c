package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// defaultAnalysisVersion is recorded when the caller does not set one.
const defaultAnalysisVersion = 1

// EvaluationDeps holds the collaborators of the evaluation service.
// Rubrics is required; every other field is optional.
type EvaluationDeps struct {
	Rubrics driven.RubricStore
	Loaders driven.DeckLoaderRegistry
	Reports driven.ReportStore

	Embedding  driven.EmbeddingService
	Classifier driven.SlideClassifier
	Reviewer   driven.CoverageReviewer
	Narrator   driven.Narrator

	// AnalysisModel names the LLM behind the generative capabilities.
	AnalysisModel string

	Metrics driven.MetricsRecorder
}

// EvaluationService runs the scoring pipeline: slide building,
// classification, pitch type resolution, embedding, retrieval, coverage
// decisions, group scoring, repair and aggregation.
type EvaluationService struct {
	deps       EvaluationDeps
	settings   domain.ScoringSettings
	classifier *ClassificationService
	embeddings *EmbeddingGateway
	metrics    driven.MetricsRecorder
	now        func() time.Time
}

// NewEvaluationService creates an evaluation service. The settings must
// already be validated; they are shared read-only by every run.
func NewEvaluationService(deps EvaluationDeps, settings domain.ScoringSettings) *EvaluationService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &EvaluationService{
		deps:       deps,
		settings:   settings,
		classifier: NewClassificationService(deps.Classifier),
		embeddings: NewEmbeddingGateway(deps.Embedding),
		metrics:    metrics,
		now:        time.Now,
	}
}

// Settings returns the engine's default scoring settings.
func (s *EvaluationService) Settings() domain.ScoringSettings {
	return s.settings
}

// EvaluateFile loads a deck from path and scores it.
func (s *EvaluationService) EvaluateFile(
	ctx context.Context, path string, opts domain.EvaluateOptions,
) (*domain.Report, error) {
	if s.deps.Loaders == nil {
		return nil, fmt.Errorf("load %s: %w: no deck loaders configured", path, domain.ErrUnsupportedType)
	}
	deck, err := s.deps.Loaders.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if deck.Metadata.Filename == "" {
		deck.Metadata.Filename = filepath.Base(path)
	}
	return s.Evaluate(ctx, deck, opts)
}

// Evaluate scores a deck. It fails only on empty input, an unknown
// rubric, cancellation or a persistence error; unavailable capabilities
// degrade to their deterministic fallbacks.
func (s *EvaluationService) Evaluate(
	ctx context.Context, deck *domain.Deck, opts domain.EvaluateOptions,
) (*domain.Report, error) {
	start := s.now()
	settings := s.settings
	if opts.Scoring != nil {
		settings = *opts.Scoring
	}
	if deck == nil || len(deck.Pages) == 0 {
		return nil, domain.ErrIngestionEmpty
	}

	logger.Section("Evaluation")
	slides := BuildSlides(deck.Pages)
	logger.Debug("Built %d slides from %q", len(slides), deck.Metadata.Filename)
	degraded := NewDegradationLog(s.metrics)

	if err := s.classifier.ClassifyAll(ctx, slides, settings, degraded); err != nil {
		return nil, err
	}

	pitchType := ResolvePitchType(opts.PitchType, slides)
	rubric, err := s.deps.Rubrics.Load(pitchType)
	if err != nil {
		return nil, fmt.Errorf("load rubric %s: %w", pitchType, err)
	}
	logger.Debug("Pitch type %s, rubric with %d groups", pitchType, len(rubric.Groups))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	itemVectors, embeddingModel := s.embed(ctx, slides, rubric, degraded)

	results, err := s.scoreItems(ctx, slides, rubric, itemVectors, settings, degraded)
	if err != nil {
		return nil, err
	}

	writer := NewFeedbackWriter(s.deps.Narrator, settings.FastMode)
	criteria, err := s.scoreGroups(ctx, rubric, results, settings, writer, degraded)
	if err != nil {
		return nil, err
	}
	repairs := RepairCriteria(criteria, s.metrics)

	deckScore := AggregateDeck(rubric, criteria)
	summary, failed := writer.StructureSummary(ctx, pitchType, criteria)
	if failed {
		degraded.Record(domain.CapabilityNarrator)
	}
	deckScore.StructureSummary = summary

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	version := opts.AnalysisVersion
	if version <= 0 {
		version = defaultAnalysisVersion
	}
	method := s.analysisMethod(settings)
	elapsed := s.now().Sub(start)
	report := &domain.Report{
		ID:                uuid.NewString(),
		AnalysisVersion:   version,
		AnalysisMethod:    method,
		PitchType:         pitchType,
		DeckScore:         deckScore,
		CriteriaScores:    criteria,
		Slides:            BuildSlideCards(slides, criteria),
		PresentationGuide: BuildPresentationGuide(slides, criteria, pitchType),
		Meta: domain.ReportMeta{
			Filename:       deck.Metadata.Filename,
			TotalSlides:    len(slides),
			EmbeddingModel: embeddingModel,
			FastMode:       settings.FastMode,
			Degraded:       degraded.Capabilities(),
			Repairs:        repairs,
			CreatedAt:      start.UTC(),
			ElapsedMS:      elapsed.Milliseconds(),
		},
	}
	if method == domain.AnalysisMethodLLM {
		report.Meta.AnalysisModel = s.deps.AnalysisModel
	}
	s.metrics.ObserveEvaluation(method, pitchType, elapsed)
	logger.Debug("Total score %d in %v", deckScore.TotalScore, elapsed)

	if opts.Persist && s.deps.Reports != nil {
		if err := s.deps.Reports.Save(ctx, report); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}
	return report, nil
}

// embed fills slide vectors and returns the item vectors, indexed like
// the flattened rubric items. Slides and items go through one gateway
// call so their vectors always share a model.
func (s *EvaluationService) embed(
	ctx context.Context, slides []domain.Slide, rubric *domain.Rubric, degraded *DegradationLog,
) ([][]float32, string) {
	texts := make([]string, 0, len(slides)+rubric.ItemCount())
	for i := range slides {
		texts = append(texts, slides[i].EmbeddingText())
	}
	for _, g := range rubric.Groups {
		for _, it := range g.Items {
			texts = append(texts, it.EmbeddingText())
		}
	}

	vectors, model, failed := s.embeddings.Embed(ctx, texts)
	if failed {
		degraded.Record(domain.CapabilityEmbedding)
	}
	for i := range slides {
		slides[i].Embedding = vectors[i]
	}
	return vectors[len(slides):], model
}

// scoreItems retrieves evidence and decides coverage for every rubric
// item concurrently. Results are indexed like the flattened items.
func (s *EvaluationService) scoreItems(
	ctx context.Context,
	slides []domain.Slide,
	rubric *domain.Rubric,
	itemVectors [][]float32,
	settings domain.ScoringSettings,
	degraded *DegradationLog,
) ([]domain.ItemResult, error) {
	corpus := NewCorpus(slides)
	retriever := NewRetriever(settings)
	decider := NewCoverageDecider(s.deps.Reviewer, settings)
	topK := settings.EffectiveTopK()

	results := make([]domain.ItemResult, rubric.ItemCount())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, settings.Workers))

	idx := 0
	for _, group := range rubric.Groups {
		priors := group.Priors()
		for _, item := range group.Items {
			i := idx
			idx++
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				evidences := retriever.Retrieve(Query{Item: item, Vector: itemVectors[i], Priors: priors}, corpus, topK)
				top := 0.0
				if len(evidences) > 0 {
					top = evidences[0].Similarity
				}
				coverage, failed := decider.Decide(gctx, item, evidences)
				if failed {
					degraded.Record(domain.CapabilityReviewer)
				}
				results[i] = domain.ItemResult{
					Item:          item,
					Evidences:     evidences,
					MaxSimilarity: top,
					Coverage:      coverage,
					Score:         ScoreItem(item.MaxScore, coverage, top, settings.SimHigh),
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score items: %w", err)
	}
	return results, nil
}

// scoreGroups turns item results into criteria scores in rubric order.
func (s *EvaluationService) scoreGroups(
	ctx context.Context,
	rubric *domain.Rubric,
	results []domain.ItemResult,
	settings domain.ScoringSettings,
	writer *FeedbackWriter,
	degraded *DegradationLog,
) ([]domain.CriteriaScore, error) {
	criteria := make([]domain.CriteriaScore, len(rubric.Groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, settings.Workers))

	offset := 0
	for gi, group := range rubric.Groups {
		items := results[offset : offset+len(group.Items)]
		offset += len(group.Items)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gs := ScoreGroup(group, items, settings.SimMid)
			feedback, confidence, failed := writer.GroupFeedback(gctx, group, items, gs.Missing)
			if failed {
				degraded.Record(domain.CapabilityNarrator)
			}
			criteria[gi] = domain.CriteriaScore{
				ID:             CriteriaScoreID(group.ID),
				CriteriaID:     group.ID,
				CriteriaName:   group.Name,
				Interpretation: Interpretation(group),
				RawScore:       gs.Raw,
				RawMaxScore:    group.MaxScore,
				Score:          PercentScore(gs.Raw, group.MaxScore),
				IsCovered:      gs.Coverage != domain.CoverageNotCovered,
				CoverageStatus: gs.Coverage,
				Feedback:       feedback,
				RelatedSlides:  gs.Related,
				MissingItems:   gs.Missing,
				Confidence:     confidence,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score groups: %w", err)
	}
	return criteria, nil
}

// analysisMethod reports whether any generative capability could have
// taken part in the run.
func (s *EvaluationService) analysisMethod(settings domain.ScoringSettings) string {
	if settings.FastMode {
		return domain.AnalysisMethodRuleBased
	}
	if s.deps.Classifier != nil || s.deps.Reviewer != nil || s.deps.Narrator != nil {
		return domain.AnalysisMethodLLM
	}
	return domain.AnalysisMethodRuleBased
}

// IsCancelled reports whether err comes from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
