package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// Ensure CalibrationService implements the interface.
var _ driving.CalibrationService = (*CalibrationService)(nil)

// missingPrediction marks a labelled slide absent from the report.
const missingPrediction = "MISSING"

// CalibrationService grid-searches coverage thresholds against labelled
// decks. Every trial runs in fast mode so results are reproducible.
type CalibrationService struct {
	evaluator driving.EvaluationService
	base      domain.ScoringSettings
}

// NewCalibrationService creates a calibration service. Trials start from
// base and override the thresholds, top-k, fast mode and LLM budget.
func NewCalibrationService(evaluator driving.EvaluationService, base domain.ScoringSettings) *CalibrationService {
	return &CalibrationService{evaluator: evaluator, base: base}
}

// Evaluate scores every case with the base settings and compares the
// reports against their labels.
func (s *CalibrationService) Evaluate(ctx context.Context, cases []domain.CalibrationCase) (domain.EvaluationSummary, error) {
	settings := s.base
	records, _, err := s.run(ctx, cases, &settings)
	if err != nil {
		return domain.EvaluationSummary{}, err
	}
	return AggregateEvaluations(records), nil
}

// Calibrate runs one trial per grid point, skipping points with
// mid >= high, and returns the best trial by EvaluationSummary.Better.
// The confusion matrix describes the best trial.
func (s *CalibrationService) Calibrate(
	ctx context.Context, cases []domain.CalibrationCase, grid domain.CalibrationGrid,
) (*domain.CalibrationResult, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no labelled cases", domain.ErrInvalidInput)
	}
	logger.Section("Calibration")

	result := &domain.CalibrationResult{Trials: []domain.CalibrationTrial{}}
	var bestReports []*domain.Report
	found := false

	for _, high := range grid.Highs {
		for _, mid := range grid.Mids {
			if mid >= high {
				continue
			}
			for _, k := range grid.TopKs {
				settings := s.base
				settings.SimHigh = high
				settings.SimMid = mid
				settings.SimLow = 0
				settings.TopK = k
				settings.FastMode = true
				settings.LLMSlideLimit = 0
				if err := settings.Validate(); err != nil {
					logger.Warn("Skipping grid point high=%.2f mid=%.2f k=%d: %v", high, mid, k, err)
					continue
				}

				records, reports, err := s.run(ctx, cases, &settings)
				if err != nil {
					return nil, err
				}
				trial := domain.CalibrationTrial{
					SimHigh: high,
					SimMid:  mid,
					TopK:    k,
					Summary: AggregateEvaluations(records),
				}
				logger.Debug("Trial high=%.2f mid=%.2f k=%d macro-F1=%.4f", high, mid, k, trial.Summary.CoverageMacroF1)
				result.Trials = append(result.Trials, trial)
				if !found || trial.Summary.Better(result.Best.Summary) {
					result.Best = trial
					bestReports = reports
					found = true
				}
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: calibration grid has no valid points", domain.ErrInvalidConfig)
	}

	var pairs [][2]string
	for i, c := range cases {
		pairs = append(pairs, slideCategoryPairs(c.Label, bestReports[i])...)
	}
	result.Confusion = BuildConfusion(pairs)
	return result, nil
}

func (s *CalibrationService) run(
	ctx context.Context, cases []domain.CalibrationCase, settings *domain.ScoringSettings,
) ([]domain.LabelEvaluation, []*domain.Report, error) {
	records := make([]domain.LabelEvaluation, 0, len(cases))
	reports := make([]*domain.Report, 0, len(cases))
	for _, c := range cases {
		report, err := s.evaluator.Evaluate(ctx, c.Deck, domain.EvaluateOptions{
			PitchType: c.Label.PitchType,
			Scoring:   settings,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("evaluate %s: %w", c.Label.ID, err)
		}
		records = append(records, EvaluateLabel(c.Label, report))
		reports = append(reports, report)
	}
	return records, reports, nil
}

// EvaluateLabel compares one report with its label.
func EvaluateLabel(label domain.Label, report *domain.Report) domain.LabelEvaluation {
	ev := domain.LabelEvaluation{
		LabelID:       label.ID,
		Filename:      label.Filename,
		CoverageStats: make(map[domain.Coverage]domain.ClassCounts, 3),
	}
	for _, c := range domain.AllCoverages() {
		ev.CoverageStats[c] = domain.ClassCounts{}
	}

	expectedPitch, _ := domain.ParsePitchType(label.PitchType)
	ev.PitchTypeMatch = expectedPitch != "" && expectedPitch == report.PitchType

	predicted := make(map[string]*domain.CriteriaScore, len(report.CriteriaScores))
	for i := range report.CriteriaScores {
		predicted[report.CriteriaScores[i].CriteriaID] = &report.CriteriaScores[i]
	}

	for _, gl := range label.GroupLabels {
		ev.GroupCoverageTotal++
		expected := domain.ParseCoverage(gl.ExpectedCoverage)
		got := domain.CoverageNotCovered
		var related []int
		if p, ok := predicted[gl.GroupID]; ok {
			got = domain.ParseCoverage(string(p.CoverageStatus))
			related = p.RelatedSlides
		}
		if expected == got {
			ev.GroupCoverageMatch++
		}
		for _, c := range domain.AllCoverages() {
			counts := ev.CoverageStats[c]
			switch {
			case got == c && expected == c:
				counts.TP++
			case got == c:
				counts.FP++
			case expected == c:
				counts.FN++
			}
			ev.CoverageStats[c] = counts
		}

		if expected != domain.CoverageNotCovered && len(gl.RelatedSlides) > 0 {
			ev.RelatedTotal++
			if intersects(gl.RelatedSlides, related) {
				ev.RelatedHit++
			}
		}
	}

	for _, pair := range slideCategoryPairs(label, report) {
		ev.SlideCategoryTotal++
		if pair[0] == pair[1] {
			ev.SlideCategoryMatch++
		}
	}
	return ev
}

// AggregateEvaluations folds label evaluations into rates rounded to
// four decimals, including the macro-F1 over the three coverage classes.
func AggregateEvaluations(records []domain.LabelEvaluation) domain.EvaluationSummary {
	if len(records) == 0 {
		return domain.EvaluationSummary{}
	}
	var pitch, gcNum, gcDen, rsNum, rsDen, scNum, scDen int
	totals := make(map[domain.Coverage]domain.ClassCounts, 3)
	for _, r := range records {
		if r.PitchTypeMatch {
			pitch++
		}
		gcNum += r.GroupCoverageMatch
		gcDen += r.GroupCoverageTotal
		rsNum += r.RelatedHit
		rsDen += r.RelatedTotal
		scNum += r.SlideCategoryMatch
		scDen += r.SlideCategoryTotal
		for c, counts := range r.CoverageStats {
			t := totals[c]
			t.TP += counts.TP
			t.FP += counts.FP
			t.FN += counts.FN
			totals[c] = t
		}
	}

	f1Sum := 0.0
	for _, c := range domain.AllCoverages() {
		f1Sum += f1(totals[c])
	}
	return domain.EvaluationSummary{
		Cases:                 len(records),
		PitchTypeAccuracy:     round4(float64(pitch) / float64(len(records))),
		GroupCoverageAccuracy: round4(ratio(gcNum, gcDen)),
		RelatedSlideHitRate:   round4(ratio(rsNum, rsDen)),
		SlideCategoryAccuracy: round4(ratio(scNum, scDen)),
		CoverageMacroF1:       round4(f1Sum / 3),
	}
}

// BuildConfusion builds an expected-by-predicted matrix from category
// pairs. Top errors are sorted by count, then by category names.
func BuildConfusion(pairs [][2]string) domain.Confusion {
	matrix := make(map[string]map[string]int)
	errs := make(map[[2]string]int)
	for _, p := range pairs {
		row, ok := matrix[p[0]]
		if !ok {
			row = make(map[string]int)
			matrix[p[0]] = row
		}
		row[p[1]]++
		if p[0] != p[1] {
			errs[p]++
		}
	}

	top := make([]domain.ConfusionError, 0, len(errs))
	for k, n := range errs {
		top = append(top, domain.ConfusionError{Expected: k[0], Predicted: k[1], Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		if top[i].Expected != top[j].Expected {
			return top[i].Expected < top[j].Expected
		}
		return top[i].Predicted < top[j].Predicted
	})
	return domain.Confusion{Matrix: matrix, TopErrors: top}
}

// slideCategoryPairs returns (expected, predicted) category names for
// every labelled slide.
func slideCategoryPairs(label domain.Label, report *domain.Report) [][2]string {
	predicted := make(map[int]domain.Category, len(report.Slides))
	for _, s := range report.Slides {
		predicted[s.SlideNumber] = s.Category
	}
	pairs := make([][2]string, 0, len(label.SlideLabels))
	for _, sl := range label.SlideLabels {
		expected, _ := domain.ParseCategory(sl.ExpectedCategory)
		got := missingPrediction
		if c, ok := predicted[sl.SlideNumber]; ok {
			got = c.String()
		}
		pairs = append(pairs, [2]string{expected.String(), got})
	}
	return pairs
}

func f1(c domain.ClassCounts) float64 {
	precision := ratio(c.TP, c.TP+c.FP)
	recall := ratio(c.TP, c.TP+c.FN)
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func intersects(a, b []int) bool {
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}
