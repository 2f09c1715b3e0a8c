package mcp

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// mockEvaluationService is a mock implementation of driving.EvaluationService.
type mockEvaluationService struct {
	report   *domain.Report
	err      error
	lastPath string
	lastDeck *domain.Deck
	lastOpts domain.EvaluateOptions
}

func (m *mockEvaluationService) Evaluate(
	_ context.Context, deck *domain.Deck, opts domain.EvaluateOptions,
) (*domain.Report, error) {
	m.lastDeck = deck
	m.lastOpts = opts
	return m.report, m.err
}

func (m *mockEvaluationService) EvaluateFile(
	_ context.Context, path string, opts domain.EvaluateOptions,
) (*domain.Report, error) {
	m.lastPath = path
	m.lastOpts = opts
	return m.report, m.err
}

// mockReportService is a mock implementation of driving.ReportService.
type mockReportService struct {
	report    *domain.Report
	summaries []domain.ReportSummary
	err       error
	lastID    string
	lastLimit int
}

func (m *mockReportService) Get(_ context.Context, id string) (*domain.Report, error) {
	m.lastID = id
	return m.report, m.err
}

func (m *mockReportService) List(_ context.Context, limit int) ([]domain.ReportSummary, error) {
	m.lastLimit = limit
	return m.summaries, m.err
}

func (m *mockReportService) Delete(_ context.Context, id string) error {
	m.lastID = id
	return m.err
}

// mockRubricService is a mock implementation of driving.RubricService.
type mockRubricService struct {
	rubric *domain.Rubric
	err    error
	asked  string
}

func (m *mockRubricService) Get(pitchType string) (*domain.Rubric, error) {
	m.asked = pitchType
	return m.rubric, m.err
}

func (m *mockRubricService) PitchTypes() []domain.PitchType {
	return domain.AllPitchTypes()
}

// sampleReport returns a small scored report.
func sampleReport() *domain.Report {
	return &domain.Report{
		ID:             "rep-1",
		AnalysisMethod: domain.AnalysisMethodRuleBased,
		PitchType:      domain.PitchTypeVCDemo,
		DeckScore: domain.DeckScore{
			TotalScore:       72,
			StructureSummary: "Clear problem, thin traction.",
			Strengths:        []string{"Problem is concrete"},
			TopActions:       []string{"Add revenue figures"},
		},
		CriteriaScores: []domain.CriteriaScore{
			{
				CriteriaID:     "PROBLEM",
				CriteriaName:   "Problem",
				Score:          18,
				CoverageStatus: domain.CoverageCovered,
				RelatedSlides:  []int{2},
				Feedback:       "Well evidenced.",
			},
			{
				CriteriaID:     "TRACTION",
				CriteriaName:   "Traction",
				Score:          0,
				CoverageStatus: domain.CoverageNotCovered,
				MissingItems:   []domain.MissingItem{{ItemID: "TR_01", ItemName: "Traction metrics"}},
			},
		},
		Meta: domain.ReportMeta{Filename: "acme.md", Degraded: []string{"classifier"}},
	}
}
