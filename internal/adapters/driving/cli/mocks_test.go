package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// mockEvaluationService records the last call and returns a canned report.
type mockEvaluationService struct {
	report  *domain.Report
	err     error
	gotPath string
	gotDeck *domain.Deck
	gotOpts domain.EvaluateOptions
}

func (m *mockEvaluationService) Evaluate(_ context.Context, deck *domain.Deck, opts domain.EvaluateOptions) (*domain.Report, error) {
	m.gotDeck = deck
	m.gotOpts = opts
	return m.report, m.err
}

func (m *mockEvaluationService) EvaluateFile(_ context.Context, path string, opts domain.EvaluateOptions) (*domain.Report, error) {
	m.gotPath = path
	m.gotOpts = opts
	return m.report, m.err
}

// mockReportService is an in-memory report service.
type mockReportService struct {
	reports  map[string]*domain.Report
	gotLimit int
	deleted  []string
}

func (m *mockReportService) Get(_ context.Context, id string) (*domain.Report, error) {
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockReportService) List(_ context.Context, limit int) ([]domain.ReportSummary, error) {
	m.gotLimit = limit
	var out []domain.ReportSummary
	for _, r := range m.reports {
		out = append(out, r.Summary())
	}
	return out, nil
}

func (m *mockReportService) Delete(_ context.Context, id string) error {
	if _, ok := m.reports[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.reports, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// mockRubricService serves one rubric for every valid pitch type.
type mockRubricService struct {
	rubric *domain.Rubric
}

func (m *mockRubricService) Get(pitchType string) (*domain.Rubric, error) {
	if _, ok := domain.ParsePitchType(pitchType); !ok {
		return nil, domain.ErrInvalidInput
	}
	return m.rubric, nil
}

func (m *mockRubricService) PitchTypes() []domain.PitchType {
	return domain.AllPitchTypes()
}

// mockBatchService records runs and succeeds every path.
type mockBatchService struct {
	runs    [][]string
	gotOpts domain.BatchOptions
}

func (m *mockBatchService) Run(_ context.Context, paths []string, opts domain.BatchOptions) (*domain.BatchSummary, error) {
	m.runs = append(m.runs, paths)
	m.gotOpts = opts
	summary := &domain.BatchSummary{Total: len(paths), Succeeded: len(paths), AvgScore: 72}
	for i, p := range paths {
		summary.Rows = append(summary.Rows, domain.BatchRow{
			Index: i + 1, File: p, Status: domain.BatchStatusOK, TotalScore: 72, Covered: 4, Partial: 1, NotCovered: 1,
		})
	}
	return summary, nil
}

// mockCalibrationService records the cases and grid it receives.
type mockCalibrationService struct {
	gotCases []domain.CalibrationCase
	gotGrid  domain.CalibrationGrid
}

func (m *mockCalibrationService) Calibrate(
	_ context.Context, cases []domain.CalibrationCase, grid domain.CalibrationGrid,
) (*domain.CalibrationResult, error) {
	m.gotCases = cases
	m.gotGrid = grid
	best := domain.CalibrationTrial{
		SimHigh: 0.68, SimMid: 0.55, TopK: 3,
		Summary: domain.EvaluationSummary{Cases: len(cases), CoverageMacroF1: 0.81},
	}
	return &domain.CalibrationResult{
		Best:   best,
		Trials: []domain.CalibrationTrial{best},
		Confusion: domain.Confusion{
			TopErrors: []domain.ConfusionError{{Expected: "MARKET", Predicted: "PROBLEM", Count: 2}},
		},
	}, nil
}

func (m *mockCalibrationService) Evaluate(_ context.Context, cases []domain.CalibrationCase) (domain.EvaluationSummary, error) {
	m.gotCases = cases
	return domain.EvaluationSummary{Cases: len(cases), CoverageMacroF1: 0.5}, nil
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings     domain.AppSettings
	validateErr  error
	effectiveErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Effective() (*domain.AppSettings, error) {
	if m.effectiveErr != nil {
		return nil, m.effectiveErr
	}
	return m.Get()
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetScoring(scoring domain.ScoringSettings) error {
	if err := scoring.Validate(); err != nil {
		return err
	}
	m.settings.Scoring = scoring
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// mockLoaders loads a one-page deck for .json and .md files.
type mockLoaders struct{}

func (mockLoaders) Load(_ context.Context, path string) (*domain.Deck, error) {
	return &domain.Deck{
		Pages:    []domain.Page{{Text: "Problem"}},
		Metadata: domain.DeckMetadata{Filename: filepath.Base(path)},
	}, nil
}

func (mockLoaders) Register(driven.DeckLoader) {}

func (mockLoaders) SupportedExtensions() []string { return []string{".json", ".md"} }

func sampleReport() *domain.Report {
	return &domain.Report{
		ID:             "rep-1",
		AnalysisMethod: domain.AnalysisMethodRuleBased,
		PitchType:      domain.PitchTypeVCDemo,
		DeckScore: domain.DeckScore{
			TotalScore:       72,
			StructureSummary: "Clear problem, thin financials.",
			Strengths:        []string{"Strong team slide"},
			Improvements:     []string{"Add unit economics"},
			TopActions:       []string{"Show CAC and LTV"},
		},
		CriteriaScores: []domain.CriteriaScore{
			{
				CriteriaID: "PROBLEM", CriteriaName: "Problem", Score: 90,
				CoverageStatus: domain.CoverageCovered, RelatedSlides: []int{2, 3},
				Feedback: "Well evidenced.",
			},
			{
				CriteriaID: "FINANCE", CriteriaName: "Finance", Score: 20,
				CoverageStatus: domain.CoverageNotCovered,
				MissingItems:   []domain.MissingItem{{ItemID: "F1", ItemName: "Revenue model"}},
			},
		},
		PresentationGuide: domain.PresentationGuide{
			TimeAllocation: []domain.TimeSlot{{Section: "Problem", Seconds: 45}},
		},
		Meta: domain.ReportMeta{
			Filename:    "pitch.md",
			TotalSlides: 8,
			Degraded:    []string{"embedding"},
			CreatedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
	}
}

func sampleRubric() *domain.Rubric {
	return &domain.Rubric{
		PitchType: domain.PitchTypeVCDemo,
		Version:   "1",
		Groups: []domain.RubricGroup{{
			ID: "PROBLEM", Name: "Problem", Weight: 1, MaxScore: 100,
			Items: []domain.RubricItem{
				{ID: "P1", Name: "Pain point", Description: "Who hurts and how much", FailIfMissing: true},
			},
		}},
	}
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	evaluation  *mockEvaluationService
	reports     *mockReportService
	rubrics     *mockRubricService
	batch       *mockBatchService
	calibration *mockCalibrationService
	settings    *mockSettingsService
}

// setupTestServices installs mocks and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		evaluation:  &mockEvaluationService{report: sampleReport()},
		reports:     &mockReportService{reports: map[string]*domain.Report{"rep-1": sampleReport()}},
		rubrics:     &mockRubricService{rubric: sampleRubric()},
		batch:       &mockBatchService{},
		calibration: &mockCalibrationService{},
		settings:    &mockSettingsService{settings: domain.DefaultAppSettings()},
	}
	SetServices(&Services{
		Evaluation:  ts.evaluation,
		Reports:     ts.reports,
		Rubrics:     ts.rubrics,
		Batch:       ts.batch,
		Calibration: ts.calibration,
		Settings:    ts.settings,
		Loaders:     mockLoaders{},
	})
	return ts, func() {
		SetServices(nil)
		resetFlags(rootCmd)
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so values do not leak
// between tests sharing the package-level commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
