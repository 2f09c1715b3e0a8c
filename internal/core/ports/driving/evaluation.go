package driving

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// EvaluationService scores pitch decks against a rubric.
type EvaluationService interface {
	// Evaluate scores an already ingested deck.
	// Returns domain.ErrIngestionEmpty when the deck has no pages.
	Evaluate(ctx context.Context, deck *domain.Deck, opts domain.EvaluateOptions) (*domain.Report, error)

	// EvaluateFile loads a deck from path and scores it.
	EvaluateFile(ctx context.Context, path string, opts domain.EvaluateOptions) (*domain.Report, error)
}

// ReportService reads and manages stored reports.
type ReportService interface {
	// Get retrieves a report by ID.
	Get(ctx context.Context, id string) (*domain.Report, error)

	// List returns the most recent reports first.
	List(ctx context.Context, limit int) ([]domain.ReportSummary, error)

	// Delete removes a report.
	Delete(ctx context.Context, id string) error
}

// RubricService exposes the configured rubrics.
type RubricService interface {
	// Get returns the rubric for a pitch type name or alias.
	Get(pitchType string) (*domain.Rubric, error)

	// PitchTypes returns every pitch type with a rubric.
	PitchTypes() []domain.PitchType
}

// BatchService evaluates many decks.
type BatchService interface {
	// Run evaluates every path and summarises the outcomes.
	// A failing deck is recorded as a failed row and does not stop the batch.
	Run(ctx context.Context, paths []string, opts domain.BatchOptions) (*domain.BatchSummary, error)
}

// CalibrationService searches scoring thresholds against labelled decks.
type CalibrationService interface {
	// Calibrate evaluates every grid point and ranks the results.
	Calibrate(ctx context.Context, cases []domain.CalibrationCase, grid domain.CalibrationGrid) (*domain.CalibrationResult, error)

	// Evaluate compares reports against labels with the current settings.
	Evaluate(ctx context.Context, cases []domain.CalibrationCase) (domain.EvaluationSummary, error)
}
