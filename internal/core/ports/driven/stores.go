package driven

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// RubricStore loads scoring rubrics.
// Returned rubrics are validated and shared read-only; callers must not
// modify them.
type RubricStore interface {
	// Load returns the rubric for a pitch type.
	Load(pitchType domain.PitchType) (*domain.Rubric, error)

	// PitchTypes returns the pitch types this store can serve.
	PitchTypes() []domain.PitchType
}

// ReportStore persists evaluation reports.
type ReportStore interface {
	// Save stores or replaces a report.
	Save(ctx context.Context, report *domain.Report) error

	// Get retrieves a report by ID.
	// Returns domain.ErrNotFound if no report has the ID.
	Get(ctx context.Context, id string) (*domain.Report, error)

	// List returns the most recent reports first, at most limit entries.
	// A limit of zero or less returns all reports.
	List(ctx context.Context, limit int) ([]domain.ReportSummary, error)

	// Delete removes a report.
	// Returns domain.ErrNotFound if no report has the ID.
	Delete(ctx context.Context, id string) error
}

// DeckLoader turns a source file into the ingestion contract.
// Each loader handles specific file extensions.
type DeckLoader interface {
	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string

	// Load reads a deck from path.
	Load(ctx context.Context, path string) (*domain.Deck, error)
}

// DeckLoaderRegistry selects the appropriate loader for a file.
type DeckLoaderRegistry interface {
	// Load reads a deck with the loader registered for its extension.
	// Returns domain.ErrUnsupportedType for unknown extensions.
	Load(ctx context.Context, path string) (*domain.Deck, error)

	// Register adds a loader to the registry.
	Register(loader DeckLoader)

	// SupportedExtensions returns all extensions that can be loaded.
	SupportedExtensions() []string
}
