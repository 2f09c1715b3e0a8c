package domain

// EvaluateOptions configures one evaluation run.
type EvaluateOptions struct {
	// PitchType selects the rubric. Empty means infer from the slides.
	PitchType string

	// AnalysisVersion is recorded in the report.
	AnalysisVersion int

	// Persist saves the report to the report store.
	Persist bool

	// Scoring overrides the engine settings for this run only.
	// The override must already be validated.
	Scoring *ScoringSettings
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	Evaluate EvaluateOptions

	// Parallelism bounds concurrently evaluated decks. Values below 1 mean 1.
	Parallelism int
}

// CalibrationCase pairs a deck with its label.
type CalibrationCase struct {
	Deck  *Deck
	Label Label
}
