package domain

import "time"

// MissingItem is a rubric item the deck does not fully cover.
type MissingItem struct {
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name"`
	Suggestion string `json:"suggestion"`
}

// CriteriaScore is the scored outcome of one rubric group.
type CriteriaScore struct {
	ID             string        `json:"criteria_score_id"`
	CriteriaID     string        `json:"criteria_id"`
	CriteriaName   string        `json:"criteria_name"`
	Interpretation string        `json:"interpretation"`
	RawScore       float64       `json:"raw_score"`
	RawMaxScore    float64       `json:"raw_max_score"`
	Score          int           `json:"score"`
	IsCovered      bool          `json:"is_covered"`
	CoverageStatus Coverage      `json:"coverage_status"`
	Feedback       string        `json:"feedback"`
	RelatedSlides  []int         `json:"related_slides"`
	MissingItems   []MissingItem `json:"missing_items"`
	Confidence     float64       `json:"confidence"`
}

// HasEvidence reports whether at least one slide supports the score.
func (c *CriteriaScore) HasEvidence() bool {
	return len(c.RelatedSlides) > 0
}

// DeckScore is the deck-level summary of a run.
type DeckScore struct {
	TotalScore       int      `json:"total_score"`
	StructureSummary string   `json:"structure_summary"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	TopActions       []string `json:"top_actions"`
}

// SlideCard is per-slide feedback for the presenter.
type SlideCard struct {
	SlideNumber      int      `json:"slide_number"`
	Category         Category `json:"category"`
	Score            int      `json:"score"`
	ContentSummary   string   `json:"content_summary"`
	DetailedFeedback string   `json:"detailed_feedback"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
}

// EmphasizedSlide is a slide the presenter should lean on.
type EmphasizedSlide struct {
	SlideNumber int    `json:"slide_number"`
	Reason      string `json:"reason"`
}

// TimeSlot is a recommended time budget for one part of the talk.
type TimeSlot struct {
	Section string `json:"section"`
	Seconds int    `json:"seconds"`
}

// PresentationGuide is delivery advice derived from the scores.
type PresentationGuide struct {
	EmphasizedSlides []EmphasizedSlide `json:"emphasized_slides"`
	Guide            []string          `json:"guide"`
	TimeAllocation   []TimeSlot        `json:"time_allocation"`
}

// Analysis methods recorded in report metadata.
const (
	AnalysisMethodLLM       = "RAG+LLM"
	AnalysisMethodRuleBased = "RAG+RuleBased"
)

// ReportMeta describes how a report was produced.
type ReportMeta struct {
	Filename       string    `json:"filename"`
	TotalSlides    int       `json:"total_slides"`
	AnalysisModel  string    `json:"analysis_model,omitempty"`
	EmbeddingModel string    `json:"embedding_model"`
	FastMode       bool      `json:"fast_mode"`
	Degraded       []string  `json:"degraded_capabilities,omitempty"`
	Repairs        int       `json:"invariant_repairs"`
	CreatedAt      time.Time `json:"created_at"`
	ElapsedMS      int64     `json:"elapsed_ms"`
}

// Report is the complete, JSON-serialisable result of one evaluation.
type Report struct {
	ID                string            `json:"id"`
	AnalysisVersion   int               `json:"analysis_version"`
	AnalysisMethod    string            `json:"analysis_method"`
	PitchType         PitchType         `json:"pitch_type"`
	DeckScore         DeckScore         `json:"deck_score"`
	CriteriaScores    []CriteriaScore   `json:"criteria_scores"`
	Slides            []SlideCard       `json:"slides"`
	PresentationGuide PresentationGuide `json:"presentation_guide"`
	Meta              ReportMeta        `json:"meta"`
}

// Canonical returns a copy without the fields that vary between
// identical runs (id, timestamps, timings).
func (r *Report) Canonical() Report {
	c := *r
	c.ID = ""
	c.Meta.CreatedAt = time.Time{}
	c.Meta.ElapsedMS = 0
	return c
}

// CoverageCounts tallies group verdicts.
func (r *Report) CoverageCounts() (covered, partial, notCovered int) {
	for _, c := range r.CriteriaScores {
		switch c.CoverageStatus {
		case CoverageCovered:
			covered++
		case CoveragePartial:
			partial++
		default:
			notCovered++
		}
	}
	return covered, partial, notCovered
}

// ReportSummary is a lightweight listing entry for stored reports.
type ReportSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	PitchType  PitchType `json:"pitch_type"`
	TotalScore int       `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns the listing entry for r.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:         r.ID,
		Filename:   r.Meta.Filename,
		PitchType:  r.PitchType,
		TotalScore: r.DeckScore.TotalScore,
		CreatedAt:  r.Meta.CreatedAt,
	}
}
