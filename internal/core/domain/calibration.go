package domain

// GroupLabel is the expected outcome of one rubric group.
type GroupLabel struct {
	GroupID          string `json:"group_id"`
	ExpectedCoverage string `json:"expected_coverage"`
	RelatedSlides    []int  `json:"related_slides"`
}

// SlideLabel is the expected category of one slide.
type SlideLabel struct {
	SlideNumber      int    `json:"slide_number"`
	ExpectedCategory string `json:"expected_category"`
}

// Label is a hand-annotated evaluation of one deck.
type Label struct {
	ID          string       `json:"label_id"`
	Filename    string       `json:"filename"`
	PitchType   string       `json:"pitch_type"`
	GroupLabels []GroupLabel `json:"group_labels"`
	SlideLabels []SlideLabel `json:"slide_classification_labels"`
}

// ClassCounts holds confusion counts for one coverage class.
type ClassCounts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// LabelEvaluation compares one report against its label.
type LabelEvaluation struct {
	LabelID            string                   `json:"label_id"`
	Filename           string                   `json:"filename"`
	PitchTypeMatch     bool                     `json:"pitch_type_match"`
	GroupCoverageMatch int                      `json:"group_coverage_match"`
	GroupCoverageTotal int                      `json:"group_coverage_total"`
	RelatedHit         int                      `json:"related_hit"`
	RelatedTotal       int                      `json:"related_total"`
	SlideCategoryMatch int                      `json:"slide_category_match"`
	SlideCategoryTotal int                      `json:"slide_category_total"`
	CoverageStats      map[Coverage]ClassCounts `json:"coverage_stats"`
}

// EvaluationSummary aggregates label evaluations.
type EvaluationSummary struct {
	Cases                 int     `json:"cases"`
	PitchTypeAccuracy     float64 `json:"pitch_type_accuracy"`
	GroupCoverageAccuracy float64 `json:"group_coverage_accuracy"`
	RelatedSlideHitRate   float64 `json:"related_slide_hit_rate"`
	SlideCategoryAccuracy float64 `json:"slide_category_accuracy"`
	CoverageMacroF1       float64 `json:"coverage_macro_f1"`
}

// Better reports whether s ranks above o. Ranking is lexicographic on
// macro-F1, group accuracy, related hit rate, then slide accuracy.
func (s EvaluationSummary) Better(o EvaluationSummary) bool {
	a := [4]float64{s.CoverageMacroF1, s.GroupCoverageAccuracy, s.RelatedSlideHitRate, s.SlideCategoryAccuracy}
	b := [4]float64{o.CoverageMacroF1, o.GroupCoverageAccuracy, o.RelatedSlideHitRate, o.SlideCategoryAccuracy}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// CalibrationGrid is the threshold search space.
type CalibrationGrid struct {
	Highs []float64 `json:"highs"`
	Mids  []float64 `json:"mids"`
	TopKs []int     `json:"top_ks"`
}

// DefaultCalibrationGrid returns the standard search space.
func DefaultCalibrationGrid() CalibrationGrid {
	return CalibrationGrid{
		Highs: []float64{0.65, 0.68, 0.72},
		Mids:  []float64{0.55, 0.60},
		TopKs: []int{2, 3, 4},
	}
}

// CalibrationTrial is the outcome of one grid point.
type CalibrationTrial struct {
	SimHigh float64           `json:"sim_high"`
	SimMid  float64           `json:"sim_mid"`
	TopK    int               `json:"top_k"`
	Summary EvaluationSummary `json:"summary"`
}

// ConfusionError is one off-diagonal cell of a confusion matrix.
type ConfusionError struct {
	Expected  string `json:"expected"`
	Predicted string `json:"predicted"`
	Count     int    `json:"count"`
}

// Confusion is a slide-category confusion matrix.
type Confusion struct {
	Matrix    map[string]map[string]int `json:"matrix"`
	TopErrors []ConfusionError          `json:"top_errors"`
}

// CalibrationResult is the ranked outcome of a grid search.
type CalibrationResult struct {
	Best      CalibrationTrial   `json:"best"`
	Trials    []CalibrationTrial `json:"trials"`
	Confusion Confusion          `json:"confusion"`
}
