package domain

// Batch row statuses.
const (
	BatchStatusOK     = "ok"
	BatchStatusFailed = "failed"
)

// BatchRow is the outcome of evaluating one deck in a batch.
type BatchRow struct {
	Index      int     `json:"index"`
	File       string  `json:"file"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	ReportID   string  `json:"report_id,omitempty"`
	ElapsedSec float64 `json:"elapsed_sec"`
	TotalScore int     `json:"total_score"`
	Covered    int     `json:"covered"`
	Partial    int     `json:"partial"`
	NotCovered int     `json:"not_covered"`
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	AvgScore  float64    `json:"avg_score"`
	Rows      []BatchRow `json:"rows"`
}
