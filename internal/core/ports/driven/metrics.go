package driven

import (
	"time"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// MetricsRecorder receives operational signals from the scoring engine.
// Implementations must be safe for concurrent use. A nil recorder is
// replaced by a no-op at construction.
type MetricsRecorder interface {
	// ObserveEvaluation records one finished evaluation.
	ObserveEvaluation(method string, pitchType domain.PitchType, elapsed time.Duration)

	// CapabilityFallback records a call served by a deterministic fallback.
	CapabilityFallback(capability domain.Capability)

	// InvariantRepair records a criteria score reset by the validator.
	InvariantRepair(criteriaID string)
}
