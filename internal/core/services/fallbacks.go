package services

import (
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// DegradationLog collects the capabilities that fell back to their
// deterministic implementation during one run. Safe for concurrent use.
type DegradationLog struct {
	mu      sync.Mutex
	seen    map[domain.Capability]bool
	metrics driven.MetricsRecorder
}

// NewDegradationLog creates an empty log. metrics may be nil.
func NewDegradationLog(metrics driven.MetricsRecorder) *DegradationLog {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DegradationLog{seen: make(map[domain.Capability]bool), metrics: metrics}
}

// Record notes one fallback for capability. A nil log ignores the call.
func (l *DegradationLog) Record(capability domain.Capability) {
	if l == nil {
		return
	}
	l.metrics.CapabilityFallback(capability)
	l.mu.Lock()
	l.seen[capability] = true
	l.mu.Unlock()
}

// Capabilities returns the recorded capability names, sorted.
func (l *DegradationLog) Capabilities() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(l.seen))
	for c := range l.seen {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out
}

// noopMetrics discards every signal.
type noopMetrics struct{}

func (noopMetrics) ObserveEvaluation(string, domain.PitchType, time.Duration) {}
func (noopMetrics) CapabilityFallback(domain.Capability)                      {}
func (noopMetrics) InvariantRepair(string)                                    {}
