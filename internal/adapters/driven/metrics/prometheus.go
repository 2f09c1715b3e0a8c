// Package metrics exports scoring engine signals as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "deckscore"

// Call outcomes.
const (
	outcomeOK          = "ok"
	outcomeRateLimited = "rate_limited"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
)

// Recorder records evaluations, fallbacks, repairs and external calls
// on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	fallbacks          *prometheus.CounterVec
	repairs            *prometheus.CounterVec
	calls              *prometheus.CounterVec
	callDuration       *prometheus.HistogramVec
}

// NewRecorder creates a recorder with a fresh registry. Go runtime and
// process collectors are registered when withRuntime is set.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Finished deck evaluations.",
		}, []string{"method", "pitch_type"}),
		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of one deck evaluation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_fallbacks_total",
			Help:      "Calls served by a deterministic fallback instead of the configured capability.",
		}, []string{"capability"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_repairs_total",
			Help:      "Criteria scores reset because they had no supporting slides.",
		}, []string{"criteria_id"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_calls_total",
			Help:      "External AI call attempts by operation and outcome.",
		}, []string{"op", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "Latency of external AI call attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	r.registry.MustRegister(
		r.evaluations, r.evaluationDuration, r.fallbacks, r.repairs, r.calls, r.callDuration,
	)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// ObserveEvaluation records one finished evaluation.
func (r *Recorder) ObserveEvaluation(method string, pitchType domain.PitchType, elapsed time.Duration) {
	r.evaluations.WithLabelValues(method, pitchType.String()).Inc()
	r.evaluationDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// CapabilityFallback records a call served by a deterministic fallback.
func (r *Recorder) CapabilityFallback(capability domain.Capability) {
	r.fallbacks.WithLabelValues(capability.String()).Inc()
}

// InvariantRepair records a criteria score reset by the validator.
func (r *Recorder) InvariantRepair(criteriaID string) {
	r.repairs.WithLabelValues(criteriaID).Inc()
}

// ObserveCall records one external call attempt.
func (r *Recorder) ObserveCall(op string, err error, elapsed time.Duration) {
	r.calls.WithLabelValues(op, outcome(err)).Inc()
	r.callDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Registry returns the registry holding every metric.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrRateLimited):
		return outcomeRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	default:
		return outcomeError
	}
}
