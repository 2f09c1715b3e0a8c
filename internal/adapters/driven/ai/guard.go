package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// maxAttempts is the first call plus one retry.
const maxAttempts = 2

// CallObserver receives one signal per external call attempt.
type CallObserver interface {
	ObserveCall(op string, err error, elapsed time.Duration)
}

// GuardConfig sizes a Guard.
type GuardConfig struct {
	// Concurrency caps calls in flight. Values below 1 mean 1.
	Concurrency int

	// RequestsPerSecond limits the call rate. Zero disables the limit.
	RequestsPerSecond float64

	// Timeout bounds each attempt. Zero disables the bound.
	Timeout time.Duration

	Observer CallObserver
}

// GuardConfigFromSettings derives a guard configuration from scoring settings.
func GuardConfigFromSettings(s domain.ScoringSettings, observer CallObserver) GuardConfig {
	return GuardConfig{
		Concurrency:       s.LLMConcurrency,
		RequestsPerSecond: s.RequestsPerSecond,
		Timeout:           s.CallTimeout,
		Observer:          observer,
	}
}

// Guard wraps external calls with a concurrency cap, a rate limit,
// a per-attempt timeout and one retry on transient failure.
// A Guard is safe for concurrent use and is meant to be shared by
// every caller of one provider.
type Guard struct {
	sem      chan struct{}
	limiter  *rate.Limiter
	timeout  time.Duration
	observer CallObserver
}

// NewGuard creates a guard.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	g := &Guard{
		sem:      make(chan struct{}, cfg.Concurrency),
		timeout:  cfg.Timeout,
		observer: cfg.Observer,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g
}

// Do runs fn under the guard. fn receives a context bounded by the
// per-attempt timeout. A transient failure is retried once unless ctx
// is already done.
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.sem }()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if g.limiter != nil {
			if werr := g.limiter.Wait(ctx); werr != nil {
				return fmt.Errorf("%s: %w", op, werr)
			}
		}

		err = g.attempt(ctx, op, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		if !IsTransient(err) {
			return err
		}
		if attempt < maxAttempts {
			logger.Debug("%s: transient failure, retrying: %v", op, err)
		}
	}
	return err
}

func (g *Guard) attempt(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(callCtx)
	if g.observer != nil {
		g.observer.ObserveCall(op, err, time.Since(start))
	}
	return err
}
