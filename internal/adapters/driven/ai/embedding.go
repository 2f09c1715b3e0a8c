package ai

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure GuardedEmbedding implements the interface.
var _ driven.EmbeddingService = (*GuardedEmbedding)(nil)

// GuardedEmbedding runs every call of an embedding service through a Guard.
type GuardedEmbedding struct {
	driven.EmbeddingService
	guard *Guard
}

// NewGuardedEmbedding wraps svc. A nil guard returns svc unchanged.
func NewGuardedEmbedding(svc driven.EmbeddingService, guard *Guard) driven.EmbeddingService {
	if svc == nil || guard == nil {
		return svc
	}
	return &GuardedEmbedding{EmbeddingService: svc, guard: guard}
}

// Embed generates one embedding under the guard.
func (e *GuardedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.guard.Do(ctx, "embed", func(ctx context.Context) error {
		v, err := e.EmbeddingService.Embed(ctx, text)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return &TransientError{Err: errEmptyResponse}
		}
		out = v
		return nil
	})
	return out, err
}

// EmbedBatch generates embeddings under the guard.
func (e *GuardedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.guard.Do(ctx, "embed batch", func(ctx context.Context) error {
		v, err := e.EmbeddingService.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
