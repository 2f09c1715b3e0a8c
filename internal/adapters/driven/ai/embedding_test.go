package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func TestNewGuardedEmbedding_NilInputs(t *testing.T) {
	assert.Nil(t, NewGuardedEmbedding(nil, testGuard()))

	svc := &stubEmbedding{}
	assert.Same(t, svc, NewGuardedEmbedding(svc, nil))
}

func TestGuardedEmbedding_Embed(t *testing.T) {
	t.Run("empty vector is retried", func(t *testing.T) {
		stub := &stubEmbedding{vectors: [][]float32{nil, {1, 0, 0}}}
		svc := NewGuardedEmbedding(stub, testGuard())

		v, err := svc.Embed(context.Background(), "market size")

		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0}, v)
		assert.Equal(t, 2, stub.calls)
	})

	t.Run("persistent rate limit", func(t *testing.T) {
		stub := &stubEmbedding{errs: []error{domain.ErrRateLimited}}
		svc := NewGuardedEmbedding(stub, testGuard())

		_, err := svc.Embed(context.Background(), "market size")

		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.Equal(t, 2, stub.calls)
	})
}

func TestGuardedEmbedding_EmbedBatch(t *testing.T) {
	stub := &stubEmbedding{
		errs:    []error{domain.ErrCapabilityUnavailable, nil},
		vectors: [][]float32{{0, 1, 0}},
	}
	observer := &recordingObserver{}
	svc := NewGuardedEmbedding(stub, NewGuard(GuardConfig{Concurrency: 1, Observer: observer}))

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, []string{"embed batch", "embed batch"}, observer.ops)
	assert.Equal(t, 3, svc.Dimensions())
	assert.Equal(t, "stub-embed", svc.ModelName())
}
