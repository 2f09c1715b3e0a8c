package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	e := HashEmbedder{}

	a, err := e.Embed(ctx, "market size and growth rate")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "market size and growth rate")
	require.NoError(t, err)

	assert.Len(t, a, HashEmbeddingDimensions)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	empty, err := e.Embed(ctx, "")
	require.NoError(t, err)
	assert.Len(t, empty, HashEmbeddingDimensions)

	assert.Equal(t, HashEmbeddingDimensions, e.Dimensions())
	assert.Equal(t, hashModelName, e.ModelName())
	assert.NoError(t, e.Ping(ctx))
	assert.NoError(t, e.Close())
}

func TestEmbeddingGateway_Embed(t *testing.T) {
	texts := []string{"problem", "solution", "market"}
	fixed := func(dims ...int) func([]string) [][]float32 {
		return func(texts []string) [][]float32 {
			out := make([][]float32, 0, len(dims))
			for _, d := range dims {
				v := make([]float32, d)
				if d > 0 {
					v[0] = 1
				}
				out = append(out, v)
			}
			return out
		}
	}

	tests := []struct {
		name      string
		primary   *stubEmbedder
		wantModel string
		wantDims  int
		wantFail  bool
	}{
		{
			name:      "healthy provider",
			primary:   &stubEmbedder{model: "nomic-embed-text", embed: fixed(8, 8, 8)},
			wantModel: "nomic-embed-text",
			wantDims:  8,
		},
		{
			name:      "provider error",
			primary:   &stubEmbedder{model: "nomic-embed-text", err: errProviderDown},
			wantModel: hashModelName,
			wantDims:  HashEmbeddingDimensions,
			wantFail:  true,
		},
		{
			name:      "wrong vector count",
			primary:   &stubEmbedder{model: "m", embed: fixed(8, 8)},
			wantModel: hashModelName,
			wantDims:  HashEmbeddingDimensions,
			wantFail:  true,
		},
		{
			name:      "mixed dimensions",
			primary:   &stubEmbedder{model: "m", embed: fixed(8, 4, 8)},
			wantModel: hashModelName,
			wantDims:  HashEmbeddingDimensions,
			wantFail:  true,
		},
		{
			name:      "empty vector",
			primary:   &stubEmbedder{model: "m", embed: fixed(8, 0, 8)},
			wantModel: hashModelName,
			wantDims:  HashEmbeddingDimensions,
			wantFail:  true,
		},
		{
			name:      "NaN component",
			primary:   &stubEmbedder{model: "m", embed: withValue(fixed(8, 8, 8), float32(math.NaN()))},
			wantModel: hashModelName,
			wantDims:  HashEmbeddingDimensions,
			wantFail:  true,
		},
		{
			name:      "infinite component",
			primary:   &stubEmbedder{model: "m", embed: withValue(fixed(8, 8, 8), float32(math.Inf(-1)))},
			wantModel: hashModelName,
			wantDims:  HashEmbeddingDimensions,
			wantFail:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewEmbeddingGateway(tt.primary)

			vectors, model, failed := g.Embed(context.Background(), texts)

			require.Len(t, vectors, len(texts))
			for _, v := range vectors {
				assert.Len(t, v, tt.wantDims)
			}
			assert.Equal(t, tt.wantModel, model)
			assert.Equal(t, tt.wantFail, failed)
		})
	}
}

// withValue sets the second component of the last vector to v.
func withValue(embed func([]string) [][]float32, v float32) func([]string) [][]float32 {
	return func(texts []string) [][]float32 {
		out := embed(texts)
		out[len(out)-1][1] = v
		return out
	}
}

func TestEmbeddingGateway_NoProvider(t *testing.T) {
	g := NewEmbeddingGateway(nil)

	vectors, model, failed := g.Embed(context.Background(), []string{"a", "b"})

	assert.Len(t, vectors, 2)
	assert.Equal(t, hashModelName, model)
	assert.False(t, failed)
	assert.Equal(t, hashModelName, g.ModelName())
}
