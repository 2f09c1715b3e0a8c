package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/logger"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// HashEmbeddingDimensions is the size of hashed fallback vectors.
const HashEmbeddingDimensions = 64

// hashModelName identifies hashed vectors in report metadata.
const hashModelName = "hash-fnv1a-64"

// Ensure HashEmbedder implements the interface.
var _ driven.EmbeddingService = (*HashEmbedder)(nil)

// HashEmbedder is a deterministic bag-of-tokens embedding. Each token is
// hashed with FNV-1a into one of 64 buckets and the vector is
// L2-normalised. It never fails.
type HashEmbedder struct{}

// Embed returns the hashed vector of text.
func (HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

// EmbedBatch returns one hashed vector per text.
func (HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

// Dimensions returns 64.
func (HashEmbedder) Dimensions() int { return HashEmbeddingDimensions }

// ModelName returns the fallback model name.
func (HashEmbedder) ModelName() string { return hashModelName }

// Ping always succeeds.
func (HashEmbedder) Ping(context.Context) error { return nil }

// Close is a no-op.
func (HashEmbedder) Close() error { return nil }

func hashVector(text string) []float32 {
	counts := make([]float64, HashEmbeddingDimensions)
	for _, token := range textutil.Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		counts[h.Sum32()%HashEmbeddingDimensions]++
	}
	var norm float64
	for _, c := range counts {
		norm += c * c
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	vec := make([]float32, HashEmbeddingDimensions)
	for i, c := range counts {
		vec[i] = float32(c / norm)
	}
	return vec
}

// EmbeddingGateway embeds texts with the configured provider and falls
// back to HashEmbedder for the whole batch when the provider is missing
// or fails. Vectors of one call always come from the same model.
type EmbeddingGateway struct {
	primary  driven.EmbeddingService
	fallback HashEmbedder
}

// NewEmbeddingGateway creates a gateway.
// The primary parameter is optional (can be nil).
func NewEmbeddingGateway(primary driven.EmbeddingService) *EmbeddingGateway {
	return &EmbeddingGateway{primary: primary}
}

// Embed returns one vector per text and the name of the model that
// produced them. The boolean reports whether a configured provider failed
// and the fallback was used.
func (g *EmbeddingGateway) Embed(ctx context.Context, texts []string) ([][]float32, string, bool) {
	if g.primary != nil {
		vectors, err := g.primary.EmbedBatch(ctx, texts)
		if err == nil {
			err = checkVectors(vectors, len(texts))
		}
		if err == nil {
			return vectors, g.primary.ModelName(), false
		}
		logger.Debug("Embedding provider failed, using hashed vectors: %v", err)
	}
	vectors, _ := g.fallback.EmbedBatch(ctx, texts)
	return vectors, g.fallback.ModelName(), g.primary != nil
}

// ModelName returns the model used when the provider is healthy.
func (g *EmbeddingGateway) ModelName() string {
	if g.primary != nil {
		return g.primary.ModelName()
	}
	return g.fallback.ModelName()
}

func checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vectors), want)
	}
	dims := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector at %d", domain.ErrEmbeddingUnavailable, i)
		}
		if dims >= 0 && len(v) != dims {
			return fmt.Errorf("%w: mixed dimensions %d and %d", domain.ErrEmbeddingUnavailable, dims, len(v))
		}
		dims = len(v)
		for _, x := range v {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: non-finite component in vector %d", domain.ErrEmbeddingUnavailable, i)
			}
		}
	}
	return nil
}
