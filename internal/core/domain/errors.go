package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown deck format or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// Evaluation Errors.

	// ErrIngestionEmpty indicates a deck produced no pages or slides.
	// The run is aborted and no partial report is produced.
	ErrIngestionEmpty = errors.New("deck has no slides")

	// ErrInvalidConfig indicates scoring settings or a rubric failed validation.
	// Always raised at load time, never during an evaluation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvariantViolation marks a criteria score whose positive score
	// has no supporting slides. It is repaired and logged, never returned.
	ErrInvariantViolation = errors.New("score without evidence")

	// Capability Errors.

	// ErrCapabilityUnavailable indicates an optional AI capability failed
	// or is not configured. Services recover with a deterministic fallback.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Classification, review and narrative fall back to rules.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// The hashed fallback embedding is used instead.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTruncatedResponse indicates a JSON mode reply hit the token limit.
	// The partial object cannot be decoded, so it is not retried.
	ErrTruncatedResponse = errors.New("response truncated at token limit")
)
