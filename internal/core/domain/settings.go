package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// BlendWeights are the coefficients of the blended similarity.
type BlendWeights struct {
	Cosine  float64
	Lexical float64
	Ngram   float64
	Keyword float64

	// RobustCosine and RobustKeyword weight the embedding-led
	// alternative inside the robust maximum.
	RobustCosine  float64
	RobustKeyword float64
}

// RetrievalBoosts are the additive adjustments applied after blending.
type RetrievalBoosts struct {
	// Prior is added when a slide's category is expected by the group.
	Prior float64
	// PriorConfident is added on top when the category confidence
	// reaches PriorConfidenceMin.
	PriorConfident     float64
	PriorConfidenceMin float64

	// NumericHigh and NumericLow reward digit-dense slides for items
	// that ask for figures.
	NumericHigh float64
	NumericLow  float64
}

// Bounds for TopK.
const (
	MinTopK = 1
	MaxTopK = 10
)

// ScoringSettings holds the tuning parameters of the scoring engine.
// A value is built once at startup, validated, and shared read-only.
type ScoringSettings struct {
	// SimHigh, SimMid and SimLow are the coverage thresholds.
	// SimLow of zero means SimMid-0.10.
	SimHigh float64
	SimMid  float64
	SimLow  float64

	// TopK is the number of evidence slides kept per item.
	TopK int

	// MinSimilarity drops weaker retrieval candidates.
	MinSimilarity float64

	// LLMSlideLimit is how many leading slides may be classified by the LLM.
	LLMSlideLimit int

	// FastMode skips every generative call.
	FastMode bool

	Blend  BlendWeights
	Boosts RetrievalBoosts

	// Workers bounds per-slide and per-item parallelism.
	Workers int

	// LLMConcurrency caps concurrent LLM calls across the process.
	LLMConcurrency int

	// RequestsPerSecond limits calls per provider. Zero disables the limit.
	RequestsPerSecond float64

	// CallTimeout bounds each external call attempt.
	CallTimeout time.Duration
}

// DefaultScoringSettings returns the empirically tuned defaults.
func DefaultScoringSettings() ScoringSettings {
	return ScoringSettings{
		SimHigh:       0.72,
		SimMid:        0.60,
		TopK:          3,
		MinSimilarity: 0.02,
		LLMSlideLimit: 12,
		Blend: BlendWeights{
			Cosine:        0.40,
			Lexical:       0.25,
			Ngram:         0.20,
			Keyword:       0.15,
			RobustCosine:  0.85,
			RobustKeyword: 0.15,
		},
		Boosts: RetrievalBoosts{
			Prior:              0.12,
			PriorConfident:     0.04,
			PriorConfidenceMin: 0.7,
			NumericHigh:        0.06,
			NumericLow:         0.03,
		},
		Workers:           4,
		LLMConcurrency:    4,
		RequestsPerSecond: 5,
		CallTimeout:       30 * time.Second,
	}
}

// Low returns SimLow, deriving it from SimMid when unset.
func (s ScoringSettings) Low() float64 {
	if s.SimLow > 0 {
		return s.SimLow
	}
	if low := s.SimMid - 0.10; low > 0 {
		return low
	}
	return 0
}

// EffectiveTopK returns TopK clamped to [MinTopK, MaxTopK].
func (s ScoringSettings) EffectiveTopK() int {
	return ClampTopK(s.TopK)
}

// ClampTopK clamps k to [MinTopK, MaxTopK].
func ClampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// Validate rejects inconsistent settings. All failures wrap ErrInvalidConfig.
func (s ScoringSettings) Validate() error {
	low := s.Low()
	thresholds := []struct {
		name  string
		value float64
	}{
		{"sim_high", s.SimHigh},
		{"sim_mid", s.SimMid},
	}
	for _, th := range thresholds {
		if th.value <= 0 || th.value >= 1 {
			return fmt.Errorf("%w: %s %.3f outside (0,1)", ErrInvalidConfig, th.name, th.value)
		}
	}
	if low <= 0 {
		return fmt.Errorf("%w: sim_low %.3f must be positive", ErrInvalidConfig, low)
	}
	if low >= s.SimMid {
		return fmt.Errorf("%w: sim_low %.3f must be below sim_mid %.3f", ErrInvalidConfig, low, s.SimMid)
	}
	if s.SimMid >= s.SimHigh {
		return fmt.Errorf("%w: sim_mid %.3f must be below sim_high %.3f", ErrInvalidConfig, s.SimMid, s.SimHigh)
	}
	if s.TopK < MinTopK {
		return fmt.Errorf("%w: top_k %d must be at least %d", ErrInvalidConfig, s.TopK, MinTopK)
	}
	if s.MinSimilarity < 0 || s.MinSimilarity >= 1 {
		return fmt.Errorf("%w: min_similarity %.3f outside [0,1)", ErrInvalidConfig, s.MinSimilarity)
	}
	if s.LLMSlideLimit < 0 {
		return fmt.Errorf("%w: llm_slide_limit %d is negative", ErrInvalidConfig, s.LLMSlideLimit)
	}
	if s.Workers < 1 || s.LLMConcurrency < 1 {
		return fmt.Errorf("%w: workers and llm_concurrency must be at least 1", ErrInvalidConfig)
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second is negative", ErrInvalidConfig)
	}
	if s.CallTimeout <= 0 {
		return fmt.Errorf("%w: call_timeout must be positive", ErrInvalidConfig)
	}
	b := s.Blend
	for _, w := range []float64{b.Cosine, b.Lexical, b.Ngram, b.Keyword, b.RobustCosine, b.RobustKeyword} {
		if w < 0 {
			return fmt.Errorf("%w: negative similarity coefficient", ErrInvalidConfig)
		}
	}
	bs := s.Boosts
	for _, v := range []float64{bs.Prior, bs.PriorConfident, bs.PriorConfidenceMin, bs.NumericHigh, bs.NumericLow} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: retrieval boost outside [0,1]", ErrInvalidConfig)
		}
	}
	return nil
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Scoring holds engine tuning parameters.
	Scoring ScoringSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI features (Embedding, LLM) are left unconfigured by default,
// so a fresh install scores decks with the deterministic fallbacks.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Scoring:   DefaultScoringSettings(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
