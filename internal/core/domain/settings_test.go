package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"gemini is valid", AIProviderGemini, true},
		{"empty is invalid", AIProvider(""), false},
		{"unknown is invalid", AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_RequiresAPIKey tests API key requirements per provider
func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderGemini.IsLocal())
}

// TestAIProvider_Description tests human readable names
func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

// TestLLMSettings_IsConfigured tests configuration detection
func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"empty", LLMSettings{}, false},
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI}, false},
		{"gemini with key", LLMSettings{Provider: AIProviderGemini, APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestEmbeddingSettings_IsConfigured tests configuration detection
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
}

// TestDefaultScoringSettings tests the tuned defaults
func TestDefaultScoringSettings(t *testing.T) {
	s := DefaultScoringSettings()

	assert.Equal(t, 0.72, s.SimHigh)
	assert.Equal(t, 0.60, s.SimMid)
	assert.InDelta(t, 0.50, s.Low(), 1e-9)
	assert.Equal(t, 3, s.TopK)
	assert.Equal(t, 12, s.LLMSlideLimit)
	assert.Equal(t, 0.02, s.MinSimilarity)
	assert.False(t, s.FastMode)
	require.NoError(t, s.Validate())
}

// TestScoringSettings_Low tests derivation of the low threshold
func TestScoringSettings_Low(t *testing.T) {
	s := DefaultScoringSettings()
	s.SimLow = 0.45
	assert.Equal(t, 0.45, s.Low())

	s.SimLow = 0
	s.SimMid = 0.55
	assert.InDelta(t, 0.45, s.Low(), 1e-9)

	s.SimMid = 0.05
	assert.Equal(t, 0.0, s.Low())
}

// TestClampTopK tests top_k clamping
func TestClampTopK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {3, 3}, {10, 10}, {11, 10}, {100, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampTopK(tt.in), "ClampTopK(%d)", tt.in)
	}

	s := DefaultScoringSettings()
	s.TopK = 50
	assert.Equal(t, 10, s.EffectiveTopK())
}

// TestScoringSettings_Validate tests rejection of inconsistent settings
func TestScoringSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScoringSettings)
	}{
		{"low above mid", func(s *ScoringSettings) { s.SimLow = 0.65 }},
		{"low equal mid", func(s *ScoringSettings) { s.SimLow = 0.60 }},
		{"mid equal high", func(s *ScoringSettings) { s.SimMid = 0.72 }},
		{"mid above high", func(s *ScoringSettings) { s.SimMid = 0.80 }},
		{"high at one", func(s *ScoringSettings) { s.SimHigh = 1.0 }},
		{"mid at zero", func(s *ScoringSettings) { s.SimMid = 0 }},
		{"top_k zero", func(s *ScoringSettings) { s.TopK = 0 }},
		{"negative llm limit", func(s *ScoringSettings) { s.LLMSlideLimit = -1 }},
		{"no workers", func(s *ScoringSettings) { s.Workers = 0 }},
		{"no timeout", func(s *ScoringSettings) { s.CallTimeout = 0 }},
		{"negative coefficient", func(s *ScoringSettings) { s.Blend.Lexical = -0.1 }},
		{"boost above one", func(s *ScoringSettings) { s.Boosts.Prior = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScoringSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

// TestScoringSettings_ValidateReportsHighFirst tests that the error is stable when both thresholds are invalid
func TestScoringSettings_ValidateReportsHighFirst(t *testing.T) {
	s := DefaultScoringSettings()
	s.SimHigh = 1.5
	s.SimMid = -1

	for i := 0; i < 20; i++ {
		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sim_high")
	}
}

// TestScoringSettings_ValidateAcceptsLargeTopK tests that large top_k is clamped, not rejected
func TestScoringSettings_ValidateAcceptsLargeTopK(t *testing.T) {
	s := DefaultScoringSettings()
	s.TopK = 25
	s.CallTimeout = time.Second
	assert.NoError(t, s.Validate())
}

// TestDefaultAppSettings tests AI providers are unconfigured by default
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()
	assert.False(t, s.LLM.IsConfigured())
	assert.False(t, s.Embedding.IsConfigured())
	assert.Equal(t, DefaultScoringSettings(), s.Scoring)
}

// TestProviderTables tests default model tables cover every provider
func TestProviderTables(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
	for _, p := range AllEmbeddingProviders() {
		model := DefaultEmbeddingModels()[p]
		require.NotEmpty(t, model, p)
		assert.Positive(t, EmbeddingDimensions()[model], model)
	}
}
