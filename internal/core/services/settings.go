package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keySimHigh        = "scoring.sim_high"
	keySimMid         = "scoring.sim_mid"
	keySimLow         = "scoring.sim_low"
	keyTopK           = "scoring.top_k"
	keyMinSimilarity  = "scoring.min_similarity"
	keyLLMSlideLimit  = "scoring.llm_slide_limit"
	keyFastMode       = "scoring.fast_mode"
	keyWorkers        = "scoring.workers"
	keyLLMConcurrency = "scoring.llm_concurrency"
	keyRequestsPerSec = "scoring.requests_per_second"
	keyCallTimeout    = "scoring.call_timeout"

	keyBlendCosine        = "scoring.blend.cosine"
	keyBlendLexical       = "scoring.blend.lexical"
	keyBlendNgram         = "scoring.blend.ngram"
	keyBlendKeyword       = "scoring.blend.keyword"
	keyBlendRobustCosine  = "scoring.blend.robust_cosine"
	keyBlendRobustKeyword = "scoring.blend.robust_keyword"

	keyBoostPrior          = "scoring.boosts.prior"
	keyBoostPriorConfident = "scoring.boosts.prior_confident"
	keyBoostPriorConfMin   = "scoring.boosts.prior_confidence_min"
	keyBoostNumericHigh    = "scoring.boosts.numeric_high"
	keyBoostNumericLow     = "scoring.boosts.numeric_low"
)

// Environment overrides for scoring parameters.
const (
	EnvSimHigh       = "DECKSCORE_SIM_HIGH"
	EnvSimMid        = "DECKSCORE_SIM_MID"
	EnvSimLow        = "DECKSCORE_SIM_LOW"
	EnvTopK          = "DECKSCORE_TOP_K"
	EnvLLMSlideLimit = "DECKSCORE_LLM_SLIDE_LIMIT"
	EnvFastMode      = "DECKSCORE_FAST_MODE"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup used by Effective.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// Get retrieves stored application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	ds := defaults.Scoring

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Scoring: domain.ScoringSettings{
			SimHigh:           s.getFloat(keySimHigh, ds.SimHigh),
			SimMid:            s.getFloat(keySimMid, ds.SimMid),
			SimLow:            s.getFloat(keySimLow, ds.SimLow),
			TopK:              s.getInt(keyTopK, ds.TopK),
			MinSimilarity:     s.getFloat(keyMinSimilarity, ds.MinSimilarity),
			LLMSlideLimit:     s.getInt(keyLLMSlideLimit, ds.LLMSlideLimit),
			FastMode:          s.getBool(keyFastMode, ds.FastMode),
			Workers:           s.getInt(keyWorkers, ds.Workers),
			LLMConcurrency:    s.getInt(keyLLMConcurrency, ds.LLMConcurrency),
			RequestsPerSecond: s.getFloat(keyRequestsPerSec, ds.RequestsPerSecond),
			CallTimeout:       s.getDuration(keyCallTimeout, ds.CallTimeout),
			Blend: domain.BlendWeights{
				Cosine:        s.getFloat(keyBlendCosine, ds.Blend.Cosine),
				Lexical:       s.getFloat(keyBlendLexical, ds.Blend.Lexical),
				Ngram:         s.getFloat(keyBlendNgram, ds.Blend.Ngram),
				Keyword:       s.getFloat(keyBlendKeyword, ds.Blend.Keyword),
				RobustCosine:  s.getFloat(keyBlendRobustCosine, ds.Blend.RobustCosine),
				RobustKeyword: s.getFloat(keyBlendRobustKeyword, ds.Blend.RobustKeyword),
			},
			Boosts: domain.RetrievalBoosts{
				Prior:              s.getFloat(keyBoostPrior, ds.Boosts.Prior),
				PriorConfident:     s.getFloat(keyBoostPriorConfident, ds.Boosts.PriorConfident),
				PriorConfidenceMin: s.getFloat(keyBoostPriorConfMin, ds.Boosts.PriorConfidenceMin),
				NumericHigh:        s.getFloat(keyBoostNumericHigh, ds.Boosts.NumericHigh),
				NumericLow:         s.getFloat(keyBoostNumericLow, ds.Boosts.NumericLow),
			},
		},
	}

	return settings, nil
}

// Effective returns the stored settings with environment overrides
// applied and the scoring parameters validated. Overrides are never
// written back to the config file.
func (s *SettingsService) Effective() (*domain.AppSettings, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	if err := s.applyEnv(&settings.Scoring); err != nil {
		return nil, err
	}
	if err := settings.Scoring.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) applyEnv(sc *domain.ScoringSettings) error {
	floats := []struct {
		name string
		dst  *float64
	}{
		{EnvSimHigh, &sc.SimHigh},
		{EnvSimMid, &sc.SimMid},
		{EnvSimLow, &sc.SimLow},
	}
	for _, f := range floats {
		v, ok := s.lookupEnv(f.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", domain.ErrInvalidConfig, f.name, v)
		}
		*f.dst = parsed
		logger.Debug("Scoring override %s=%v", f.name, parsed)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvTopK, &sc.TopK},
		{EnvLLMSlideLimit, &sc.LLMSlideLimit},
	}
	for _, i := range ints {
		v, ok := s.lookupEnv(i.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidConfig, i.name, v)
		}
		*i.dst = parsed
		logger.Debug("Scoring override %s=%d", i.name, parsed)
	}

	if v, ok := s.lookupEnv(EnvFastMode); ok && strings.TrimSpace(v) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", domain.ErrInvalidConfig, EnvFastMode, v)
		}
		sc.FastMode = parsed
	}
	return nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return s.saveScoring(settings.Scoring)
}

// saveScoring writes every scoring key in one store write, so a failure
// never leaves a half-updated threshold ladder on disk.
func (s *SettingsService) saveScoring(sc domain.ScoringSettings) error {
	values := map[string]any{
		keySimHigh:             sc.SimHigh,
		keySimMid:              sc.SimMid,
		keySimLow:              sc.SimLow,
		keyTopK:                sc.TopK,
		keyMinSimilarity:       sc.MinSimilarity,
		keyLLMSlideLimit:       sc.LLMSlideLimit,
		keyFastMode:            sc.FastMode,
		keyWorkers:             sc.Workers,
		keyLLMConcurrency:      sc.LLMConcurrency,
		keyRequestsPerSec:      sc.RequestsPerSecond,
		keyCallTimeout:         sc.CallTimeout.String(),
		keyBlendCosine:         sc.Blend.Cosine,
		keyBlendLexical:        sc.Blend.Lexical,
		keyBlendNgram:          sc.Blend.Ngram,
		keyBlendKeyword:        sc.Blend.Keyword,
		keyBlendRobustCosine:   sc.Blend.RobustCosine,
		keyBlendRobustKeyword:  sc.Blend.RobustKeyword,
		keyBoostPrior:          sc.Boosts.Prior,
		keyBoostPriorConfident: sc.Boosts.PriorConfident,
		keyBoostPriorConfMin:   sc.Boosts.PriorConfidenceMin,
		keyBoostNumericHigh:    sc.Boosts.NumericHigh,
		keyBoostNumericLow:     sc.Boosts.NumericLow,
	}
	if err := s.configStore.SetMany(values); err != nil {
		return fmt.Errorf("save scoring: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetScoring validates and stores scoring parameters.
func (s *SettingsService) SetScoring(scoring domain.ScoringSettings) error {
	if err := scoring.Validate(); err != nil {
		return err
	}
	return s.saveScoring(scoring)
}

// Validate checks that the stored settings are usable.
// Unconfigured AI providers are valid: the engine falls back to
// deterministic scoring.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Scoring.Validate(); err != nil {
		return err
	}
	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s is missing an API key", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %s is missing an API key", settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a local provider's URL and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v, ok := s.configStore.GetFloat(key); ok {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
