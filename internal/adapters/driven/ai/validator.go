package ai

import (
	"context"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by starting the service and
// pinging it. The settings command calls it before saving.
type ConfigValidator struct {
	ctx context.Context
}

// NewConfigValidator creates a validator whose pings are bound to ctx.
// A nil ctx means context.Background.
func NewConfigValidator(ctx context.Context) *ConfigValidator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ConfigValidator{ctx: ctx}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(v.ctx, config)
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(v.ctx, config)
}
