// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the LLM model to use (default: gemini-1.5-flash).
	Model string

	// Timeout bounds each request (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Gemini.
type LLMService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := s.generativeModel(opts.MaxTokens, opts.Temperature, opts.JSON)
	model.StopSequences = opts.StopWords

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}
	return responseText(resp, opts.JSON)
}

// Chat conducts a multi-turn conversation.
// System messages become the model's system instruction and assistant
// turns are sent with the "model" role.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := s.generativeModel(opts.MaxTokens, opts.Temperature, opts.JSON)

	var system []genai.Part
	var turns []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, genai.Text(msg.Content))
		case "assistant":
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return "", fmt.Errorf("gemini: conversation must end with a user message")
	}

	session := model.StartChat()
	session.History = turns[:len(turns)-1]
	resp, err := session.SendMessage(ctx, turns[len(turns)-1].Parts...)
	if err != nil {
		return "", classify(err)
	}
	return responseText(resp, opts.JSON)
}

func (s *LLMService) generativeModel(maxTokens int, temperature float64, jsonMode bool) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.model)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if temperature > 0 {
		model.SetTemperature(float32(temperature))
	}
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}
	return model
}

func responseText(resp *genai.GenerateContentResponse, jsonMode bool) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no response candidates returned")
	}
	candidate := resp.Candidates[0]
	if jsonMode && candidate.FinishReason == genai.FinishReasonMaxTokens {
		return "", fmt.Errorf("gemini: %w", domain.ErrTruncatedResponse)
	}

	var result strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}
	return result.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing one model.
func (s *LLMService) Ping(ctx context.Context) error {
	return ping(ctx, s.client)
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	return s.client.Close()
}

func ping(ctx context.Context, client *genai.Client) error {
	if _, err := client.ListModels(ctx).Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("gemini: ping failed: %w", classify(err))
	}
	return nil
}

// classify maps gRPC status codes onto domain sentinels.
func classify(err error) error {
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return fmt.Errorf("gemini: %w: %w", domain.ErrRateLimited, err)
	case codes.Unavailable, codes.Internal, codes.DeadlineExceeded:
		return fmt.Errorf("gemini: %w: %w", domain.ErrCapabilityUnavailable, err)
	default:
		return fmt.Errorf("gemini: %w", err)
	}
}
