package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// Ensure the LLM-backed capabilities implement their ports.
var (
	_ driven.SlideClassifier  = (*LLMClassifier)(nil)
	_ driven.CoverageReviewer = (*LLMReviewer)(nil)
	_ driven.Narrator         = (*LLMNarrator)(nil)
)

// Generation limits per capability.
const (
	classifyInputRunes = 4000
	classifyMaxTokens  = 512
	reviewMaxTokens    = 128
	feedbackMaxTokens  = 400
	summaryMaxTokens   = 500

	// defaultClassifyConfidence is assumed when the model omits a confidence.
	defaultClassifyConfidence = 0.7

	// Temperatures: classification tolerates a little variation, judgments none.
	classifyTemperature = 0.1
	narrateTemperature  = 0.3
)

var errNoPromptStore = errors.New("no prompt store")

// llmCaller holds what every LLM-backed capability needs.
type llmCaller struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	guard   *Guard
}

// generateJSON renders the named prompt around payload, calls the model
// through the guard, and decodes the first JSON object of the answer into out.
func (c llmCaller) generateJSON(
	ctx context.Context, op, promptName, payload string, opts driven.GenerateOptions, out any,
) error {
	if c.llm == nil {
		return domain.ErrLLMUnavailable
	}
	if c.prompts == nil {
		return fmt.Errorf("%s: %w", op, errNoPromptStore)
	}
	template, err := c.prompts.Load(promptName)
	if err != nil {
		return fmt.Errorf("%s: load prompt: %w", op, err)
	}
	prompt := renderPrompt(template, payload)
	opts.JSON = true

	var raw string
	call := func(ctx context.Context) error {
		text, err := c.llm.Generate(ctx, prompt, opts)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return &TransientError{Err: errEmptyResponse}
		}
		raw = text
		return nil
	}
	if c.guard != nil {
		err = c.guard.Do(ctx, op, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := decodeJSON(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrCapabilityUnavailable, err)
	}
	return nil
}

// renderPrompt substitutes payload for the template's %s, or appends it
// when a user-edited template dropped the placeholder.
func renderPrompt(template, payload string) string {
	if strings.Count(template, "%s") == 1 && strings.Count(template, "%") == 1 {
		return fmt.Sprintf(template, payload)
	}
	if i := strings.Index(template, "%s"); i >= 0 {
		return template[:i] + payload + template[i+2:]
	}
	return template + "\n\n" + payload
}

// decodeJSON decodes the first JSON object in text. Models often wrap
// the object in code fences or prose.
func decodeJSON(text string, out any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in response %q", textutil.Preview(text, 80))
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// LLMClassifier classifies slides with a language model.
type LLMClassifier struct {
	llmCaller
}

// NewLLMClassifier creates an LLM-backed slide classifier.
func NewLLMClassifier(llm driven.LLMService, prompts driven.PromptStore, guard *Guard) *LLMClassifier {
	return &LLMClassifier{llmCaller{llm: llm, prompts: prompts, guard: guard}}
}

type classifyResponse struct {
	Category     string   `json:"category"`
	Confidence   *float64 `json:"confidence"`
	AltConf      *float64 `json:"category_confidence"`
	ShortSummary string   `json:"short_summary"`
	KeyClaims    []any    `json:"key_claims"`
}

// Classify returns the model's classification of one slide.
// A category outside the closed set is an error.
func (c *LLMClassifier) Classify(ctx context.Context, slide *domain.Slide) (domain.Classification, error) {
	var resp classifyResponse
	opts := driven.GenerateOptions{MaxTokens: classifyMaxTokens, Temperature: classifyTemperature}
	payload := textutil.Truncate(slide.CleanText, classifyInputRunes)
	if err := c.generateJSON(ctx, "classify slide", driven.PromptClassifySlide, payload, opts, &resp); err != nil {
		return domain.Classification{}, err
	}

	category, ok := domain.ParseCategory(resp.Category)
	if !ok {
		return domain.Classification{}, fmt.Errorf("classify slide: %w: unknown category %q",
			domain.ErrCapabilityUnavailable, resp.Category)
	}

	confidence := defaultClassifyConfidence
	switch {
	case resp.Confidence != nil:
		confidence = *resp.Confidence
	case resp.AltConf != nil:
		confidence = *resp.AltConf
	}

	claims := make([]string, 0, len(resp.KeyClaims))
	for _, claim := range resp.KeyClaims {
		if s := strings.TrimSpace(fmt.Sprint(claim)); s != "" {
			claims = append(claims, s)
		}
	}

	return domain.Classification{
		Category:     category,
		Confidence:   textutil.Clamp01(confidence),
		ShortSummary: strings.TrimSpace(resp.ShortSummary),
		KeyClaims:    claims,
	}, nil
}

// LLMReviewer judges borderline evidence with a language model.
type LLMReviewer struct {
	llmCaller
}

// NewLLMReviewer creates an LLM-backed coverage reviewer.
func NewLLMReviewer(llm driven.LLMService, prompts driven.PromptStore, guard *Guard) *LLMReviewer {
	return &LLMReviewer{llmCaller{llm: llm, prompts: prompts, guard: guard}}
}

type reviewEvidence struct {
	SlideNumber int     `json:"slide_number"`
	Summary     string  `json:"summary"`
	Similarity  float64 `json:"similarity"`
}

type reviewPayload struct {
	ItemName        string           `json:"item_name"`
	ItemDescription string           `json:"item_description"`
	Evidence        []reviewEvidence `json:"evidence_slides"`
}

type reviewResponse struct {
	Relevant   bool    `json:"is_relevant"`
	Confidence float64 `json:"confidence"`
}

// Review returns whether evidences satisfy item.
func (r *LLMReviewer) Review(
	ctx context.Context, item domain.RubricItem, evidences []domain.Evidence,
) (domain.ReviewVerdict, error) {
	payload := reviewPayload{ItemName: item.Name, ItemDescription: item.Description}
	for _, e := range evidences {
		payload.Evidence = append(payload.Evidence, reviewEvidence{
			SlideNumber: e.SlideNumber,
			Summary:     e.Summary,
			Similarity:  textutil.Round2(e.Similarity),
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("review coverage: %w", err)
	}

	var resp reviewResponse
	opts := driven.GenerateOptions{MaxTokens: reviewMaxTokens}
	if err := r.generateJSON(ctx, "review coverage", driven.PromptReviewCoverage, string(data), opts, &resp); err != nil {
		return domain.ReviewVerdict{}, err
	}
	return domain.ReviewVerdict{Relevant: resp.Relevant, Confidence: textutil.Clamp01(resp.Confidence)}, nil
}

// LLMNarrator writes group feedback and structure summaries with a language model.
type LLMNarrator struct {
	llmCaller
}

// NewLLMNarrator creates an LLM-backed narrator.
func NewLLMNarrator(llm driven.LLMService, prompts driven.PromptStore, guard *Guard) *LLMNarrator {
	return &LLMNarrator{llmCaller{llm: llm, prompts: prompts, guard: guard}}
}

type feedbackItem struct {
	ItemName     string          `json:"item_name"`
	Coverage     domain.Coverage `json:"coverage"`
	Score        float64         `json:"score"`
	MaxScore     float64         `json:"max_score"`
	BestEvidence string          `json:"best_evidence,omitempty"`
}

type feedbackPayload struct {
	GroupName string         `json:"group_name"`
	Items     []feedbackItem `json:"items"`
	Missing   []string       `json:"missing_items"`
}

type feedbackResponse struct {
	Feedback   string  `json:"feedback"`
	Confidence float64 `json:"confidence"`
}

// GroupFeedback writes feedback for one rubric group.
func (n *LLMNarrator) GroupFeedback(
	ctx context.Context, req driven.GroupFeedbackRequest,
) (driven.GroupFeedback, error) {
	payload := feedbackPayload{GroupName: req.Group.Name, Missing: []string{}}
	for _, r := range req.Items {
		payload.Items = append(payload.Items, feedbackItem{
			ItemName:     r.Item.Name,
			Coverage:     r.Coverage,
			Score:        textutil.Round2(r.Score),
			MaxScore:     r.Item.MaxScore,
			BestEvidence: r.TopSummary(),
		})
	}
	for _, m := range req.Missing {
		payload.Missing = append(payload.Missing, m.ItemName)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return driven.GroupFeedback{}, fmt.Errorf("group feedback: %w", err)
	}

	var resp feedbackResponse
	opts := driven.GenerateOptions{MaxTokens: feedbackMaxTokens, Temperature: narrateTemperature}
	if err := n.generateJSON(ctx, "group feedback", driven.PromptGroupFeedback, string(data), opts, &resp); err != nil {
		return driven.GroupFeedback{}, err
	}
	text := strings.TrimSpace(resp.Feedback)
	if text == "" {
		return driven.GroupFeedback{}, fmt.Errorf("group feedback: %w", errEmptyResponse)
	}
	return driven.GroupFeedback{Feedback: text, Confidence: textutil.Clamp01(resp.Confidence)}, nil
}

type summarySection struct {
	Name     string          `json:"criteria_name"`
	Coverage domain.Coverage `json:"coverage_status"`
	Score    int             `json:"score"`
}

type summaryPayload struct {
	PitchType string           `json:"pitch_type"`
	Sections  []summarySection `json:"sections"`
}

// StructureSummary writes an overall comment on the deck structure.
func (n *LLMNarrator) StructureSummary(ctx context.Context, req driven.StructureSummaryRequest) (string, error) {
	payload := summaryPayload{PitchType: req.PitchType.Description()}
	for _, c := range req.Criteria {
		payload.Sections = append(payload.Sections, summarySection{
			Name:     c.CriteriaName,
			Coverage: c.CoverageStatus,
			Score:    c.Score,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("structure summary: %w", err)
	}

	var resp struct {
		Summary string `json:"summary"`
	}
	opts := driven.GenerateOptions{MaxTokens: summaryMaxTokens, Temperature: narrateTemperature}
	if err := n.generateJSON(ctx, "structure summary", driven.PromptStructureSummary, string(data), opts, &resp); err != nil {
		return "", err
	}
	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return "", fmt.Errorf("structure summary: %w", errEmptyResponse)
	}
	return summary, nil
}
