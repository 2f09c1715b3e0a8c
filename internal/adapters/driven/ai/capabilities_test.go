package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

func testGuard() *Guard {
	return NewGuard(GuardConfig{Concurrency: 2})
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{name: "placeholder", template: "Slide:\n%s\nEnd", want: "Slide:\nPAYLOAD\nEnd"},
		{name: "no placeholder", template: "Classify the slide.", want: "Classify the slide.\n\nPAYLOAD"},
		{name: "stray percent", template: "Score 0-100% for %s", want: "Score 0-100% for PAYLOAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderPrompt(tt.template, "PAYLOAD"))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "bare", text: `{"summary":"ok"}`, want: "ok"},
		{name: "fenced", text: "```json\n{\"summary\":\"fenced\"}\n```", want: "fenced"},
		{name: "prose around", text: "Here you go: {\"summary\":\"prose\"} Hope it helps.", want: "prose"},
		{name: "no object", text: "I cannot help with that.", wantErr: true},
		{name: "broken object", text: `{"summary": }`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Summary string `json:"summary"`
			}
			err := decodeJSON(tt.text, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Summary)
		})
	}
}

func TestLLMClassifier_Classify(t *testing.T) {
	slide := &domain.Slide{Number: 2, CleanText: "Small shops lose 20% of revenue to manual invoicing"}

	tests := []struct {
		name     string
		response string
		want     domain.Classification
		wantErr  bool
	}{
		{
			name:     "full answer",
			response: `{"category":"problem","confidence":0.91,"short_summary":" Manual invoicing costs shops revenue ","key_claims":["20% revenue lost"," ",42]}`,
			want: domain.Classification{
				Category:     domain.CategoryProblem,
				Confidence:   0.91,
				ShortSummary: "Manual invoicing costs shops revenue",
				KeyClaims:    []string{"20% revenue lost", "42"},
			},
		},
		{
			name:     "alias and alternate confidence key",
			response: `{"category":"BM","category_confidence":1.7}`,
			want:     domain.Classification{Category: domain.CategoryBusinessModel, Confidence: 1, KeyClaims: []string{}},
		},
		{
			name:     "missing confidence",
			response: `{"category":"TEAM"}`,
			want:     domain.Classification{Category: domain.CategoryTeam, Confidence: 0.7, KeyClaims: []string{}},
		},
		{name: "unknown category", response: `{"category":"WEATHER","confidence":0.9}`, wantErr: true},
		{name: "not json", response: "PROBLEM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLM{responses: []string{tt.response}}
			classifier := NewLLMClassifier(llm, &stubPrompts{}, testGuard())

			got, err := classifier.Classify(context.Background(), slide)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, llm.lastPrompt(), "classify_slide: Small shops")
			assert.True(t, llm.lastOpts().JSON)
		})
	}
}

func TestLLMClassifier_TruncatesInput(t *testing.T) {
	llm := &stubLLM{responses: []string{`{"category":"OTHER"}`}}
	classifier := NewLLMClassifier(llm, &stubPrompts{templates: map[string]string{driven.PromptClassifySlide: "%s"}}, nil)
	slide := &domain.Slide{Number: 1, CleanText: strings.Repeat("가", 5000)}

	_, err := classifier.Classify(context.Background(), slide)

	require.NoError(t, err)
	assert.Equal(t, 4000, len([]rune(llm.lastPrompt())))
}

func TestLLMCapabilities_Failures(t *testing.T) {
	slide := &domain.Slide{Number: 1, CleanText: "We are the team"}
	errPrompt := errors.New("prompt dir unreadable")

	tests := []struct {
		name      string
		llm       driven.LLMService
		prompts   driven.PromptStore
		wantErr   error
		wantCalls int
	}{
		{name: "no llm", llm: nil, prompts: &stubPrompts{}, wantErr: domain.ErrLLMUnavailable},
		{name: "no prompt store", llm: &stubLLM{}, prompts: nil, wantErr: errNoPromptStore},
		{name: "prompt load fails", llm: &stubLLM{}, prompts: &stubPrompts{err: errPrompt}, wantErr: errPrompt},
		{
			name:      "empty answers retried once",
			llm:       &stubLLM{responses: []string{"  "}},
			prompts:   &stubPrompts{},
			wantErr:   errEmptyResponse,
			wantCalls: 2,
		},
		{
			name:      "rate limited twice",
			llm:       &stubLLM{errs: []error{domain.ErrRateLimited}},
			prompts:   &stubPrompts{},
			wantErr:   domain.ErrRateLimited,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewLLMClassifier(tt.llm, tt.prompts, testGuard())

			_, err := classifier.Classify(context.Background(), slide)

			assert.ErrorIs(t, err, tt.wantErr)
			if stub, ok := tt.llm.(*stubLLM); ok {
				assert.Equal(t, tt.wantCalls, stub.calls())
			}
		})
	}
}

func TestLLMCapabilities_RecoverAfterOneTransientFailure(t *testing.T) {
	llm := &stubLLM{
		errs:      []error{domain.ErrCapabilityUnavailable, nil},
		responses: []string{"", `{"is_relevant":true,"confidence":0.8}`},
	}
	reviewer := NewLLMReviewer(llm, &stubPrompts{}, testGuard())

	verdict, err := reviewer.Review(context.Background(), domain.RubricItem{ID: "MK_01"}, nil)

	require.NoError(t, err)
	assert.True(t, verdict.Relevant)
	assert.Equal(t, 2, llm.calls())
}

func TestLLMReviewer_Review(t *testing.T) {
	item := domain.RubricItem{ID: "MK_01", Name: "Market size", Description: "TAM, SAM and SOM"}
	evidences := []domain.Evidence{
		{SlideNumber: 4, Similarity: 0.6349, Summary: "TAM of 3B"},
		{SlideNumber: 5, Similarity: 0.58, Summary: "SAM 400M"},
	}

	tests := []struct {
		name     string
		response string
		want     domain.ReviewVerdict
	}{
		{name: "relevant", response: `{"is_relevant":true,"confidence":0.82}`, want: domain.ReviewVerdict{Relevant: true, Confidence: 0.82}},
		{name: "not relevant", response: `{"is_relevant":false,"confidence":0.9}`, want: domain.ReviewVerdict{Confidence: 0.9}},
		{name: "confidence clamped", response: `{"is_relevant":true,"confidence":-2}`, want: domain.ReviewVerdict{Relevant: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLM{responses: []string{tt.response}}
			reviewer := NewLLMReviewer(llm, &stubPrompts{templates: map[string]string{driven.PromptReviewCoverage: "%s"}}, testGuard())

			got, err := reviewer.Review(context.Background(), item, evidences)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			var payload reviewPayload
			require.NoError(t, json.Unmarshal([]byte(llm.lastPrompt()), &payload))
			assert.Equal(t, "Market size", payload.ItemName)
			require.Len(t, payload.Evidence, 2)
			assert.Equal(t, 4, payload.Evidence[0].SlideNumber)
			assert.InDelta(t, 0.63, payload.Evidence[0].Similarity, 1e-9)
		})
	}
}

func TestLLMNarrator_GroupFeedback(t *testing.T) {
	group := domain.RubricGroup{ID: "TEAM", Name: "Team"}
	req := driven.GroupFeedbackRequest{
		Group: group,
		Items: []domain.ItemResult{{
			Item:      domain.RubricItem{ID: "TE_01", Name: "Team capability", MaxScore: 10},
			Coverage:  domain.CoverageCovered,
			Score:     10,
			Evidences: []domain.Evidence{{SlideNumber: 8, Summary: "Founders from Stripe"}},
		}},
		Missing: []domain.MissingItem{{ItemID: "TE_02", ItemName: "Advisors"}},
	}

	t.Run("feedback", func(t *testing.T) {
		llm := &stubLLM{responses: []string{`{"feedback":" Strong founders. Add advisors. ","confidence":0.8}`}}
		narrator := NewLLMNarrator(llm, &stubPrompts{templates: map[string]string{driven.PromptGroupFeedback: "%s"}}, testGuard())

		got, err := narrator.GroupFeedback(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, driven.GroupFeedback{Feedback: "Strong founders. Add advisors.", Confidence: 0.8}, got)

		var payload feedbackPayload
		require.NoError(t, json.Unmarshal([]byte(llm.lastPrompt()), &payload))
		assert.Equal(t, "Team", payload.GroupName)
		assert.Equal(t, []string{"Advisors"}, payload.Missing)
		require.Len(t, payload.Items, 1)
		assert.Equal(t, "Founders from Stripe", payload.Items[0].BestEvidence)
	})

	t.Run("empty feedback", func(t *testing.T) {
		llm := &stubLLM{responses: []string{`{"feedback":"","confidence":0.8}`}}
		narrator := NewLLMNarrator(llm, &stubPrompts{}, testGuard())

		_, err := narrator.GroupFeedback(context.Background(), req)

		assert.ErrorIs(t, err, errEmptyResponse)
	})
}

func TestLLMNarrator_StructureSummary(t *testing.T) {
	req := driven.StructureSummaryRequest{
		PitchType: domain.PitchTypeVCDemo,
		Criteria: []domain.CriteriaScore{
			{CriteriaName: "Problem definition", CoverageStatus: domain.CoverageCovered, Score: 20},
			{CriteriaName: "Team", CoverageStatus: domain.CoverageNotCovered, Score: 0},
		},
	}

	t.Run("summary", func(t *testing.T) {
		llm := &stubLLM{responses: []string{"```json\n{\"summary\":\"Clear problem, no team slide.\"}\n```"}}
		narrator := NewLLMNarrator(llm, &stubPrompts{templates: map[string]string{driven.PromptStructureSummary: "%s"}}, testGuard())

		got, err := narrator.StructureSummary(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "Clear problem, no team slide.", got)

		var payload summaryPayload
		require.NoError(t, json.Unmarshal([]byte(llm.lastPrompt()), &payload))
		assert.Equal(t, "VC demo day", payload.PitchType)
		assert.Len(t, payload.Sections, 2)
		assert.Equal(t, 500, llm.lastOpts().MaxTokens)
	})

	t.Run("blank summary", func(t *testing.T) {
		llm := &stubLLM{responses: []string{`{"summary":"   "}`}}
		narrator := NewLLMNarrator(llm, &stubPrompts{}, testGuard())

		_, err := narrator.StructureSummary(context.Background(), req)

		assert.ErrorIs(t, err, errEmptyResponse)
	})
}
