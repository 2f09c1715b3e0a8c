package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func TestServer_handleEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("evaluates a file and stores the report", func(t *testing.T) {
		eval := &mockEvaluationService{report: sampleReport()}
		server, err := NewServer(&Ports{Evaluation: eval, Reports: &mockReportService{}}, "test")
		require.NoError(t, err)

		_, out, err := server.handleEvaluate(ctx, nil, EvaluateInput{Path: "/decks/acme.md", PitchType: "vc_demo"})

		require.NoError(t, err)
		assert.Equal(t, "/decks/acme.md", eval.lastPath)
		assert.True(t, eval.lastOpts.Persist)
		assert.Equal(t, "vc_demo", eval.lastOpts.PitchType)

		assert.Equal(t, "rep-1", out.ReportID)
		assert.Equal(t, "acme.md", out.Filename)
		assert.Equal(t, "VC_DEMO", out.PitchType)
		assert.Equal(t, 72, out.TotalScore)
		assert.True(t, out.Stored)
		assert.Equal(t, []string{"classifier"}, out.Degraded)
		assert.Equal(t, []string{}, out.Improvements)
		require.Len(t, out.Criteria, 2)
		assert.Equal(t, "COVERED", out.Criteria[0].Coverage)
		assert.Equal(t, []int{2}, out.Criteria[0].RelatedSlides)
		assert.Equal(t, []int{}, out.Criteria[1].RelatedSlides)
		assert.Equal(t, []string{"Traction metrics"}, out.Criteria[1].Missing)
	})

	t.Run("evaluates inline pages", func(t *testing.T) {
		eval := &mockEvaluationService{report: sampleReport()}
		server, err := NewServer(&Ports{Evaluation: eval}, "test")
		require.NoError(t, err)

		input := EvaluateInput{
			Pages:    []PageInput{{Text: "Acme"}, {Text: "Problem: late invoices"}},
			Filename: "inline",
		}
		_, out, err := server.handleEvaluate(ctx, nil, input)

		require.NoError(t, err)
		require.NotNil(t, eval.lastDeck)
		assert.Equal(t, "inline", eval.lastDeck.Metadata.Filename)
		assert.Equal(t, []domain.Page{{Text: "Acme"}, {Text: "Problem: late invoices"}}, eval.lastDeck.Pages)
		assert.False(t, eval.lastOpts.Persist, "no report store means nothing is persisted")
		assert.False(t, out.Stored)
	})

	t.Run("no_store skips persistence", func(t *testing.T) {
		eval := &mockEvaluationService{report: sampleReport()}
		server, err := NewServer(&Ports{Evaluation: eval, Reports: &mockReportService{}}, "test")
		require.NoError(t, err)

		_, out, err := server.handleEvaluate(ctx, nil, EvaluateInput{Path: "a.md", NoStore: true})

		require.NoError(t, err)
		assert.False(t, eval.lastOpts.Persist)
		assert.False(t, out.Stored)
	})

	errorTests := []struct {
		name  string
		input EvaluateInput
		err   error
		errIs error
		msg   string
	}{
		{
			name:  "missing path and pages",
			input: EvaluateInput{},
			errIs: domain.ErrInvalidInput,
			msg:   "path or pages is required",
		},
		{
			name:  "unknown pitch type",
			input: EvaluateInput{Path: "a.md", PitchType: "SEED_ROUND"},
			errIs: domain.ErrInvalidInput,
			msg:   "SEED_ROUND",
		},
		{
			name:  "empty deck",
			input: EvaluateInput{Path: "a.md"},
			err:   domain.ErrIngestionEmpty,
			errIs: domain.ErrIngestionEmpty,
			msg:   "no slide text",
		},
		{
			name:  "unsupported format",
			input: EvaluateInput{Path: "a.pptx"},
			err:   domain.ErrUnsupportedType,
			errIs: domain.ErrUnsupportedType,
			msg:   "unsupported deck format",
		},
		{
			name:  "other failure",
			input: EvaluateInput{Path: "a.md"},
			err:   errors.New("disk full"),
			msg:   "evaluate_deck: disk full",
		},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{err: tt.err}}, "test")
			require.NoError(t, err)

			_, _, err = server.handleEvaluate(ctx, nil, tt.input)

			require.Error(t, err)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestServer_handleGetReport(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored report", func(t *testing.T) {
		reports := &mockReportService{report: sampleReport()}
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}, Reports: reports}, "test")
		require.NoError(t, err)

		_, out, err := server.handleGetReport(ctx, nil, GetReportInput{ID: "rep-1"})

		require.NoError(t, err)
		assert.Equal(t, "rep-1", reports.lastID)
		assert.Equal(t, "rep-1", out.ReportID)
		assert.True(t, out.Stored)
	})

	t.Run("not found", func(t *testing.T) {
		reports := &mockReportService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}, Reports: reports}, "test")
		require.NoError(t, err)

		_, _, err = server.handleGetReport(ctx, nil, GetReportInput{ID: "missing"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "no such report")
	})

	t.Run("storage disabled", func(t *testing.T) {
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}}, "test")
		require.NoError(t, err)

		_, _, err = server.handleGetReport(ctx, nil, GetReportInput{ID: "rep-1"})

		assert.ErrorIs(t, err, errNoReportStore)
	})
}

func TestServer_handleListReports(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("KST", 9*3600))

	t.Run("returns summaries", func(t *testing.T) {
		reports := &mockReportService{summaries: []domain.ReportSummary{
			{ID: "rep-2", Filename: "b.md", PitchType: domain.PitchTypeGovSupport, TotalScore: 55, CreatedAt: created},
		}}
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}, Reports: reports}, "test")
		require.NoError(t, err)

		_, out, err := server.handleListReports(ctx, nil, ListReportsInput{Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, 5, reports.lastLimit)
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, ReportSummaryOutput{
			ID:         "rep-2",
			Filename:   "b.md",
			PitchType:  "GOV_SUPPORT",
			TotalScore: 55,
			CreatedAt:  "2026-03-01T00:30:00Z",
		}, out.Reports[0])
	})

	t.Run("default limit", func(t *testing.T) {
		reports := &mockReportService{}
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}, Reports: reports}, "test")
		require.NoError(t, err)

		_, out, err := server.handleListReports(ctx, nil, ListReportsInput{})

		require.NoError(t, err)
		assert.Equal(t, defaultListLimit, reports.lastLimit)
		assert.Equal(t, 0, out.Count)
	})

	t.Run("storage disabled returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}}, "test")
		require.NoError(t, err)

		_, out, err := server.handleListReports(ctx, nil, ListReportsInput{})

		require.NoError(t, err)
		assert.Empty(t, out.Reports)
		assert.NotNil(t, out.Reports)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		reports := &mockReportService{err: errors.New("database locked")}
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}, Reports: reports}, "test")
		require.NoError(t, err)

		_, _, err = server.handleListReports(ctx, nil, ListReportsInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database locked")
	})
}
