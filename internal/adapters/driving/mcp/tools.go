package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// defaultListLimit is used by list_reports when no limit is given.
const defaultListLimit = 20

// PageInput is one page of an inline deck.
type PageInput struct {
	Text string `json:"text" jsonschema:"the extracted text of the page"`
}

// EvaluateInput is the input schema for the evaluate_deck tool.
type EvaluateInput struct {
	Path      string      `json:"path,omitempty" jsonschema:"path to a deck file (.json, .md, .txt, .html)"`
	Pages     []PageInput `json:"pages,omitempty" jsonschema:"inline deck pages in order, used when path is empty"`
	Filename  string      `json:"filename,omitempty" jsonschema:"display name for an inline deck"`
	PitchType string      `json:"pitch_type,omitempty" jsonschema:"VC_DEMO, GOV_SUPPORT or STARTUP_CONTEST; inferred when empty"`
	NoStore   bool        `json:"no_store,omitempty" jsonschema:"do not save the report"`
}

// CriteriaOutput is the scored outcome of one rubric group.
type CriteriaOutput struct {
	CriteriaID    string   `json:"criteria_id"`
	Name          string   `json:"name"`
	Score         int      `json:"score"`
	Coverage      string   `json:"coverage"`
	RelatedSlides []int    `json:"related_slides"`
	Feedback      string   `json:"feedback"`
	Missing       []string `json:"missing_items,omitempty"`
}

// ReportOutput is the output schema of evaluate_deck and get_report.
type ReportOutput struct {
	ReportID         string           `json:"report_id"`
	Filename         string           `json:"filename"`
	PitchType        string           `json:"pitch_type"`
	TotalScore       int              `json:"total_score"`
	AnalysisMethod   string           `json:"analysis_method"`
	StructureSummary string           `json:"structure_summary"`
	Criteria         []CriteriaOutput `json:"criteria"`
	Strengths        []string         `json:"strengths"`
	Improvements     []string         `json:"improvements"`
	TopActions       []string         `json:"top_actions"`
	Degraded         []string         `json:"degraded_capabilities,omitempty"`
	Stored           bool             `json:"stored"`
}

// GetReportInput is the input schema for the get_report tool.
type GetReportInput struct {
	ID string `json:"id" jsonschema:"the report ID"`
}

// ListReportsInput is the input schema for the list_reports tool.
type ListReportsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of reports to return (default 20)"`
}

// ReportSummaryOutput is one entry of list_reports.
type ReportSummaryOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	PitchType  string `json:"pitch_type"`
	TotalScore int    `json:"total_score"`
	CreatedAt  string `json:"created_at"`
}

// ListReportsOutput is the output schema for the list_reports tool.
type ListReportsOutput struct {
	Reports []ReportSummaryOutput `json:"reports"`
	Count   int                   `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "evaluate_deck",
		Description: "Score a pitch deck against the rubric for its pitch type and return feedback",
	}, s.handleEvaluate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_report",
		Description: "Get a stored evaluation report by ID",
	}, s.handleGetReport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_reports",
		Description: "List stored evaluation reports, newest first",
	}, s.handleListReports)
}

// handleEvaluate handles the evaluate_deck tool invocation.
func (s *Server) handleEvaluate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EvaluateInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	opts := domain.EvaluateOptions{
		PitchType: input.PitchType,
		Persist:   !input.NoStore && s.ports.Reports != nil,
	}
	if input.PitchType != "" {
		if _, ok := domain.ParsePitchType(input.PitchType); !ok {
			return nil, ReportOutput{}, toolError("evaluate_deck",
				fmt.Errorf("%w: unknown pitch type %q", domain.ErrInvalidInput, input.PitchType))
		}
	}

	var (
		report *domain.Report
		err    error
	)
	switch {
	case strings.TrimSpace(input.Path) != "":
		report, err = s.ports.Evaluation.EvaluateFile(ctx, input.Path, opts)
	case len(input.Pages) > 0:
		deck := &domain.Deck{
			Pages:    make([]domain.Page, len(input.Pages)),
			Metadata: domain.DeckMetadata{Filename: input.Filename},
		}
		for i, p := range input.Pages {
			deck.Pages[i] = domain.Page{Text: p.Text}
		}
		report, err = s.ports.Evaluation.Evaluate(ctx, deck, opts)
	default:
		err = fmt.Errorf("%w: path or pages is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, ReportOutput{}, toolError("evaluate_deck", err)
	}

	out := reportOutput(report)
	out.Stored = opts.Persist
	return nil, out, nil
}

// handleGetReport handles the get_report tool invocation.
func (s *Server) handleGetReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetReportInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	if s.ports.Reports == nil {
		return nil, ReportOutput{}, toolError("get_report", errNoReportStore)
	}
	report, err := s.ports.Reports.Get(ctx, input.ID)
	if err != nil {
		return nil, ReportOutput{}, toolError("get_report", err)
	}
	out := reportOutput(report)
	out.Stored = true
	return nil, out, nil
}

// handleListReports handles the list_reports tool invocation.
func (s *Server) handleListReports(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListReportsInput,
) (*mcp.CallToolResult, ListReportsOutput, error) {
	if s.ports.Reports == nil {
		return nil, ListReportsOutput{Reports: []ReportSummaryOutput{}}, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	summaries, err := s.ports.Reports.List(ctx, limit)
	if err != nil {
		return nil, ListReportsOutput{}, toolError("list_reports", err)
	}

	output := ListReportsOutput{
		Reports: make([]ReportSummaryOutput, len(summaries)),
		Count:   len(summaries),
	}
	for i, r := range summaries {
		output.Reports[i] = ReportSummaryOutput{
			ID:         r.ID,
			Filename:   r.Filename,
			PitchType:  string(r.PitchType),
			TotalScore: r.TotalScore,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return nil, output, nil
}

// reportOutput flattens a report for tool output.
func reportOutput(r *domain.Report) ReportOutput {
	out := ReportOutput{
		ReportID:         r.ID,
		Filename:         r.Meta.Filename,
		PitchType:        string(r.PitchType),
		TotalScore:       r.DeckScore.TotalScore,
		AnalysisMethod:   r.AnalysisMethod,
		StructureSummary: r.DeckScore.StructureSummary,
		Criteria:         make([]CriteriaOutput, len(r.CriteriaScores)),
		Strengths:        nonNil(r.DeckScore.Strengths),
		Improvements:     nonNil(r.DeckScore.Improvements),
		TopActions:       nonNil(r.DeckScore.TopActions),
		Degraded:         r.Meta.Degraded,
	}
	for i, c := range r.CriteriaScores {
		co := CriteriaOutput{
			CriteriaID:    c.CriteriaID,
			Name:          c.CriteriaName,
			Score:         c.Score,
			Coverage:      string(c.CoverageStatus),
			RelatedSlides: nonNil(c.RelatedSlides),
			Feedback:      c.Feedback,
		}
		for _, m := range c.MissingItems {
			co.Missing = append(co.Missing, m.ItemName)
		}
		out.Criteria[i] = co
	}
	return out
}

// nonNil returns an empty slice for nil so outputs encode [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
