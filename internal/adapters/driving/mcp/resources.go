package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for deckscore resources.
	uriScheme = "deckscore://"

	// resourceListLimit caps the reports resource.
	resourceListLimit = 100
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reports",
		Name:        "reports",
		Description: "Stored evaluation reports, newest first",
		MIMEType:    "application/json",
	}, s.handleReportsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "reports/{id}",
		Name:        "report",
		Description: "A complete evaluation report",
		MIMEType:    "application/json",
	}, s.handleReportResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "rubrics/{pitchType}",
		Name:        "rubric",
		Description: "The scoring rubric for a pitch type (VC_DEMO, GOV_SUPPORT, STARTUP_CONTEST)",
		MIMEType:    "application/json",
	}, s.handleRubricResource)
}

// handleReportsResource lists stored reports.
func (s *Server) handleReportsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Reports == nil {
		return jsonResult(req.Params.URI, []domain.ReportSummary{})
	}

	summaries, err := s.ports.Reports.List(ctx, resourceListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return jsonResult(req.Params.URI, summaries)
}

// handleReportResource returns one complete report.
func (s *Server) handleReportResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Reports == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractReportID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	report, err := s.ports.Reports.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return jsonResult(req.Params.URI, report)
}

// handleRubricResource returns the rubric for a pitch type.
func (s *Server) handleRubricResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Rubrics == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	pitchType := extractPitchType(req.Params.URI)
	if _, ok := domain.ParsePitchType(pitchType); !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rubric, err := s.ports.Rubrics.Get(pitchType)
	if err != nil {
		return nil, fmt.Errorf("getting rubric: %w", err)
	}
	return jsonResult(req.Params.URI, rubric)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractReportID extracts the report ID from a URI like deckscore://reports/{id}.
func extractReportID(uri string) string {
	return extractSegment(uri, uriScheme+"reports/")
}

// extractPitchType extracts the pitch type from a URI like deckscore://rubrics/{pitchType}.
func extractPitchType(uri string) string {
	return extractSegment(uri, uriScheme+"rubrics/")
}

// extractSegment returns the single path segment after prefix, or "".
func extractSegment(uri, prefix string) string {
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(uri, prefix)
	if strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
