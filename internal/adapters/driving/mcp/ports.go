package mcp

import (
	"net/http"

	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Evaluation scores decks.
	Evaluation driving.EvaluationService

	// Reports reads stored reports. Nil when storage is disabled.
	Reports driving.ReportService

	// Rubrics exposes the configured rubrics.
	Rubrics driving.RubricService

	// Metrics is served at /metrics in HTTP mode when set.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Evaluation == nil {
		return ErrMissingEvaluationService
	}
	return nil
}
