// Package mcp provides an MCP (Model Context Protocol) server adapter for deckscore.
// It lets AI assistants score pitch decks and read stored reports and rubrics.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// ErrMissingEvaluationService is returned when the evaluation service is not provided.
var ErrMissingEvaluationService = errors.New("mcp: evaluation service is required")

// errNoReportStore is returned by report tools when reports are not stored.
var errNoReportStore = errors.New("report storage is disabled")

// toolError rewrites domain failures into messages an assistant can act on.
// The original error stays in the chain.
func toolError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%s: no such report: %w", op, err)
	case errors.Is(err, domain.ErrIngestionEmpty):
		return fmt.Errorf("%s: the deck has no slide text; pass a file with text pages: %w", op, err)
	case errors.Is(err, domain.ErrUnsupportedType):
		return fmt.Errorf("%s: unsupported deck format, use .json, .md, .txt or .html: %w", op, err)
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("%s: invalid arguments: %w", op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
