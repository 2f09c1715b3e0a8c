package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
)

// Ensure ReportService implements the interface.
var _ driving.ReportService = (*ReportService)(nil)

// ReportService reads and manages stored reports.
type ReportService struct {
	store driven.ReportStore
}

// NewReportService creates a report service.
func NewReportService(store driven.ReportStore) *ReportService {
	return &ReportService{store: store}
}

// Get retrieves a report by ID.
func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: report id is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// List returns the most recent reports first.
func (s *ReportService) List(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	return s.store.List(ctx, limit)
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: report id is required", domain.ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}
