package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore is an in-memory implementation of driven.ReportStore.
// Reports are held as JSON so callers never share slices with the store.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string][]byte
	index   map[string]domain.ReportSummary
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string][]byte),
		index:   make(map[string]domain.ReportSummary),
	}
}

// Save stores or replaces a report.
func (s *ReportStore) Save(ctx context.Context, report *domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: report without id", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = data
	s.index[report.ID] = report.Summary()
	return nil
}

// Get retrieves a report by ID.
func (s *ReportStore) Get(_ context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	data, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &report, nil
}

// List returns the most recent reports first.
func (s *ReportStore) List(_ context.Context, limit int) ([]domain.ReportSummary, error) {
	s.mu.RLock()
	result := make([]domain.ReportSummary, 0, len(s.index))
	for _, summary := range s.index {
		result = append(result, summary)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Delete removes a report.
func (s *ReportStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.reports, id)
	delete(s.index, id)
	return nil
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}
