package services

import (
	"fmt"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
)

// Ensure RubricService implements the interface.
var _ driving.RubricService = (*RubricService)(nil)

// RubricService exposes the configured rubrics.
type RubricService struct {
	store driven.RubricStore
}

// NewRubricService creates a rubric service.
func NewRubricService(store driven.RubricStore) *RubricService {
	return &RubricService{store: store}
}

// Get returns the rubric for a pitch type name or alias.
func (s *RubricService) Get(pitchType string) (*domain.Rubric, error) {
	p, ok := domain.ParsePitchType(pitchType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown pitch type %q", domain.ErrInvalidInput, pitchType)
	}
	return s.store.Load(p)
}

// PitchTypes returns every pitch type with a rubric.
func (s *RubricService) PitchTypes() []domain.PitchType {
	return s.store.PitchTypes()
}
