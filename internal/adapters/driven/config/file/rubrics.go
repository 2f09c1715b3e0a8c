package file

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
	"github.com/custodia-labs/deckscore/internal/logger"
)

// Ensure RubricStore implements the interface.
var _ driven.RubricStore = (*RubricStore)(nil)

//go:embed rubrics/default.toml
var builtinRubrics embed.FS

const builtinRubricPath = "rubrics/default.toml"

// RubricStore serves the built-in rubric, replaced per pitch type by
// <dir>/<pitch_type>.toml when that file exists. Loaded rubrics are
// validated, weight-normalised and cached for the life of the store.
type RubricStore struct {
	dir string

	mu    sync.Mutex
	cache map[domain.PitchType]*domain.Rubric
}

// rubricFile is the TOML layout of a rubric.
type rubricFile struct {
	Version string       `toml:"version"`
	Groups  []groupEntry `toml:"groups"`
}

type groupEntry struct {
	ID                 string      `toml:"group_id"`
	Name               string      `toml:"group_name"`
	Weight             float64     `toml:"group_weight"`
	MaxScore           float64     `toml:"max_score"`
	ExpectedCategories []string    `toml:"expected_categories"`
	Items              []itemEntry `toml:"items"`
}

type itemEntry struct {
	ID            string  `toml:"item_id"`
	Name          string  `toml:"item_name"`
	Description   string  `toml:"description"`
	MaxScore      float64 `toml:"max_score"`
	FailIfMissing bool    `toml:"fail_if_missing"`
}

// NewRubricStore creates a rubric store reading overrides from dir.
// An empty dir serves only the built-in rubric.
func NewRubricStore(dir string) *RubricStore {
	return &RubricStore{
		dir:   dir,
		cache: make(map[domain.PitchType]*domain.Rubric),
	}
}

// Load returns the rubric for a pitch type.
// Invalid rubrics fail with domain.ErrInvalidConfig.
func (s *RubricStore) Load(pitchType domain.PitchType) (*domain.Rubric, error) {
	if !pitchType.IsValid() {
		return nil, fmt.Errorf("%w: unknown pitch type %q", domain.ErrInvalidInput, pitchType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rubric, ok := s.cache[pitchType]; ok {
		return rubric, nil
	}

	data, source, err := s.read(pitchType)
	if err != nil {
		return nil, err
	}
	rubric, err := parseRubric(data, pitchType)
	if err != nil {
		return nil, fmt.Errorf("rubric %s: %w", source, err)
	}
	if err := rubric.Validate(); err != nil {
		return nil, fmt.Errorf("rubric %s: %w", source, err)
	}
	normalized, changed := rubric.NormalizeWeights()
	if changed {
		logger.Warn("rubric %s: group weights sum to %.3f, normalised to 1", source, rubric.WeightSum())
	}

	s.cache[pitchType] = normalized
	return normalized, nil
}

// PitchTypes returns every pitch type; each has at least the built-in rubric.
func (s *RubricStore) PitchTypes() []domain.PitchType {
	return domain.AllPitchTypes()
}

// Dir returns the override directory.
func (s *RubricStore) Dir() string {
	return s.dir
}

func (s *RubricStore) read(pitchType domain.PitchType) ([]byte, string, error) {
	if s.dir != "" {
		path := filepath.Join(s.dir, strings.ToLower(pitchType.String())+".toml")
		data, err := os.ReadFile(path)
		if err == nil {
			logger.Debug("rubric override loaded from %s", path)
			return data, path, nil
		}
		if !os.IsNotExist(err) {
			return nil, path, fmt.Errorf("read rubric %s: %w", path, err)
		}
	}

	data, err := builtinRubrics.ReadFile(builtinRubricPath)
	if err != nil {
		return nil, builtinRubricPath, fmt.Errorf("read built-in rubric: %w", err)
	}
	return data, "built-in", nil
}

// BuiltinRubric returns the embedded rubric TOML, for users who want a
// starting point for an override.
func BuiltinRubric() ([]byte, error) {
	return builtinRubrics.ReadFile(builtinRubricPath)
}

func parseRubric(data []byte, pitchType domain.PitchType) (*domain.Rubric, error) {
	var file rubricFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	rubric := &domain.Rubric{
		PitchType: pitchType,
		Version:   file.Version,
		Groups:    make([]domain.RubricGroup, 0, len(file.Groups)),
	}
	for _, g := range file.Groups {
		group := domain.RubricGroup{
			ID:       strings.TrimSpace(g.ID),
			Name:     g.Name,
			Weight:   g.Weight,
			MaxScore: g.MaxScore,
			Items:    make([]domain.RubricItem, 0, len(g.Items)),
		}
		for _, c := range g.ExpectedCategories {
			category, ok := domain.ParseCategory(c)
			if !ok {
				return nil, fmt.Errorf("%w: group %s expects unknown category %q", domain.ErrInvalidConfig, group.ID, c)
			}
			group.ExpectedCategories = append(group.ExpectedCategories, category)
		}
		for _, it := range g.Items {
			group.Items = append(group.Items, domain.RubricItem{
				ID:            strings.TrimSpace(it.ID),
				Name:          it.Name,
				Description:   it.Description,
				MaxScore:      it.MaxScore,
				FailIfMissing: it.FailIfMissing,
			})
		}
		rubric.Groups = append(rubric.Groups, group)
	}
	return rubric, nil
}
