package domain

import (
	"fmt"
	"math"
	"strings"
)

// PitchType selects which rubric a deck is scored against.
type PitchType string

// Available pitch types.
const (
	// PitchTypeVCDemo is an investor demo-day pitch.
	PitchTypeVCDemo PitchType = "VC_DEMO"

	// PitchTypeGovSupport is an application for a public funding programme.
	PitchTypeGovSupport PitchType = "GOV_SUPPORT"

	// PitchTypeStartupContest is a startup competition entry.
	PitchTypeStartupContest PitchType = "STARTUP_CONTEST"
)

// IsValid returns true if the pitch type is recognised.
func (p PitchType) IsValid() bool {
	switch p {
	case PitchTypeVCDemo, PitchTypeGovSupport, PitchTypeStartupContest:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p PitchType) String() string {
	return string(p)
}

// Description returns a human-readable description of the pitch type.
func (p PitchType) Description() string {
	switch p {
	case PitchTypeVCDemo:
		return "VC demo day"
	case PitchTypeGovSupport:
		return "Government support programme"
	case PitchTypeStartupContest:
		return "Startup contest"
	default:
		return unknownDescription
	}
}

// AllPitchTypes returns all available pitch types.
func AllPitchTypes() []PitchType {
	return []PitchType{PitchTypeVCDemo, PitchTypeGovSupport, PitchTypeStartupContest}
}

// ParsePitchType normalises s and maps known aliases.
// It returns false when s names no pitch type.
func ParsePitchType(s string) (PitchType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VC_DEMO", "ELEVATOR":
		return PitchTypeVCDemo, true
	case "GOV_SUPPORT", "GOVERNMENT":
		return PitchTypeGovSupport, true
	case "STARTUP_CONTEST", "COMPETITION":
		return PitchTypeStartupContest, true
	default:
		return "", false
	}
}

// RubricItem is one scorable requirement inside a group.
type RubricItem struct {
	ID            string  `json:"item_id"`
	Name          string  `json:"item_name"`
	Description   string  `json:"description"`
	MaxScore      float64 `json:"max_score"`
	FailIfMissing bool    `json:"fail_if_missing"`
}

// EmbeddingText is the text sent to the embedding gateway.
func (i RubricItem) EmbeddingText() string {
	return i.Name + ". " + i.Description
}

// RetrievalText is the text compared lexically against slides.
func (i RubricItem) RetrievalText() string {
	return strings.TrimSpace(i.Name + " " + i.Description)
}

// RubricGroup is a weighted set of items scored together.
type RubricGroup struct {
	ID       string  `json:"group_id"`
	Name     string  `json:"group_name"`
	Weight   float64 `json:"group_weight"`
	MaxScore float64 `json:"max_score"`

	// ExpectedCategories is the category prior for retrieval.
	// When empty, DefaultCategoryPriors is consulted by group ID.
	ExpectedCategories []Category `json:"expected_categories,omitempty"`

	Items []RubricItem `json:"items"`
}

// Priors returns the slide categories expected to hold this group's evidence.
func (g RubricGroup) Priors() []Category {
	if len(g.ExpectedCategories) > 0 {
		return g.ExpectedCategories
	}
	return DefaultCategoryPriors()[g.ID]
}

// ItemNames returns the item names in order.
func (g RubricGroup) ItemNames() []string {
	names := make([]string, 0, len(g.Items))
	for _, it := range g.Items {
		if n := strings.TrimSpace(it.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// DefaultCategoryPriors maps the built-in group IDs to expected categories.
func DefaultCategoryPriors() map[string][]Category {
	return map[string][]Category{
		"PROBLEM":   {CategoryProblem, CategoryMarket},
		"SOLUTION":  {CategorySolution, CategoryProduct},
		"MARKET_BM": {CategoryMarket, CategoryBusinessModel, CategoryCompetition},
		"TRACTION":  {CategoryTraction, CategoryMarket},
		"TEAM":      {CategoryTeam},
		"FINANCE":   {CategoryFinance, CategoryBusinessModel},
	}
}

// Rubric is the weighted tree of groups a deck is scored against.
// A loaded rubric is shared read-only across concurrent evaluations.
type Rubric struct {
	PitchType PitchType     `json:"pitch_type"`
	Version   string        `json:"version,omitempty"`
	Groups    []RubricGroup `json:"groups"`
}

// ItemCount returns the number of items across all groups.
func (r *Rubric) ItemCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Items)
	}
	return n
}

// WeightSum returns the sum of group weights.
func (r *Rubric) WeightSum() float64 {
	sum := 0.0
	for _, g := range r.Groups {
		sum += g.Weight
	}
	return sum
}

// weightTolerance is how far the weight sum may drift from 1 before
// NormalizeWeights rescales it.
const weightTolerance = 1e-3

// Validate checks the rubric structure. All failures wrap ErrInvalidConfig.
func (r *Rubric) Validate() error {
	if len(r.Groups) == 0 {
		return fmt.Errorf("%w: rubric %s has no groups", ErrInvalidConfig, r.PitchType)
	}
	groupIDs := make(map[string]bool, len(r.Groups))
	itemIDs := make(map[string]bool)
	for _, g := range r.Groups {
		if g.ID == "" {
			return fmt.Errorf("%w: group without id", ErrInvalidConfig)
		}
		if groupIDs[g.ID] {
			return fmt.Errorf("%w: duplicate group id %s", ErrInvalidConfig, g.ID)
		}
		groupIDs[g.ID] = true
		if g.MaxScore <= 0 {
			return fmt.Errorf("%w: group %s has max_score %.2f", ErrInvalidConfig, g.ID, g.MaxScore)
		}
		if g.Weight < 0 || g.Weight > 1 {
			return fmt.Errorf("%w: group %s weight %.3f outside [0,1]", ErrInvalidConfig, g.ID, g.Weight)
		}
		if len(g.Items) == 0 {
			return fmt.Errorf("%w: group %s has no items", ErrInvalidConfig, g.ID)
		}
		for _, c := range g.ExpectedCategories {
			if !c.IsValid() {
				return fmt.Errorf("%w: group %s expects unknown category %q", ErrInvalidConfig, g.ID, c)
			}
		}
		for _, it := range g.Items {
			if it.ID == "" {
				return fmt.Errorf("%w: item without id in group %s", ErrInvalidConfig, g.ID)
			}
			if itemIDs[it.ID] {
				return fmt.Errorf("%w: duplicate item id %s", ErrInvalidConfig, it.ID)
			}
			itemIDs[it.ID] = true
			if it.MaxScore <= 0 {
				return fmt.Errorf("%w: item %s has max_score %.2f", ErrInvalidConfig, it.ID, it.MaxScore)
			}
		}
	}
	if r.WeightSum() <= 0 {
		return fmt.Errorf("%w: rubric %s group weights sum to zero", ErrInvalidConfig, r.PitchType)
	}
	return nil
}

// NormalizeWeights returns a copy whose group weights sum to 1.
// The boolean reports whether any weight changed.
func (r *Rubric) NormalizeWeights() (*Rubric, bool) {
	out := r.Clone()
	sum := r.WeightSum()
	if sum <= 0 || math.Abs(sum-1) <= weightTolerance {
		return out, false
	}
	for i := range out.Groups {
		out.Groups[i].Weight = out.Groups[i].Weight / sum
	}
	return out, true
}

// Clone returns a deep copy.
func (r *Rubric) Clone() *Rubric {
	out := &Rubric{PitchType: r.PitchType, Version: r.Version, Groups: make([]RubricGroup, len(r.Groups))}
	for i, g := range r.Groups {
		cg := g
		cg.ExpectedCategories = append([]Category(nil), g.ExpectedCategories...)
		cg.Items = append([]RubricItem(nil), g.Items...)
		out.Groups[i] = cg
	}
	return out
}
