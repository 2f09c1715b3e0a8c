package domain

import "strings"

// Coverage is the verdict on whether deck content meets a requirement.
type Coverage string

// Coverage verdicts.
const (
	CoverageCovered    Coverage = "COVERED"
	CoveragePartial    Coverage = "PARTIALLY_COVERED"
	CoverageNotCovered Coverage = "NOT_COVERED"
)

// IsValid returns true if the coverage is recognised.
func (c Coverage) IsValid() bool {
	switch c {
	case CoverageCovered, CoveragePartial, CoverageNotCovered:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Coverage) String() string {
	return string(c)
}

// Value is the verdict's weight in a group reduction.
func (c Coverage) Value() float64 {
	switch c {
	case CoverageCovered:
		return 1.0
	case CoveragePartial:
		return 0.5
	default:
		return 0.0
	}
}

// AtMost returns c, capped at ceiling.
func (c Coverage) AtMost(ceiling Coverage) Coverage {
	if c.Value() > ceiling.Value() {
		return ceiling
	}
	return c
}

// AtLeast returns c, raised to floor.
func (c Coverage) AtLeast(floor Coverage) Coverage {
	if c.Value() < floor.Value() {
		return floor
	}
	return c
}

// ParseCoverage maps loose labels onto a verdict.
// Anything unrecognised is NOT_COVERED.
func ParseCoverage(s string) Coverage {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COVERED":
		return CoverageCovered
	case "PARTIALLY_COVERED", "PARTIAL", "PARTIALLY":
		return CoveragePartial
	default:
		return CoverageNotCovered
	}
}

// AllCoverages returns every verdict, best first.
func AllCoverages() []Coverage {
	return []Coverage{CoverageCovered, CoveragePartial, CoverageNotCovered}
}

// Evidence is a slide proposed as support for one rubric item.
type Evidence struct {
	SlideNumber int     `json:"slide_number"`
	Similarity  float64 `json:"similarity"`
	Summary     string  `json:"summary"`
	Excerpt     string  `json:"text_excerpt"`
}

// ReviewVerdict is a generative reviewer's relevance judgment.
type ReviewVerdict struct {
	Relevant   bool    `json:"is_relevant"`
	Confidence float64 `json:"confidence"`
}

// Coverage maps the verdict onto a coverage status.
func (v ReviewVerdict) Coverage() Coverage {
	switch {
	case v.Relevant && v.Confidence >= 0.6:
		return CoverageCovered
	case v.Relevant:
		return CoveragePartial
	default:
		return CoverageNotCovered
	}
}

// ItemResult is the transient outcome of scoring one rubric item.
type ItemResult struct {
	Item          RubricItem `json:"item"`
	Evidences     []Evidence `json:"evidences"`
	MaxSimilarity float64    `json:"max_similarity"`
	Coverage      Coverage   `json:"coverage"`
	Score         float64    `json:"score"`
}

// TopSummary returns the summary of the best evidence, or "".
func (r ItemResult) TopSummary() string {
	if len(r.Evidences) == 0 {
		return ""
	}
	return r.Evidences[0].Summary
}
