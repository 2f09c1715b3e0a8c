// Package domain defines the core business entities for deckscore.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Slide: One normalised page of a pitch deck
//   - Rubric, RubricGroup, RubricItem: The weighted scoring tree
//   - Evidence: A slide proposed as support for a rubric item
//   - CriteriaScore, DeckScore: Scoring outputs
//   - Report: The complete, JSON-serialisable evaluation result
//   - ScoringSettings: Immutable tuning parameters for one engine
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
