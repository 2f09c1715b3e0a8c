// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RubricStore: Rubric loading (embedded defaults or TOML files)
//   - DeckLoaderRegistry: Turns files into ordered pages
//   - ReportStore: Report persistence (SQLite or in-memory)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the scoring engine degrades gracefully:
//
//   - EmbeddingService: Real embeddings. Without it, hashed embeddings are used.
//   - LLMService: Raw completions backing the capabilities below.
//   - SlideClassifier: LLM classification. Without it, keyword rules classify.
//   - CoverageReviewer: Borderline review. Without it, the threshold ladder decides.
//   - Narrator: Feedback prose. Without it, templated sentences are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
