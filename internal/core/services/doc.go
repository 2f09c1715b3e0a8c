// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The scoring pipeline lives here: slide building, classification,
// embedding, retrieval, coverage decisions, scoring and aggregation.
// Every generative capability is optional and has a deterministic
// fallback, so a deck can always be scored offline.
//
// Services are pure Go with no CGO. Beyond the standard library they
// only use golang.org/x extensions and uuid.
package services
