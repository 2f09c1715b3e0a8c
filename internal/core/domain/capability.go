package domain

// Capability names an optional, externally backed part of the pipeline.
// They appear in ReportMeta.Degraded and in fallback metrics.
type Capability string

// Optional capabilities.
const (
	CapabilityClassifier Capability = "classifier"
	CapabilityEmbedding  Capability = "embedding"
	CapabilityReviewer   Capability = "reviewer"
	CapabilityNarrator   Capability = "narrator"
)

// String returns the string representation.
func (c Capability) String() string {
	return string(c)
}
