package domain

import "strings"

// Category is the semantic role of a slide within a pitch deck.
type Category string

// Slide categories. The set is closed; anything else is invalid.
const (
	CategoryCover         Category = "COVER"
	CategoryProblem       Category = "PROBLEM"
	CategorySolution      Category = "SOLUTION"
	CategoryProduct       Category = "PRODUCT"
	CategoryMarket        Category = "MARKET"
	CategoryBusinessModel Category = "BUSINESS_MODEL"
	CategoryTraction      Category = "TRACTION"
	CategoryCompetition   Category = "COMPETITION"
	CategoryTeam          Category = "TEAM"
	CategoryFinance       Category = "FINANCE"
	CategoryAsk           Category = "ASK"
	CategoryOther         Category = "OTHER"
)

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryCover,
		CategoryProblem,
		CategorySolution,
		CategoryProduct,
		CategoryMarket,
		CategoryBusinessModel,
		CategoryTraction,
		CategoryCompetition,
		CategoryTeam,
		CategoryFinance,
		CategoryAsk,
		CategoryOther,
	}
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryCover, CategoryProblem, CategorySolution, CategoryProduct,
		CategoryMarket, CategoryBusinessModel, CategoryTraction, CategoryCompetition,
		CategoryTeam, CategoryFinance, CategoryAsk, CategoryOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseCategory upper-cases s and accepts the PLAN and BM aliases used in
// labelled datasets. It returns false for anything outside the closed set.
func ParseCategory(s string) (Category, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "PLAN":
		return CategoryAsk, true
	case "BM":
		return CategoryBusinessModel, true
	}
	c := Category(v)
	return c, c.IsValid()
}

// MinCleanTextLength is the shortest clean text that still counts as evidence.
const MinCleanTextLength = 20

// Page is one ingested page of a deck.
type Page struct {
	Text string `json:"text"`
}

// DeckMetadata describes the source of a deck.
type DeckMetadata struct {
	Filename string `json:"filename"`
}

// Deck is the ingestion contract: ordered pages plus metadata.
type Deck struct {
	Pages    []Page       `json:"pages"`
	Metadata DeckMetadata `json:"metadata"`
}

// Slide is one normalised page of a deck.
// It is created once per run, filled in by classification and embedding,
// and read-only afterwards.
type Slide struct {
	// Number is the 1-based position in the deck.
	Number int `json:"slide_number"`

	RawText   string `json:"raw_text"`
	CleanText string `json:"clean_text"`

	Category           Category `json:"category"`
	CategoryConfidence float64  `json:"category_confidence"`
	ShortSummary       string   `json:"short_summary"`
	KeyClaims          []string `json:"key_claims"`

	// TextDeficient is set when CleanText is shorter than MinCleanTextLength.
	// Deficient slides never become evidence.
	TextDeficient bool `json:"text_deficiency_flag"`

	Embedding []float32 `json:"-"`
}

// EmbeddingText is the text sent to the embedding gateway.
func (s *Slide) EmbeddingText() string {
	return s.CleanText + "\n" + s.ShortSummary
}

// RetrievalText is the text compared lexically against rubric items.
func (s *Slide) RetrievalText() string {
	return s.CleanText + " " + s.ShortSummary
}

// Classification is the result of classifying one slide.
type Classification struct {
	Category     Category `json:"category"`
	Confidence   float64  `json:"category_confidence"`
	ShortSummary string   `json:"short_summary"`
	KeyClaims    []string `json:"key_claims"`
}

// Apply copies the classification onto the slide.
func (c Classification) Apply(s *Slide) {
	s.Category = c.Category
	s.CategoryConfidence = c.Confidence
	s.ShortSummary = c.ShortSummary
	s.KeyClaims = c.KeyClaims
}
