package textutil

import (
	"math"
	"strings"
	"unicode"
)

// Set is a set of strings.
type Set map[string]struct{}

// Tokenize normalises text and returns its tokens in order.
// A token is a maximal run of letters, digits or underscores.
func Tokenize(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) Set {
	tokens := Tokenize(text)
	set := make(Set, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// NGramSet returns the distinct rune n-grams of the normalised text with
// whitespace removed. Texts shorter than n yield an empty set.
func NGramSet(text string, n int) Set {
	r := []rune(StripWhitespace(Normalize(text)))
	if n <= 0 || len(r) < n {
		return Set{}
	}
	set := make(Set, len(r)-n+1)
	for i := 0; i+n <= len(r); i++ {
		set[string(r[i:i+n])] = struct{}{}
	}
	return set
}

// Intersection returns |a ∩ b|.
func Intersection(a, b Set) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := Intersection(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// maxKeywordDenominator caps how many query tokens must match for a full
// keyword overlap score.
const maxKeywordDenominator = 10

// KeywordOverlap returns the share of query tokens found in doc, with the
// denominator capped at 10 tokens. The result is in [0,1].
func KeywordOverlap(query, doc Set) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	denom := len(query)
	if denom > maxKeywordDenominator {
		denom = maxKeywordDenominator
	}
	return Clamp01(float64(Intersection(query, doc)) / float64(denom))
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Vectors of different length are compared on their common prefix.
// Empty or zero vectors give 0, as does any non-finite result.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return Clamp01(sim)
}

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp clamps v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Profile holds the precomputed features of one text for repeated
// comparisons.
type Profile struct {
	Tokens Set
	Grams  Set
	Digits int
}

// NGramSize is the character n-gram length used by profiles.
const NGramSize = 3

// NewProfile computes the token set, 3-gram set and digit count of text.
func NewProfile(text string) Profile {
	return Profile{
		Tokens: TokenSet(text),
		Grams:  NGramSet(text, NGramSize),
		Digits: CountDigits(text),
	}
}
