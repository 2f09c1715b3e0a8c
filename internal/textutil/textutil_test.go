package textutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello \n\t world  ", "hello world"},
		{"", ""},
		{"\n\n", ""},
		{"시장   규모", "시장 규모"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseWhitespace(tt.in))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "tam sam", Normalize("TAM SAM"))
	// Full-width Latin folds to ASCII under NFKC.
	assert.Equal(t, "abc", Normalize("ＡＢＣ"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"market", "size", "tam", "sam", "som"}, Tokenize("Market size: TAM/SAM/SOM"))
	assert.Equal(t, []string{"시장규모", "100억"}, Tokenize("시장규모 100억!"))
	assert.Equal(t, []string{"snake_case", "2024"}, Tokenize("snake_case, 2024"))
	assert.Empty(t, Tokenize("  ... "))
}

func TestJaccard(t *testing.T) {
	a := TokenSet("revenue model pricing")
	b := TokenSet("pricing model subscription")
	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, Jaccard(a, Set{}))
	assert.Equal(t, 1.0, Jaccard(a, a))
}

func TestNGramSet(t *testing.T) {
	assert.Len(t, NGramSet("abcd", 3), 2)
	assert.Empty(t, NGramSet("ab", 3))
	// whitespace is removed before grams are cut
	assert.Equal(t, NGramSet("a b c", 3), NGramSet("abc", 3))
}

func TestKeywordOverlap(t *testing.T) {
	q := TokenSet("team founders")
	assert.Equal(t, 0.5, KeywordOverlap(q, TokenSet("our team is small")))
	assert.Equal(t, 1.0, KeywordOverlap(q, TokenSet("team founders rock")))

	// denominator is capped at ten tokens
	long := TokenSet("a b c d e f g h i j k l")
	assert.Equal(t, 1.0, KeywordOverlap(long, TokenSet("a b c d e f g h i j")))
	assert.Equal(t, 0.0, KeywordOverlap(Set{}, long))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	// negative correlation is clamped to zero
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{-1, 0}))
	// non-finite components never leak a NaN similarity
	nan := float32(math.NaN())
	assert.Equal(t, 0.0, Cosine([]float32{nan, 1}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{float32(math.Inf(1)), 1}, []float32{1, 1}))
}

func TestTruncateAndPreview(t *testing.T) {
	assert.Equal(t, "시장", Truncate("시장규모", 2))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ab...", Preview("abcdef", 2))
	assert.Equal(t, "abc", Preview(" abc ", 5))
}

func TestEmbeddingInput(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{name: "collapses whitespace", text: " Market\n\n size  ", want: "Market size"},
		{name: "truncates runes", text: "시장 규모 분석", maxRunes: 4, want: "시장 규"},
		{name: "no limit", text: "team", maxRunes: 0, want: "team"},
		{name: "blank", text: " \n\t", maxRunes: 10, want: BlankInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbeddingInput(tt.text, tt.maxRunes))
		})
	}
}

func TestSplitClaims(t *testing.T) {
	text := "We reduce onboarding time by 80%. Short. Customers love the product! Is it scalable at all?"
	claims := SplitClaims(text, 15, 5)
	assert.Equal(t, []string{
		"We reduce onboarding time by 80%",
		"Customers love the product",
		"Is it scalable at all",
	}, claims)

	assert.Len(t, SplitClaims("aaaaaaaaaaaaaaaa. bbbbbbbbbbbbbbbb. cccccccccccccccc", 15, 2), 2)
}

func TestCountHelpers(t *testing.T) {
	assert.Equal(t, 9, CountDigits("TAM 120억, SAM 30억 (2024)"))
	assert.Equal(t, 2, CountLines("a\n\n b \r\n"))
	assert.True(t, ContainsAny("our roadmap for q3", []string{"roadmap", "x"}))
	assert.Equal(t, 2, CountContained("ceo and cto", []string{"ceo", "cto", "coo"}))
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(2))
	assert.Equal(t, 0.35, Clamp(0.1, 0.35, 0.7))
	assert.Equal(t, 6.58, Round2(6.5750001))
}

func TestNewProfile(t *testing.T) {
	p := NewProfile("ARR 1.2M in 2024")
	assert.Equal(t, 6, p.Digits)
	assert.Contains(t, p.Tokens, "arr")
	assert.NotEmpty(t, p.Grams)
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		phrase string
		want   bool
	}{
		{"ascii word", "our sam is 30", "sam", true},
		{"ascii inside word", "the same market", "sam", false},
		{"ascii at end", "roadmap q3", "q3", true},
		{"year before hangul", "2026년 출시", "2026", true},
		{"hangul with particle", "시장은 크다", "시장", true},
		{"punctuated phrase", "as-is 분석", "as-is", true},
		{"empty phrase", "anything", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPhrase(tt.text, tt.phrase))
		})
	}
}
