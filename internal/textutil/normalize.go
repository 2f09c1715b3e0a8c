package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC normalisation and Unicode case folding.
func Normalize(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// CollapseWhitespace replaces every run of whitespace with one space and
// trims both ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// StripWhitespace removes all whitespace.
func StripWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// RuneLen returns the number of runes in text.
func RuneLen(text string) int {
	return len([]rune(text))
}

// Truncate returns at most n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}

// Preview truncates text to n runes and appends "..." when it was cut.
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	if RuneLen(text) <= n {
		return text
	}
	return Truncate(text, n) + "..."
}

// CountDigits returns the number of decimal digits in text.
func CountDigits(text string) int {
	n := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// ContainsAny reports whether text contains any of the phrases.
// text is expected to be normalised already. See ContainsPhrase.
func ContainsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return true
		}
	}
	return false
}

// CountContained returns how many phrases occur in text.
func CountContained(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			n++
		}
	}
	return n
}

// ContainsPhrase reports whether phrase occurs in text. Phrases made only
// of ASCII letters and digits must sit on ASCII word boundaries, so "sam"
// does not match "same". Other phrases match as plain substrings, which
// lets Korean stems match with trailing particles.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	if !isASCIIWord(phrase) {
		return strings.Contains(text, phrase)
	}
	for from := 0; from <= len(text)-len(phrase); {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if (start == 0 || !isASCIIAlnum(text[start-1])) && (end == len(text) || !isASCIIAlnum(text[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isASCIIAlnum(s[i]) {
			return false
		}
	}
	return true
}

func isASCIIAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// SplitClaims splits text on sentence terminators and newlines and keeps
// trimmed fragments of at least minLen runes, up to limit, in order.
func SplitClaims(text string, minLen, limit int) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	claims := make([]string, 0, limit)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if RuneLen(p) < minLen {
			continue
		}
		claims = append(claims, p)
		if len(claims) == limit {
			break
		}
	}
	return claims
}

// CountLines returns the number of non-blank lines in text.
func CountLines(text string) int {
	n := 0
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// BlankInput stands in for empty text sent to an embedding model.
// Providers reject empty inputs, and a blank slide still needs a vector.
const BlankInput = "(blank)"

// EmbeddingInput prepares text for an embedding request: whitespace is
// collapsed, the result is cut to maxRunes (when positive) and empty text
// becomes BlankInput.
func EmbeddingInput(text string, maxRunes int) string {
	text = CollapseWhitespace(text)
	if maxRunes > 0 {
		text = Truncate(text, maxRunes)
	}
	if text == "" {
		return BlankInput
	}
	return text
}
