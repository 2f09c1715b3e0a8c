// Package textutil provides the text primitives behind slide classification
// and evidence retrieval.
//
// The primary use cases are:
//   - Normalising and tokenising slide and rubric text (Unicode aware)
//   - Set similarities: token Jaccard, character n-gram Jaccard, keyword overlap
//   - Cosine similarity between embedding vectors
//   - Small helpers for digit counting, rune-safe truncation and claim splitting
//
// Tokens are runs of letters, digits and underscores after NFKC
// normalisation and case folding, so Hangul and Latin text tokenise alike.
package textutil
