package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

const (
	excerptRunes = 1000

	numericDigitsHigh = 6
	numericDigitsLow  = 3
)

// Corpus is the retrieval view of a deck's slides. It precomputes the
// lexical profile of every slide once per run.
type Corpus struct {
	slides   []domain.Slide
	profiles []textutil.Profile
}

// NewCorpus indexes slides. The slides must already be classified and
// embedded, and must not change afterwards.
func NewCorpus(slides []domain.Slide) *Corpus {
	c := &Corpus{slides: slides, profiles: make([]textutil.Profile, len(slides))}
	for i := range slides {
		c.profiles[i] = textutil.NewProfile(slides[i].RetrievalText())
	}
	return c
}

// Query is one rubric item prepared for retrieval.
type Query struct {
	Item   domain.RubricItem
	Vector []float32
	Priors []domain.Category
}

// Retriever ranks slides against rubric items with a blend of embedding
// and lexical similarity.
type Retriever struct {
	blend  domain.BlendWeights
	boosts domain.RetrievalBoosts
	floor  float64
}

// NewRetriever creates a retriever from scoring settings.
func NewRetriever(settings domain.ScoringSettings) *Retriever {
	return &Retriever{
		blend:  settings.Blend,
		boosts: settings.Boosts,
		floor:  settings.MinSimilarity,
	}
}

// Retrieve returns up to topK evidences for q, best first. topK is
// clamped to [1,10]. Deficient slides and candidates under the
// similarity floor are skipped; ties keep slide order.
func (r *Retriever) Retrieve(q Query, corpus *Corpus, topK int) []domain.Evidence {
	topK = domain.ClampTopK(topK)
	itemText := q.Item.RetrievalText()
	item := textutil.NewProfile(itemText)
	wantsFigures := textutil.ContainsAny(textutil.Normalize(itemText), numericHints)

	evidences := make([]domain.Evidence, 0, len(corpus.slides))
	for i := range corpus.slides {
		slide := &corpus.slides[i]
		if slide.TextDeficient {
			continue
		}
		sim := r.similarity(item, q.Vector, corpus.profiles[i], slide.Embedding)
		sim = r.boost(sim, slide, corpus.profiles[i], q.Priors, wantsFigures)
		if sim < r.floor {
			continue
		}
		evidences = append(evidences, domain.Evidence{
			SlideNumber: slide.Number,
			Similarity:  sim,
			Summary:     slide.ShortSummary,
			Excerpt:     textutil.Truncate(slide.CleanText, excerptRunes),
		})
	}

	sort.SliceStable(evidences, func(a, b int) bool {
		return evidences[a].Similarity > evidences[b].Similarity
	})
	if len(evidences) > topK {
		evidences = evidences[:topK]
	}
	return evidences
}

// Similarity returns the unboosted similarity between an item and a slide.
func (r *Retriever) Similarity(item domain.RubricItem, itemVector []float32, slide *domain.Slide) float64 {
	return r.similarity(
		textutil.NewProfile(item.RetrievalText()), itemVector,
		textutil.NewProfile(slide.RetrievalText()), slide.Embedding,
	)
}

func (r *Retriever) similarity(item textutil.Profile, itemVec []float32, slide textutil.Profile, slideVec []float32) float64 {
	cos := textutil.Cosine(itemVec, slideVec)
	lex := textutil.Jaccard(item.Tokens, slide.Tokens)
	ngram := textutil.Jaccard(item.Grams, slide.Grams)
	kw := textutil.KeywordOverlap(item.Tokens, slide.Tokens)

	w := r.blend
	blended := w.Cosine*cos + w.Lexical*lex + w.Ngram*ngram + w.Keyword*kw
	robust := math.Max(lex, math.Max(ngram, w.RobustCosine*cos+w.RobustKeyword*kw))
	return textutil.Clamp01(math.Max(blended, robust))
}

func (r *Retriever) boost(
	sim float64, slide *domain.Slide, profile textutil.Profile, priors []domain.Category, wantsFigures bool,
) float64 {
	b := r.boosts
	for _, c := range priors {
		if slide.Category != c {
			continue
		}
		sim = math.Min(1, sim+b.Prior)
		if slide.CategoryConfidence >= b.PriorConfidenceMin {
			sim = math.Min(1, sim+b.PriorConfident)
		}
		break
	}
	if wantsFigures {
		switch {
		case profile.Digits >= numericDigitsHigh:
			sim = math.Min(1, sim+b.NumericHigh)
		case profile.Digits >= numericDigitsLow:
			sim = math.Min(1, sim+b.NumericLow)
		}
	}
	return sim
}
