package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

var errProviderDown = errors.New("provider down")

// stubClassifier returns a fixed classification.
type stubClassifier struct {
	result domain.Classification
	err    error
	calls  atomic.Int32
}

func (m *stubClassifier) Classify(_ context.Context, _ *domain.Slide) (domain.Classification, error) {
	m.calls.Add(1)
	if m.err != nil {
		return domain.Classification{}, m.err
	}
	return m.result, nil
}

// stubReviewer returns a fixed verdict.
type stubReviewer struct {
	verdict domain.ReviewVerdict
	err     error
	calls   atomic.Int32
	shown   atomic.Int32
}

func (m *stubReviewer) Review(_ context.Context, _ domain.RubricItem, evidences []domain.Evidence) (domain.ReviewVerdict, error) {
	m.calls.Add(1)
	m.shown.Store(int32(len(evidences)))
	if m.err != nil {
		return domain.ReviewVerdict{}, m.err
	}
	return m.verdict, nil
}

// stubNarrator returns fixed feedback and summary text.
type stubNarrator struct {
	feedback driven.GroupFeedback
	summary  string
	err      error
}

func (m *stubNarrator) GroupFeedback(_ context.Context, _ driven.GroupFeedbackRequest) (driven.GroupFeedback, error) {
	if m.err != nil {
		return driven.GroupFeedback{}, m.err
	}
	return m.feedback, nil
}

func (m *stubNarrator) StructureSummary(_ context.Context, _ driven.StructureSummaryRequest) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

// stubEmbedder embeds with a custom function, or fails.
type stubEmbedder struct {
	model string
	embed func(texts []string) [][]float32
	err   error
}

func (m *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.embed != nil {
		return m.embed(texts), nil
	}
	return HashEmbedder{}.EmbedBatch(context.Background(), texts)
}

func (m *stubEmbedder) Dimensions() int { return HashEmbeddingDimensions }

func (m *stubEmbedder) ModelName() string { return m.model }

func (m *stubEmbedder) Ping(_ context.Context) error { return m.err }

func (m *stubEmbedder) Close() error { return nil }

// stubRubricStore serves rubrics from memory.
type stubRubricStore struct {
	rubrics map[domain.PitchType]*domain.Rubric
}

func newStubRubricStore() *stubRubricStore {
	s := &stubRubricStore{rubrics: make(map[domain.PitchType]*domain.Rubric)}
	for _, p := range domain.AllPitchTypes() {
		s.rubrics[p] = testRubric(p)
	}
	return s
}

func (m *stubRubricStore) Load(p domain.PitchType) (*domain.Rubric, error) {
	r, ok := m.rubrics[p]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *stubRubricStore) PitchTypes() []domain.PitchType {
	return domain.AllPitchTypes()
}

// stubLoaders serves decks by path.
type stubLoaders struct {
	decks map[string]*domain.Deck
}

func (m *stubLoaders) Load(_ context.Context, path string) (*domain.Deck, error) {
	d, ok := m.decks[path]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	pages := append([]domain.Page(nil), d.Pages...)
	return &domain.Deck{Pages: pages, Metadata: d.Metadata}, nil
}

func (m *stubLoaders) Register(_ driven.DeckLoader) {}

func (m *stubLoaders) SupportedExtensions() []string { return []string{".json"} }

// stubReportStore keeps reports in a map.
type stubReportStore struct {
	mu      sync.Mutex
	reports map[string]*domain.Report
	err     error
}

func newStubReportStore() *stubReportStore {
	return &stubReportStore{reports: make(map[string]*domain.Report)}
}

func (m *stubReportStore) Save(_ context.Context, r *domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
	return nil
}

func (m *stubReportStore) Get(_ context.Context, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *stubReportStore) List(_ context.Context, _ int) ([]domain.ReportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReportSummary, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Summary())
	}
	return out, nil
}

func (m *stubReportStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

// recordingMetrics counts every signal.
type recordingMetrics struct {
	mu          sync.Mutex
	evaluations int
	methods     []string
	fallbacks   map[domain.Capability]int
	repairs     []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{fallbacks: make(map[domain.Capability]int)}
}

func (m *recordingMetrics) ObserveEvaluation(method string, _ domain.PitchType, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations++
	m.methods = append(m.methods, method)
}

func (m *recordingMetrics) CapabilityFallback(c domain.Capability) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[c]++
}

func (m *recordingMetrics) InvariantRepair(criteriaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repairs = append(m.repairs, criteriaID)
}

// testRubric mirrors the shape of the shipped rubrics.
func testRubric(p domain.PitchType) *domain.Rubric {
	return &domain.Rubric{
		PitchType: p,
		Version:   "test",
		Groups: []domain.RubricGroup{
			{ID: "PROBLEM", Name: "Problem", Weight: 0.15, MaxScore: 15, Items: []domain.RubricItem{
				{ID: "P1", Name: "Problem definition", Description: "the customer problem and pain point", MaxScore: 8, FailIfMissing: true},
				{ID: "P2", Name: "Problem evidence", Description: "data showing the problem is real", MaxScore: 7},
			}},
			{ID: "SOLUTION", Name: "Solution", Weight: 0.20, MaxScore: 20, Items: []domain.RubricItem{
				{ID: "S1", Name: "Solution", Description: "how the product solves the problem", MaxScore: 10, FailIfMissing: true},
				{ID: "S2", Name: "Product demo", Description: "product screenshot, demo or architecture", MaxScore: 10},
			}},
			{ID: "MARKET_BM", Name: "Market and business model", Weight: 0.20, MaxScore: 20, Items: []domain.RubricItem{
				{ID: "M1", Name: "Market size", Description: "TAM SAM SOM market size and growth rate", MaxScore: 10},
				{ID: "M2", Name: "Business model", Description: "revenue model, pricing and subscription", MaxScore: 10},
			}},
			{ID: "TRACTION", Name: "Traction", Weight: 0.20, MaxScore: 20, Items: []domain.RubricItem{
				{ID: "T1", Name: "Traction", Description: "revenue, active users, pilot and contract results", MaxScore: 20},
			}},
			{ID: "TEAM", Name: "Team", Weight: 0.15, MaxScore: 15, Items: []domain.RubricItem{
				{ID: "TM1", Name: "Team", Description: "founder, CEO and CTO experience", MaxScore: 15},
			}},
			{ID: "FINANCE", Name: "Finance and ask", Weight: 0.10, MaxScore: 10, Items: []domain.RubricItem{
				{ID: "F1", Name: "Funding plan", Description: "investment ask, use of funds and runway", MaxScore: 10},
			}},
		},
	}
}

// fullDeck covers every rubric group with figures.
func fullDeck() *domain.Deck {
	return &domain.Deck{
		Metadata: domain.DeckMetadata{Filename: "full.json"},
		Pages: []domain.Page{
			{Text: "Acme Pitch Deck"},
			{Text: "Problem: small clinics struggle with the customer pain point of manual booking. 62% of clinics lose 14 hours a week, data shows the problem is real."},
			{Text: "Solution: our product solves the problem with automatic booking. How it works: the clinic connects its calendar and we help patients book in 30 seconds."},
			{Text: "Product demo: screenshot of the booking workflow and the architecture of the scheduling engine."},
			{Text: "Market size: TAM 12000000 clinics, SAM 3400000, SOM 120000, market growth rate CAGR 14% through 2030."},
			{Text: "Business model: subscription revenue model with pricing at 49 USD per month, ARPU 588, LTV 2100."},
			{Text: "Traction: revenue 320000 USD ARR, 4500 active users, 3 pilot contracts signed with hospital groups."},
			{Text: "Team: founder and CEO Kim with 12 years experience, CTO Lee ex-Google with 9 years experience."},
			{Text: "Funding: investment ask of 2000000 USD, use of funds 60% engineering, runway 24 months."},
			{Text: "Thank you. Contact us."},
		},
	}
}
