package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func TestNewStyles_Plain(t *testing.T) {
	st := NewStyles(nil)

	assert.Equal(t, "Score", st.Title.Render("Score"))
	assert.Equal(t, "COVERED", st.coverage(domain.CoverageCovered))
}

func TestNewStyles_Themed(t *testing.T) {
	st := NewStyles(DefaultTheme())

	assert.Contains(t, st.Score.Render("Score 72/100"), "Score 72/100")
}

func TestStylesFor_NonTerminal(t *testing.T) {
	buf := new(bytes.Buffer)

	st := stylesFor(buf)

	assert.Equal(t, "plain", st.Subtitle.Render("plain"))
}

func TestRenderReport_OmitsEmptySections(t *testing.T) {
	r := sampleReport()
	r.DeckScore.Strengths = nil
	r.Meta.Degraded = nil
	r.PresentationGuide = domain.PresentationGuide{}
	buf := new(bytes.Buffer)

	renderReport(buf, r, NewStyles(nil))

	out := buf.String()
	assert.NotContains(t, out, "Strengths")
	assert.NotContains(t, out, "Fallbacks used")
	assert.NotContains(t, out, "Time allocation")
	assert.Contains(t, out, "Improvements")
}

func TestRenderBatch(t *testing.T) {
	summary := &domain.BatchSummary{
		Total: 2, Succeeded: 1, Failed: 1, AvgScore: 64,
		Rows: []domain.BatchRow{
			{Index: 1, File: "a.md", Status: domain.BatchStatusOK, TotalScore: 64, Covered: 3},
			{Index: 2, File: "b.pdf", Status: domain.BatchStatusFailed, Error: "unsupported type"},
		},
	}
	buf := new(bytes.Buffer)

	renderBatch(buf, summary, NewStyles(nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ok"))
	assert.Contains(t, lines[0], "(3 covered, 0 partial, 0 missing)")
	assert.True(t, strings.HasPrefix(lines[1], "failed"))
	assert.Contains(t, lines[1], "unsupported type")
	assert.Contains(t, buf.String(), "2 decks, 1 succeeded, 1 failed, average score 64.0")
}

func TestJoinInts(t *testing.T) {
	assert.Equal(t, "", joinInts(nil))
	assert.Equal(t, "1, 4, 9", joinInts([]int{1, 4, 9}))
}
