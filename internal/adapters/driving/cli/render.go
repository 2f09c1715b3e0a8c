package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// Theme defines the colour palette for styled output.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
		Border:    lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains the styles used to render reports.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Score    lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme gives plain styles
// that render text unchanged.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title: plain, Subtitle: plain, Muted: plain,
			Success: plain, Warning: plain, Error: plain, Score: plain,
		}
	}
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Success:  lipgloss.NewStyle().Foreground(theme.Success),
		Warning:  lipgloss.NewStyle().Foreground(theme.Warning),
		Error:    lipgloss.NewStyle().Foreground(theme.Error),
		Score: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
	}
}

// stylesFor returns themed styles when w is a terminal and plain ones otherwise.
func stylesFor(w io.Writer) *Styles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewStyles(DefaultTheme())
	}
	return NewStyles(nil)
}

func (s *Styles) coverage(c domain.Coverage) string {
	switch c {
	case domain.CoverageCovered:
		return s.Success.Render(string(c))
	case domain.CoveragePartial:
		return s.Warning.Render(string(c))
	default:
		return s.Error.Render(string(c))
	}
}

// renderReport writes a human-readable report.
func renderReport(w io.Writer, r *domain.Report, st *Styles) {
	p := func(format string, args ...any) { fmt.Fprintf(w, format, args...) }

	p("%s\n", st.Title.Render(r.Meta.Filename))
	p("%s\n", st.Muted.Render(fmt.Sprintf("%s | %s | %d slides | report %s",
		r.PitchType.Description(), r.AnalysisMethod, r.Meta.TotalSlides, r.ID)))
	p("\n%s\n", st.Score.Render(fmt.Sprintf("Score %d/100", r.DeckScore.TotalScore)))
	if r.DeckScore.StructureSummary != "" {
		p("\n%s\n", r.DeckScore.StructureSummary)
	}

	p("\n%s\n", st.Subtitle.Render("Criteria"))
	for _, c := range r.CriteriaScores {
		p("  %-28s %3d  %s\n", c.CriteriaName, c.Score, st.coverage(c.CoverageStatus))
		if len(c.RelatedSlides) > 0 {
			p("    %s\n", st.Muted.Render("slides "+joinInts(c.RelatedSlides)))
		}
		if c.Feedback != "" {
			p("    %s\n", c.Feedback)
		}
		for _, m := range c.MissingItems {
			p("    %s %s\n", st.Warning.Render("missing:"), m.ItemName)
		}
	}

	renderList(w, st, "Strengths", r.DeckScore.Strengths)
	renderList(w, st, "Improvements", r.DeckScore.Improvements)
	renderList(w, st, "Top actions", r.DeckScore.TopActions)

	if len(r.PresentationGuide.TimeAllocation) > 0 {
		p("\n%s\n", st.Subtitle.Render("Time allocation"))
		for _, slot := range r.PresentationGuide.TimeAllocation {
			p("  %-28s %3ds\n", slot.Section, slot.Seconds)
		}
	}

	if len(r.Meta.Degraded) > 0 {
		p("\n%s\n", st.Warning.Render("Fallbacks used: "+strings.Join(r.Meta.Degraded, ", ")))
	}
}

func renderList(w io.Writer, st *Styles, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", st.Subtitle.Render(title))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// renderRubric writes the groups and items of a rubric.
func renderRubric(w io.Writer, r *domain.Rubric, st *Styles) {
	fmt.Fprintf(w, "%s\n", st.Title.Render(r.PitchType.Description()))
	if r.Version != "" {
		fmt.Fprintf(w, "%s\n", st.Muted.Render("version "+r.Version))
	}
	for _, g := range r.Groups {
		fmt.Fprintf(w, "\n%s %s\n", st.Subtitle.Render(g.Name),
			st.Muted.Render(fmt.Sprintf("(%s, weight %.2f)", g.ID, g.Weight)))
		for _, it := range g.Items {
			marker := " "
			if it.FailIfMissing {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s: %s\n", marker, it.Name, it.Description)
		}
	}
	fmt.Fprintf(w, "\n%s\n", st.Muted.Render("* required item"))
}

// renderBatch writes one line per deck and the totals.
func renderBatch(w io.Writer, s *domain.BatchSummary, st *Styles) {
	for _, row := range s.Rows {
		if row.Status == domain.BatchStatusOK {
			fmt.Fprintf(w, "%s %-40s %3d  (%d covered, %d partial, %d missing) %.1fs\n",
				st.Success.Render("ok    "), row.File, row.TotalScore,
				row.Covered, row.Partial, row.NotCovered, row.ElapsedSec)
			continue
		}
		fmt.Fprintf(w, "%s %-40s %s\n", st.Error.Render("failed"), row.File, row.Error)
	}
	fmt.Fprintf(w, "\n%s\n", st.Subtitle.Render(fmt.Sprintf(
		"%d decks, %d succeeded, %d failed, average score %.1f",
		s.Total, s.Succeeded, s.Failed, s.AvgScore)))
}

// renderSummary writes label agreement metrics.
func renderSummary(w io.Writer, s domain.EvaluationSummary) {
	fmt.Fprintf(w, "  cases                   %d\n", s.Cases)
	fmt.Fprintf(w, "  coverage macro-F1       %.3f\n", s.CoverageMacroF1)
	fmt.Fprintf(w, "  group coverage accuracy %.3f\n", s.GroupCoverageAccuracy)
	fmt.Fprintf(w, "  related slide hit rate  %.3f\n", s.RelatedSlideHitRate)
	fmt.Fprintf(w, "  slide category accuracy %.3f\n", s.SlideCategoryAccuracy)
	fmt.Fprintf(w, "  pitch type accuracy     %.3f\n", s.PitchTypeAccuracy)
}

// renderCalibration writes the ranked trials and the confusion summary.
func renderCalibration(w io.Writer, r *domain.CalibrationResult, st *Styles) {
	b := r.Best
	fmt.Fprintf(w, "%s\n", st.Title.Render(fmt.Sprintf(
		"Best: sim_high=%.2f sim_mid=%.2f top_k=%d", b.SimHigh, b.SimMid, b.TopK)))
	renderSummary(w, b.Summary)

	fmt.Fprintf(w, "\n%s\n", st.Subtitle.Render("Trials"))
	fmt.Fprintf(w, "  %-9s %-8s %-6s %-9s %-9s\n", "sim_high", "sim_mid", "top_k", "macro_f1", "group_acc")
	for _, t := range r.Trials {
		fmt.Fprintf(w, "  %-9.2f %-8.2f %-6d %-9.3f %-9.3f\n",
			t.SimHigh, t.SimMid, t.TopK, t.Summary.CoverageMacroF1, t.Summary.GroupCoverageAccuracy)
	}

	if len(r.Confusion.TopErrors) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.Subtitle.Render("Most confused slide categories"))
		for _, e := range r.Confusion.TopErrors {
			fmt.Fprintf(w, "  %-16s -> %-16s %d\n", e.Expected, e.Predicted, e.Count)
		}
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
