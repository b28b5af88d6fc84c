package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/services"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)

	categoryColors = map[assessment.Category]lipgloss.Color{
		assessment.CategoryHealthy:  lipgloss.Color("42"),
		assessment.CategoryUnstable: lipgloss.Color("214"),
		assessment.CategoryCritical: lipgloss.Color("196"),
	}
)

func categoryStyle(c assessment.Category) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(categoryColors[c])
}

// RenderResult draws the score card of a completed session.
func RenderResult(v *services.SessionView) string {
	if v == nil || v.Result == nil {
		return mutedStyle.Render("No result.")
	}
	res := v.Result
	label := v.CategoryLabel
	if label == "" {
		label = string(res.Category)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Solace score"), categoryStyle(res.Category).Render(fmt.Sprintf("%d  %s", res.Value, label)))
	b.WriteString("\n")
	for _, item := range res.Breakdown {
		fmt.Fprintf(&b, "%-10s %3d %s\n", item.Label, item.Score, bar(item.Score))
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "• %s\n", r)
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func bar(score int) string {
	n := score / 10
	return mutedStyle.Render(strings.Repeat("█", n) + strings.Repeat("░", 10-n))
}

// RenderHistory lists entries newest first with relative dates.
func RenderHistory(entries []assessment.HistoryEntry, now time.Time) string {
	if len(entries) == 0 {
		return mutedStyle.Render("No assessments yet.")
	}
	var b strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		when := humanize.RelTime(e.Date, now, "ago", "from now")
		fmt.Fprintf(&b, "%-14s %s  %s", when, categoryStyle(e.Score.Category).Render(fmt.Sprintf("%3d %-8s", e.Score.Value, e.Score.Category)), mutedStyle.Render(e.ID))
		if e.MoodLabel != "" {
			fmt.Fprintf(&b, "  %s", e.MoodLabel)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSummary prints the aggregate view of a subject's history.
func RenderSummary(s *services.HistorySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %d assessments, mean %.1f, streak %s, %.0f%% of the last 30 days\n",
		titleStyle.Render("Summary"), s.Total, s.MeanScore,
		english.Plural(s.Streak, "day", "days"), s.Coverage*100)
	for _, bk := range s.Buckets {
		fmt.Fprintf(&b, "  %s  +%-6.0f -%-6.0f %s\n", bk.PeriodStart.Format("2006-01-02"), bk.PositiveSum, bk.NegativeSum,
			english.Plural(bk.Entries, "entry", "entries"))
	}
	if s.N > 1 {
		fmt.Fprintf(&b, "  Cronbach's alpha %.2f over %s\n", s.Alpha, humanize.Comma(int64(s.N))+" complete results")
	}
	return strings.TrimRight(b.String(), "\n")
}
