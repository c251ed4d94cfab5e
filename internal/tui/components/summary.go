// Package components holds the dashboard's reusable panels.
package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/tui/themes"
)

const defaultBarWidth = 30

// newBar returns a static progress bar in the level's color.
func newBar(theme themes.Theme, level report.Level, width int) progress.Model {
	if width <= 0 {
		width = defaultBarWidth
	}
	return progress.New(
		progress.WithSolidFill(string(theme.LevelColor(level))),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

// RenderMetrics lays metric cards out side by side.
func RenderMetrics(theme themes.Theme, metrics []report.Metric) string {
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		body := []string{
			theme.Subtitle.Render(m.Label),
			theme.Level(m.Level).Render(m.Value),
		}
		if m.Subtext != "" {
			body = append(body, lipgloss.NewStyle().Foreground(theme.Muted).Render(m.Subtext))
		}
		cards[i] = theme.Card.Render(strings.Join(body, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// RenderGauges draws each gauge as a filled bar followed by its text.
func RenderGauges(theme themes.Theme, gauges []report.Gauge, width int) string {
	lines := make([]string, len(gauges))
	for i, g := range gauges {
		bar := newBar(theme, g.Level, width)
		lines[i] = fmt.Sprintf("%-16s %s %s",
			g.Label,
			bar.ViewAs(g.Fill/100),
			theme.Level(g.Level).Render(g.Text))
	}
	return strings.Join(lines, "\n")
}

// RenderDistribution draws the risk distribution chart.
func RenderDistribution(theme themes.Theme, bars []report.Bar, width int) string {
	lines := []string{theme.Title.Render("Risk Distribution")}
	if len(bars) == 0 {
		lines = append(lines, theme.StatusPending.Render("No risk breakdown"))
	}
	for _, b := range bars {
		bar := newBar(theme, b.Level, width)
		lines = append(lines, fmt.Sprintf("%-10s %s %d", b.Label, bar.ViewAs(b.Share), b.Count))
	}
	return strings.Join(lines, "\n")
}

// RenderCategories lists transaction counts per merchant category.
func RenderCategories(theme themes.Theme, categories []report.CategoryCount, limit int) string {
	lines := []string{theme.Title.Render("Top Merchant Categories")}
	if len(categories) == 0 {
		lines = append(lines, theme.StatusPending.Render("No categories"))
	}
	if limit > 0 && len(categories) > limit {
		categories = categories[:limit]
	}
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("%-24s %s", c.Category, theme.Bold.Render(strconv.Itoa(c.Count)+" transactions")))
	}
	return strings.Join(lines, "\n")
}

// RenderFraudRates lists category fraud rates. It renders nothing when
// there are none.
func RenderFraudRates(theme themes.Theme, rates []report.CategoryRate) string {
	if len(rates) == 0 {
		return ""
	}
	lines := []string{theme.Title.Render("Fraud Rates by Category")}
	for _, r := range rates {
		lines = append(lines, fmt.Sprintf("%-24s %s",
			r.Category,
			theme.StatusWarning.Render(strconv.FormatFloat(r.Rate, 'f', 2, 64)+"%")))
	}
	return strings.Join(lines, "\n")
}
