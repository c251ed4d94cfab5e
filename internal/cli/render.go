package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finfraudx/internal/model"
	"github.com/Veraticus/finfraudx/internal/report"
)

const barWidth = 30

// Bar draws a horizontal bar filled to fill (0..1).
func Bar(fill float64, width int) string {
	if fill < 0 {
		fill = 0
	}
	if fill > 1 {
		fill = 1
	}
	filled := int(fill*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RenderUpload describes an accepted file. With showSample the sample rows
// are included as JSON.
func RenderUpload(source string, upload model.UploadResult, showSample bool) string {
	lines := []string{
		BoldStyle.Render("File: ") + source,
		BoldStyle.Render("Size: ") + report.FileSummary(upload),
		BoldStyle.Render("Columns: ") + strings.Join(upload.Columns, ", "),
	}

	if showSample {
		sample, err := json.MarshalIndent(upload.Sample, "", "  ")
		if err != nil {
			sample = []byte(err.Error())
		}
		lines = append(lines, "", SubtitleStyle.Render("Sample rows"), string(sample))
	}

	return RenderBox(FolderIcon+" File Information", strings.Join(lines, "\n"))
}

func renderMetrics(metrics []report.Metric) string {
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		body := []string{SubtitleStyle.Render(m.Label), LevelStyle(m.Level).Bold(true).Render(m.Value)}
		if m.Subtext != "" {
			body = append(body, SubtleStyle.Render(m.Subtext))
		}
		cards[i] = BoxStyle.Render(strings.Join(body, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// RenderTraining renders the metric grid shown after training.
func RenderTraining(stats model.TrainingStats) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		FormatTitle("Model Training"),
		renderMetrics(report.TrainingMetrics(stats)),
	)
}

// RenderPrediction renders the prediction summary: headline metrics,
// gauges, risk distribution and category breakdowns.
func RenderPrediction(result model.PredictionResult) string {
	stats := result.Statistics
	sections := []string{
		FormatTitle("Prediction Results"),
		renderMetrics(report.PredictionMetrics(stats)),
		renderGauges(report.Gauges(stats)),
		renderDistribution(report.RiskDistribution(stats)),
		renderCategories(report.Categories(stats)),
	}
	if rates := report.TopFraudRates(stats, 5); len(rates) > 0 {
		sections = append(sections, renderFraudRates(rates))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderGauges(gauges []report.Gauge) string {
	lines := make([]string, len(gauges))
	for i, g := range gauges {
		lines[i] = fmt.Sprintf("%-16s %s %s",
			g.Label,
			LevelStyle(g.Level).Render(Bar(g.Fill/100, barWidth)),
			g.Text)
	}
	return strings.Join(lines, "\n")
}

func renderDistribution(bars []report.Bar) string {
	lines := []string{"", TitleStyle.Render(ChartIcon + " Risk Distribution")}
	if len(bars) == 0 {
		lines = append(lines, SubtleStyle.Render("No risk breakdown"))
	}
	for _, b := range bars {
		lines = append(lines, fmt.Sprintf("%-10s %s %d",
			b.Label,
			LevelStyle(b.Level).Render(Bar(b.Share, barWidth)),
			b.Count))
	}
	return strings.Join(lines, "\n")
}

func renderCategories(categories []report.CategoryCount) string {
	lines := []string{"", TitleStyle.Render(FolderIcon + " Top Merchant Categories")}
	if len(categories) == 0 {
		lines = append(lines, SubtleStyle.Render("No categories"))
	}
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("%-24s %s", c.Category, BoldStyle.Render(strconv.Itoa(c.Count)+" transactions")))
	}
	return strings.Join(lines, "\n")
}

func renderFraudRates(rates []report.CategoryRate) string {
	lines := []string{"", TitleStyle.Render(WarningIcon + " Fraud Rates by Category")}
	for _, r := range rates {
		lines = append(lines, fmt.Sprintf("%-24s %s", r.Category, BoldStyle.Render(strconv.FormatFloat(r.Rate, 'f', 2, 64)+"%")))
	}
	return strings.Join(lines, "\n")
}

// RenderTable renders one page of the detailed predictions table.
func RenderTable(pager report.Pager, results []model.TransactionPrediction) string {
	rows := report.PageRows(pager, results)

	widths := make([]int, len(report.Columns))
	for i, c := range report.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i, cell := range r.Cells() {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	pad := func(cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		return strings.Join(out, "  ")
	}

	lines := []string{TableHeaderStyle.Render(pad(report.Columns))}
	for _, r := range rows {
		line := pad(r.Cells())
		if r.Flagged {
			line = FraudRowStyle.Render(line)
		}
		lines = append(lines, line)
	}

	nav := []string{}
	if pager.HasPrev() {
		nav = append(nav, "← Previous")
	} else {
		nav = append(nav, SubtleStyle.Render("← Previous"))
	}
	nav = append(nav, report.PageLabel(pager))
	if pager.HasNext() {
		nav = append(nav, "Next →")
	} else {
		nav = append(nav, SubtleStyle.Render("Next →"))
	}
	lines = append(lines, "", strings.Join(nav, "   "))

	return strings.Join(lines, "\n")
}

// RenderHistory lists stored runs.
func RenderHistory(runs []model.RunSummary) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No runs recorded yet")
	}

	header := fmt.Sprintf("%-36s  %-16s  %-24s  %6s  %6s  %9s", "ID", "When", "File", "Total", "Fraud", "Anomalies")
	lines := []string{TableHeaderStyle.Render(header)}
	for _, r := range runs {
		lines = append(lines, fmt.Sprintf("%-36s  %-16s  %-24s  %6d  %6d  %9d",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			truncate(r.SourceFile, 24),
			r.TotalTransactions,
			r.FraudulentDetected,
			r.AnomaliesDetected))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
