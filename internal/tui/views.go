package tui

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/tui/components"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

const (
	gaugeWidth    = 30
	topCategories = 8
	topFraudRates = 5
	minPanelWidth = 60
	panelHPadding = 4
)

var steps = []string{"Upload", "Train", "Predict", "Results"}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, m.renderBody(), m.help.View(m.keys()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows the title and where the wizard is.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary).Render("🎯 FinFraudX Fraud Detection")

	current := int(m.state.Stage())
	parts := make([]string, len(steps))
	for i, name := range steps {
		label := name
		switch {
		case i < current:
			parts[i] = m.theme.StatusSuccess.Render("✓ " + label)
		case i == current:
			parts[i] = lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary).Render("● " + label)
		default:
			parts[i] = lipgloss.NewStyle().Foreground(m.theme.Muted).Render("○ " + label)
		}
	}
	stepper := strings.Join(parts, lipgloss.NewStyle().Foreground(m.theme.Muted).Render("  ›  "))

	return lipgloss.JoinVertical(lipgloss.Left, title, stepper, "")
}

// renderStatus shows the in-flight request, the last error or the last
// success message, in that order.
func (m Model) renderStatus() string {
	switch {
	case m.busy:
		return m.spinner.View() + " " + m.theme.StatusPending.Render(m.pending)
	case m.lastError != nil:
		return m.theme.StatusError.Render("✗ "+common.DisplayMessage(m.lastError)) +
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("  (x to dismiss)")
	case m.status != "":
		return m.theme.StatusSuccess.Render("✓ " + m.status)
	default:
		return ""
	}
}

func (m Model) panelWidth() int {
	return max(m.width-panelHPadding, minPanelWidth)
}

// renderBody renders the panels for the current stage.
func (m Model) renderBody() string {
	file, ok := m.state.File()
	if !ok {
		return m.renderUpload()
	}

	sections := []string{m.renderFileInfo(file)}

	stats, trained := m.state.Training()
	if trained {
		sections = append(sections,
			m.theme.Title.Render("Model Training"),
			components.RenderMetrics(m.theme, report.TrainingMetrics(stats)))
	} else {
		sections = append(sections, m.hint("Press t to train the fraud detection models"))
	}

	switch m.state.Stage() {
	case workflow.StageTrained:
		sections = append(sections, m.hint("Press p to run predictions on "+file.Source))
	case workflow.StagePredicted:
		sections = append(sections, m.renderResults())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) hint(text string) string {
	return lipgloss.NewStyle().Foreground(m.theme.Info).Render("→ " + text)
}

// renderUpload is the first step: pick a file or generate one.
func (m Model) renderUpload() string {
	lines := []string{
		m.theme.Title.Render("Upload Transaction Data"),
		m.theme.Subtitle.Render("Upload a CSV of transactions to train the fraud models on."),
		"",
	}
	if m.editing {
		lines = append(lines, m.input.View())
	} else {
		lines = append(lines, m.hint("Press u to choose a CSV file or s to generate sample data"))
	}
	return m.theme.RoundedBox.Width(m.panelWidth()).Render(strings.Join(lines, "\n"))
}

// renderFileInfo describes the accepted file, optionally with its sample
// rows.
func (m Model) renderFileInfo(file workflow.FileInfo) string {
	columns := "N/A"
	if len(file.Upload.Columns) > 0 {
		columns = strings.Join(file.Upload.Columns, ", ")
	}

	label := m.theme.Bold.Render
	lines := []string{
		m.theme.Title.Render("File Information"),
		label("Source: ") + file.Source,
		label("Rows: ") + report.FileSummary(file.Upload),
		label("Columns: ") + columns,
	}

	if m.showSample {
		sample, err := json.MarshalIndent(file.Upload.Sample, "", "  ")
		if err != nil {
			sample = []byte(err.Error())
		}
		lines = append(lines, "", m.theme.Subtitle.Render("Sample rows"), m.theme.Code.Render(string(sample)))
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Muted).Render("v to show sample rows"))
	}

	return m.theme.RoundedBox.Width(m.panelWidth()).Render(strings.Join(lines, "\n"))
}

// renderResults shows either the prediction overview or the transactions
// table.
func (m Model) renderResults() string {
	if m.view == ViewTransactions {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("Detailed Predictions"),
			m.results.View())
	}

	result, _ := m.state.Prediction()
	stats := result.Statistics

	sections := []string{
		m.theme.Title.Render("Prediction Results"),
		components.RenderMetrics(m.theme, report.PredictionMetrics(stats)),
		components.RenderGauges(m.theme, report.Gauges(stats), gaugeWidth),
		"",
		components.RenderDistribution(m.theme, report.RiskDistribution(stats), gaugeWidth),
		"",
		components.RenderCategories(m.theme, report.Categories(stats), topCategories),
	}
	if rates := components.RenderFraudRates(m.theme, report.TopFraudRates(stats, topFraudRates)); rates != "" {
		sections = append(sections, "", rates)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
