// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finfraudx/internal/report"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#3DA5C4")
	// HighRiskColor marks high fraud probability and failures.
	HighRiskColor = lipgloss.Color("#FF4757")
	// MediumRiskColor marks medium fraud probability and warnings.
	MediumRiskColor = lipgloss.Color("#FFA502")
	// LowRiskColor marks low fraud probability and successes.
	LowRiskColor = lipgloss.Color("#2ED573")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SubtitleStyle is used for secondary headings.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(LowRiskColor)
	WarningStyle = lipgloss.NewStyle().Foreground(MediumRiskColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(HighRiskColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// FraudRowStyle highlights rows predicted as fraud.
	FraudRowStyle = lipgloss.NewStyle().
			Foreground(HighRiskColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ShieldIcon  = "🎯"
	ChartIcon   = "📊"
	FolderIcon  = "📂"
	AlertIcon   = "🚨"
)

// LevelStyle returns the style for a display severity.
func LevelStyle(level report.Level) lipgloss.Style {
	switch level {
	case report.LevelHigh:
		return ErrorStyle
	case report.LevelMedium:
		return WarningStyle
	default:
		return SuccessStyle
	}
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the dashboard icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ShieldIcon + " " + title)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}
