package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finfraudx/internal/model"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/tui/themes"
)

const (
	probabilityBarWidth = 10
	flaggedMarker       = "▲ "
)

var columnWidths = []int{14, 12, 16, 18, 10, 7, 9}

// ResultsModel is the paginated predictions table.
type ResultsModel struct {
	theme   themes.Theme
	results []model.TransactionPrediction
	table   table.Model
	pager   report.Pager
}

// NewResultsModel shows the first page of results.
func NewResultsModel(theme themes.Theme, results []model.TransactionPrediction) ResultsModel {
	cols := make([]table.Column, len(report.Columns))
	for i, title := range report.Columns {
		cols[i] = table.Column{Title: title, Width: columnWidths[i]}
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(theme.Secondary)
	styles.Selected = theme.Selected

	m := ResultsModel{
		theme:   theme,
		results: results,
		pager:   report.NewPager(len(results)),
		table: table.New(
			table.WithColumns(cols),
			table.WithHeight(report.PageSize+1),
			table.WithFocused(true),
			table.WithStyles(styles),
		),
	}
	m.refresh()
	return m
}

// Pager returns the current pagination state.
func (m ResultsModel) Pager() report.Pager {
	return m.pager
}

// Rows returns the rows of the current page.
func (m ResultsModel) Rows() []table.Row {
	return m.table.Rows()
}

// NextPage moves forward one page, staying on the last page.
func (m ResultsModel) NextPage() ResultsModel {
	m.pager = m.pager.Next()
	m.refresh()
	return m
}

// PrevPage moves back one page, staying on the first page.
func (m ResultsModel) PrevPage() ResultsModel {
	m.pager = m.pager.Prev()
	m.refresh()
	return m
}

// Update forwards row navigation to the table.
func (m ResultsModel) Update(msg tea.Msg) (ResultsModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table and its pagination controls.
func (m ResultsModel) View() string {
	if m.pager.Total() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.StatusPending.Render("No transactions were scored"),
			"",
			m.navigation(),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), "", m.navigation())
}

func (m ResultsModel) navigation() string {
	enabled := m.theme.Bold
	disabled := lipgloss.NewStyle().Foreground(m.theme.Muted)

	prev, next := disabled, disabled
	if m.pager.HasPrev() {
		prev = enabled
	}
	if m.pager.HasNext() {
		next = enabled
	}

	return strings.Join([]string{
		prev.Render("← Previous"),
		"Page " + report.PageLabel(m.pager),
		next.Render("Next →"),
	}, "   ")
}

func (m *ResultsModel) refresh() {
	page := report.PageRows(m.pager, m.results)
	rows := make([]table.Row, len(page))
	for i, r := range page {
		rows[i] = tableRow(r)
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func tableRow(r report.Row) table.Row {
	customer := r.Customer
	if r.Flagged {
		customer = flaggedMarker + customer
	}
	return table.Row{
		customer,
		r.Amount,
		r.Category,
		probabilityCell(r),
		r.RiskLevel,
		r.Fraud,
		r.Anomaly,
	}
}

func probabilityCell(r report.Row) string {
	filled := int(r.Fill*probabilityBarWidth + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", probabilityBarWidth-filled) + " " + r.Probability
}
