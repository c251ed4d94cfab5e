// Package tui is the interactive fraud dashboard: a wizard that walks a
// file through upload, training and prediction and then shows the results.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/tui/components"
	"github.com/Veraticus/finfraudx/internal/tui/themes"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

// View is the results screen being shown.
type View int

const (
	ViewOverview View = iota
	ViewTransactions
)

// Model holds the main TUI state.
type Model struct {
	ctx        context.Context
	lastError  error
	session    *workflow.Session
	logger     *slog.Logger
	theme      themes.Theme
	results    components.ResultsModel
	input      textinput.Model
	help       help.Model
	spinner    spinner.Model
	config     Config
	keymap     KeyMap
	state      workflow.State
	status     string
	pending    string
	width      int
	height     int
	view       View
	busy       bool
	editing    bool
	showSample bool
	quitting   bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "path/to/transactions.csv"
	input.Prompt = "File: "
	input.CharLimit = 4096

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		ctx:     ctx,
		config:  cfg,
		logger:  logger,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		session: cfg.NewSession(ctx),
		input:   input,
		spinner: spin,
		help:    help.New(),
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		return m.handleActionDone(msg), nil

	case exportDoneMsg:
		if msg.err != nil {
			m.lastError = common.NewUserError("CSV export failed", msg.err)
			return m, nil
		}
		m.status = "Exported predictions to " + msg.path
		return m, nil

	case sheetsDoneMsg:
		if msg.err != nil {
			m.lastError = common.NewUserError("Google Sheets export failed", msg.err)
			return m, nil
		}
		m.status = "Exported predictions to spreadsheet " + msg.spreadsheetID
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// keys returns the key map with only the currently valid actions enabled.
func (m Model) keys() KeyMap {
	return m.keymap.forState(m.state, m.busy, m.lastError != nil, m.editing)
}

// handleKey routes a key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys()

	if key.Matches(msg, keys.ForceQuit) {
		return m.quit()
	}

	if m.editing {
		switch {
		case key.Matches(msg, keys.Cancel):
			m.editing = false
			m.input.Blur()
			return m, nil
		case key.Matches(msg, keys.Submit):
			path := strings.TrimSpace(m.input.Value())
			m.editing = false
			m.input.Blur()
			return m.start(actionUpload, path)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Dismiss):
		m.lastError = nil
		m.session.DismissError()

	case key.Matches(msg, keys.Upload):
		m.editing = true
		m.status = ""
		return m, m.input.Focus()

	case key.Matches(msg, keys.Sample):
		return m.start(actionSample, "")

	case key.Matches(msg, keys.Train):
		return m.start(actionTrain, "")

	case key.Matches(msg, keys.Predict):
		return m.start(actionPredict, "")

	case key.Matches(msg, keys.ToggleSample):
		m.showSample = !m.showSample

	case key.Matches(msg, keys.NewSession):
		m.resetSession()

	case key.Matches(msg, keys.ToggleView):
		if m.view == ViewOverview {
			m.view = ViewTransactions
		} else {
			m.view = ViewOverview
		}

	case key.Matches(msg, keys.PrevPage):
		m.results = m.results.PrevPage()

	case key.Matches(msg, keys.NextPage):
		m.results = m.results.NextPage()

	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		if m.view == ViewTransactions {
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}

	case key.Matches(msg, keys.Export):
		result, _ := m.state.Prediction()
		m.status = "Exporting CSV..."
		return m, exportCSV(m.config.ExportDir, result.Results)

	case key.Matches(msg, keys.Sheets):
		if m.config.Sheets == nil {
			m.lastError = common.NewUserError("Google Sheets export is not configured", common.ErrMissingConfig)
			return m, nil
		}
		file, _ := m.state.File()
		result, _ := m.state.Prediction()
		m.status = "Exporting to Google Sheets..."
		return m, exportSheets(m.ctx, m.config.Sheets, file.Source, result)
	}

	return m, nil
}

// start marks the dashboard busy and dispatches a workflow request.
func (m Model) start(a action, path string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.pending = a.pending()
	m.lastError = nil
	m.status = ""
	m.logger.Debug("Dispatching workflow action", "action", a.pending(), "session", m.session.ID())
	return m, tea.Batch(m.spinner.Tick, runAction(m.ctx, m.session, a, path))
}

// handleActionDone applies a finished request. Results from a session that
// has since been replaced are dropped.
func (m Model) handleActionDone(msg actionDoneMsg) Model {
	if msg.session != m.session || errors.Is(msg.err, common.ErrTornDown) {
		m.logger.Debug("Dropping stale workflow result", "action", msg.action.pending())
		return m
	}

	m.busy = false
	m.pending = ""

	if msg.err != nil {
		m.lastError = msg.err
		return m
	}

	m.state = msg.state
	switch msg.action {
	case actionUpload:
		file, _ := m.state.File()
		m.status = report.ValidatedMessage(file.Upload)
	case actionSample:
		m.status = report.SampleGeneratedMessage
	case actionTrain:
		m.status = "Model trained successfully!"
	case actionPredict:
		result, _ := m.state.Prediction()
		m.results = components.NewResultsModel(m.theme, result.Results)
		m.view = ViewOverview
		m.status = fmt.Sprintf("Predictions complete: %d transactions scored", result.Statistics.TotalTransactions)
	}
	return m
}

// resetSession closes the current session and starts over with no file.
func (m *Model) resetSession() {
	m.session.Close()
	m.session = m.config.NewSession(m.ctx)
	m.state = workflow.State{}
	m.results = components.ResultsModel{}
	m.view = ViewOverview
	m.showSample = false
	m.lastError = nil
	m.input.Reset()
	m.status = "Started a new session"
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.session.Close()
	return m, tea.Quit
}
