package tui

import (
	"github.com/Veraticus/finfraudx/internal/workflow"
)

// action names a workflow request.
type action int

const (
	actionUpload action = iota
	actionSample
	actionTrain
	actionPredict
)

// pending describes what the spinner shows while the action runs.
func (a action) pending() string {
	switch a {
	case actionUpload:
		return "Validating..."
	case actionSample:
		return "Generating sample data..."
	case actionTrain:
		return "Training models..."
	case actionPredict:
		return "Running predictions..."
	default:
		return "Working..."
	}
}

// actionDoneMsg carries the outcome of a workflow request.
type actionDoneMsg struct {
	err     error
	session *workflow.Session
	state   workflow.State
	action  action
}

// exportDoneMsg reports a finished CSV export.
type exportDoneMsg struct {
	err  error
	path string
}

// sheetsDoneMsg reports a finished Google Sheets export.
type sheetsDoneMsg struct {
	err           error
	spreadsheetID string
}
