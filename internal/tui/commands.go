package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/finfraudx/internal/model"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

// runAction performs a workflow request off the event loop.
func runAction(ctx context.Context, session *workflow.Session, a action, path string) tea.Cmd {
	return func() tea.Msg {
		var (
			state workflow.State
			err   error
		)

		switch a {
		case actionUpload:
			state, err = session.UploadPath(ctx, path)
		case actionSample:
			state, err = session.GenerateSample(ctx)
		case actionTrain:
			state, err = session.Train(ctx)
		case actionPredict:
			state, err = session.Predict(ctx)
		}

		return actionDoneMsg{
			action:  a,
			session: session,
			state:   state,
			err:     err,
		}
	}
}

// exportCSV writes the prediction results into dir.
func exportCSV(dir string, results []model.TransactionPrediction) tea.Cmd {
	return func() tea.Msg {
		path, err := report.WriteCSVFile(dir, results)
		return exportDoneMsg{path: path, err: err}
	}
}

// exportSheets writes the prediction results to Google Sheets.
func exportSheets(ctx context.Context, exporter SheetsExporter, source string, result model.PredictionResult) tea.Cmd {
	return func() tea.Msg {
		id, err := exporter.Write(ctx, source, result)
		return sheetsDoneMsg{spreadsheetID: id, err: err}
	}
}
