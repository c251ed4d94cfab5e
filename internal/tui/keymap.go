package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/Veraticus/finfraudx/internal/workflow"
)

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Workflow
	Upload  key.Binding
	Submit  key.Binding
	Cancel  key.Binding
	Sample  key.Binding
	Train   key.Binding
	Predict key.Binding

	// Results
	PrevPage   key.Binding
	NextPage   key.Binding
	Up         key.Binding
	Down       key.Binding
	ToggleView key.Binding
	Export     key.Binding
	Sheets     key.Binding

	// Application
	ToggleSample key.Binding
	NewSession   key.Binding
	Dismiss      key.Binding
	Help         key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload CSV"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "upload & validate"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		Sample: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "generate sample"),
		),
		Train: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "train models"),
		),
		Predict: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "run predictions"),
		),

		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "overview/transactions"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export CSV"),
		),
		Sheets: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "export to Sheets"),
		),

		ToggleSample: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show/hide sample"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new file"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// forState enables only the bindings that make sense right now. While a
// request is in flight every workflow action is disabled.
func (k KeyMap) forState(state workflow.State, busy, hasError, editing bool) KeyMap {
	stage := state.Stage()
	idle := !busy && !editing
	predicted := stage == workflow.StagePredicted

	k.Upload.SetEnabled(idle && state.CanUpload())
	k.Sample.SetEnabled(idle && state.CanUpload())
	k.Submit.SetEnabled(editing && !busy)
	k.Cancel.SetEnabled(editing)
	k.Train.SetEnabled(idle && state.CanTrain())
	k.Predict.SetEnabled(idle && state.CanPredict())

	k.PrevPage.SetEnabled(!editing && predicted)
	k.NextPage.SetEnabled(!editing && predicted)
	k.Up.SetEnabled(!editing && predicted)
	k.Down.SetEnabled(!editing && predicted)
	k.ToggleView.SetEnabled(!editing && predicted)
	k.Export.SetEnabled(idle && predicted)
	k.Sheets.SetEnabled(idle && predicted)

	k.ToggleSample.SetEnabled(!editing && stage != workflow.StageNoFile)
	k.NewSession.SetEnabled(idle && stage != workflow.StageNoFile)
	k.Dismiss.SetEnabled(!editing && hasError)
	k.Help.SetEnabled(!editing)
	k.Quit.SetEnabled(!editing)
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Upload, k.Submit, k.Cancel, k.Sample, k.Train, k.Predict,
		k.ToggleView, k.Export, k.Dismiss, k.Help, k.Quit,
	}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Upload, k.Submit, k.Cancel, k.Sample, k.Train, k.Predict},
		{k.PrevPage, k.NextPage, k.Up, k.Down, k.ToggleView},
		{k.Export, k.Sheets, k.ToggleSample, k.NewSession},
		{k.Dismiss, k.Help, k.Quit, k.ForceQuit},
	}
}
