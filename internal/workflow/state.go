// Package workflow drives the upload, train and predict wizard.
package workflow

import (
	"fmt"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/model"
)

// Stage is the furthest step a session has completed.
type Stage int

// Workflow stages, in the only order they can be reached.
const (
	StageNoFile Stage = iota
	StageFileReady
	StageTrained
	StagePredicted
)

func (s Stage) String() string {
	switch s {
	case StageNoFile:
		return "NoFile"
	case StageFileReady:
		return "FileReady"
	case StageTrained:
		return "Trained"
	case StagePredicted:
		return "Predicted"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// SampleSource is the Source of a file the service generated.
const SampleSource = "sample data"

// FileInfo is an accepted upload.
type FileInfo struct {
	// Source is the local file name, or SampleSource.
	Source string
	Upload model.UploadResult
}

// State is an immutable snapshot of a session. The zero value is NoFile.
// Later stages can only be built on top of earlier ones, so a state with
// predictions always carries the training stats and file they came from.
type State struct {
	file       *FileInfo
	training   *model.TrainingStats
	prediction *model.PredictionResult
}

// Stage reports which stage the state is in.
func (s State) Stage() Stage {
	switch {
	case s.prediction != nil:
		return StagePredicted
	case s.training != nil:
		return StageTrained
	case s.file != nil:
		return StageFileReady
	default:
		return StageNoFile
	}
}

// File returns the accepted upload, if any.
func (s State) File() (FileInfo, bool) {
	if s.file == nil {
		return FileInfo{}, false
	}
	return *s.file, true
}

// Training returns the training stats, if any.
func (s State) Training() (model.TrainingStats, bool) {
	if s.training == nil {
		return model.TrainingStats{}, false
	}
	return *s.training, true
}

// Prediction returns the prediction result, if any.
func (s State) Prediction() (model.PredictionResult, bool) {
	if s.prediction == nil {
		return model.PredictionResult{}, false
	}
	return *s.prediction, true
}

// CanUpload reports whether a file may still be accepted.
func (s State) CanUpload() bool {
	return s.file == nil
}

// CanTrain reports whether training may run.
func (s State) CanTrain() bool {
	return s.file != nil
}

// CanPredict reports whether prediction may run.
func (s State) CanPredict() bool {
	return s.training != nil
}

// WithFile moves NoFile to FileReady.
func (s State) WithFile(info FileInfo) (State, error) {
	if !s.CanUpload() {
		return s, fmt.Errorf("%w: a file was already accepted in this session", common.ErrInvalidTransition)
	}
	if !info.Upload.Success {
		return s, fmt.Errorf("%w: upload was not successful", common.ErrInvalidTransition)
	}
	info.Upload.Columns = append([]string(nil), info.Upload.Columns...)
	return State{file: &info}, nil
}

// WithTraining records training stats, replacing any earlier ones. Existing
// predictions are kept; they stay visible until the next prediction run
// replaces them.
func (s State) WithTraining(stats model.TrainingStats) (State, error) {
	if !s.CanTrain() {
		return s, fmt.Errorf("%w: training requires an uploaded file", common.ErrInvalidTransition)
	}
	next := s
	next.training = &stats
	return next, nil
}

// WithPrediction records a prediction result, replacing any earlier one.
func (s State) WithPrediction(result model.PredictionResult) (State, error) {
	if !s.CanPredict() {
		return s, fmt.Errorf("%w: prediction requires a trained model", common.ErrInvalidTransition)
	}
	next := s
	next.prediction = &result
	return next, nil
}
