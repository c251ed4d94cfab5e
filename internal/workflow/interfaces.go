package workflow

import (
	"context"
	"io"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Service is the scoring service as the workflow sees it. Every call either
// returns a successful payload or an error; there is no third outcome.
type Service interface {
	ValidateCSV(ctx context.Context, filename string, content io.Reader) (model.UploadResult, error)
	SampleData(ctx context.Context) (model.UploadResult, error)
	Train(ctx context.Context, file, fraudColumn string) (model.TrainingStats, error)
	Predict(ctx context.Context, file string) (model.PredictionResult, error)
}

// Recorder persists completed prediction runs.
type Recorder interface {
	SaveRun(ctx context.Context, run *model.Run) error
}
