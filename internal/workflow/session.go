package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/model"
)

// DefaultFraudColumn is the label column passed to training.
const DefaultFraudColumn = "is_fraud"

// Session owns one pass through the wizard. Only one request may be in
// flight at a time across all stages, and nothing a request returns after
// Close is applied.
type Session struct {
	ctx      context.Context
	service  Service
	recorder Recorder
	logger   *slog.Logger
	lastErr  error
	cancel   context.CancelFunc
	id       string
	column   string
	state    State
	mu       sync.Mutex
	busy     bool
	closed   bool
}

// Option configures a Session.
type Option func(*Session)

// WithFraudColumn sets the label column used for training.
func WithFraudColumn(column string) Option {
	return func(s *Session) {
		if strings.TrimSpace(column) != "" {
			s.column = column
		}
	}
}

// WithRecorder stores every successful prediction run.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession starts a session in NoFile. Cancelling ctx has the same effect
// as Close.
func NewSession(ctx context.Context, service Service, opts ...Option) *Session {
	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:     sctx,
		cancel:  cancel,
		service: service,
		logger:  slog.Default(),
		id:      uuid.NewString(),
		column:  DefaultFraudColumn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session; it becomes the run ID in history.
func (s *Session) ID() string {
	return s.id
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastError returns the error of the most recent action, or nil if it
// succeeded. Starting a new action clears it.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// DismissError clears the last error.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Close tears the session down. In-flight requests are cancelled and their
// results discarded.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// UploadPath reads a local CSV file and validates it.
func (s *Session) UploadPath(ctx context.Context, path string) (State, error) {
	if strings.TrimSpace(path) == "" {
		return s.reject(common.NewUserError("Please select a file", common.ErrNoFile))
	}

	f, err := os.Open(path) //nolint:gosec // user-selected input file
	if err != nil {
		return s.reject(common.NewUserError("Could not open file", err))
	}
	defer func() { _ = f.Close() }()

	return s.UploadFile(ctx, filepath.Base(path), f)
}

// UploadFile validates a CSV file with the service. On success the session
// moves to FileReady; on failure it stays in NoFile.
func (s *Session) UploadFile(ctx context.Context, name string, content io.Reader) (State, error) {
	if content == nil {
		return s.reject(common.NewUserError("Please select a file", common.ErrNoFile))
	}

	return s.run(ctx, "upload", State.uploadAllowed, func(ctx context.Context, current State) (State, error) {
		result, err := s.service.ValidateCSV(ctx, name, content)
		if err != nil {
			return current, err
		}
		s.logger.Info("File validated",
			"file", name,
			"rows", result.Rows,
			"columns", len(result.Columns))
		return current.WithFile(FileInfo{Source: name, Upload: result})
	})
}

// GenerateSample asks the service for a generated file and treats it like
// an upload.
func (s *Session) GenerateSample(ctx context.Context) (State, error) {
	return s.run(ctx, "sample", State.uploadAllowed, func(ctx context.Context, current State) (State, error) {
		result, err := s.service.SampleData(ctx)
		if err != nil {
			return current, err
		}
		s.logger.Info("Sample data generated", "rows", result.Rows)
		return current.WithFile(FileInfo{Source: SampleSource, Upload: result})
	})
}

// Train trains the service's models on the accepted file.
func (s *Session) Train(ctx context.Context) (State, error) {
	return s.run(ctx, "train", State.trainAllowed, func(ctx context.Context, current State) (State, error) {
		file, _ := current.File()
		stats, err := s.service.Train(ctx, file.Upload.Filepath, s.column)
		if err != nil {
			return current, err
		}
		s.logger.Info("Model trained",
			"samples", stats.SamplesTrained,
			"rf_score", stats.RFScore,
			"xgb_score", stats.XGBScore)
		return current.WithTraining(stats)
	})
}

// Predict scores the accepted file with the trained models. The finished
// run is recorded only once its result has been kept.
func (s *Session) Predict(ctx context.Context) (State, error) {
	state, err := s.run(ctx, "predict", State.predictAllowed, func(ctx context.Context, current State) (State, error) {
		file, _ := current.File()
		result, err := s.service.Predict(ctx, file.Upload.Filepath)
		if err != nil {
			return current, err
		}
		s.logger.Info("Predictions received",
			"transactions", result.Statistics.TotalTransactions,
			"fraudulent", result.Statistics.FraudulentDetected,
			"results", len(result.Results))

		return current.WithPrediction(result)
	})
	if err != nil {
		return state, err
	}

	s.record(context.WithoutCancel(ctx), state)
	return state, nil
}

func (s State) uploadAllowed() error {
	if !s.CanUpload() {
		return common.NewUserError("A file is already loaded; start a new session to upload another", common.ErrInvalidTransition)
	}
	return nil
}

func (s State) trainAllowed() error {
	if !s.CanTrain() {
		return common.NewUserError("Upload a file before training", common.ErrInvalidTransition)
	}
	return nil
}

func (s State) predictAllowed() error {
	if !s.CanPredict() {
		return common.NewUserError("Train the model before predicting", common.ErrInvalidTransition)
	}
	return nil
}

type step func(ctx context.Context, current State) (State, error)

// run applies one guarded action. The busy flag is held for the whole
// request. Results that arrive after Close are dropped.
func (s *Session) run(ctx context.Context, op string, allowed func(State) error, fn step) (State, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, common.ErrTornDown
	}
	if s.busy {
		current := s.state
		s.mu.Unlock()
		return current, common.ErrBusy
	}
	current := s.state
	if err := allowed(current); err != nil {
		s.lastErr = err
		s.mu.Unlock()
		return current, err
	}
	s.busy = true
	s.lastErr = nil
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	start := time.Now()
	next, err := fn(ctx, current)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if s.closed {
		s.logger.Debug("Discarding result after close", "op", op, "session", s.id)
		return s.state, common.ErrTornDown
	}

	if err != nil {
		s.lastErr = err
		s.logger.Warn("Workflow action failed",
			"op", op,
			"stage", current.Stage(),
			"duration", time.Since(start),
			"error", err)
		return s.state, err
	}

	s.state = next
	s.logger.Debug("Workflow advanced",
		"op", op,
		"from", current.Stage(),
		"to", next.Stage(),
		"duration", time.Since(start))
	return next, nil
}

// reject records an error raised before any request was made.
func (s *Session) reject(err error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, common.ErrTornDown
	}
	if s.busy {
		return s.state, common.ErrBusy
	}
	s.lastErr = err
	return s.state, err
}

// record saves a finished run. Failures are logged only.
func (s *Session) record(ctx context.Context, state State) {
	if s.recorder == nil {
		return
	}

	file, _ := state.File()
	run := &model.Run{
		ID:         s.id,
		CreatedAt:  time.Now(),
		SourceFile: file.Source,
		Upload:     file.Upload,
	}
	if stats, ok := state.Training(); ok {
		run.Training = &stats
	}
	if result, ok := state.Prediction(); ok {
		run.Prediction = result
	}

	if err := s.recorder.SaveRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record run in history", "session", s.id, "error", fmt.Errorf("save run: %w", err))
	}
}
