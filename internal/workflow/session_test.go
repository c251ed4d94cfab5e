package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/fraudapi"
	"github.com/Veraticus/finfraudx/internal/model"
)

type fakeService struct {
	uploadErr   error
	trainErr    error
	predictErr  error
	block       chan struct{}
	started     chan struct{}
	upload      model.UploadResult
	stats       model.TrainingStats
	prediction  model.PredictionResult
	gotFile     string
	gotColumn   string
	gotFilename string
	gotContent  string
	onPredict   func()
	mu          sync.Mutex
}

func newFakeService() *fakeService {
	return &fakeService{
		upload: readyUpload(),
		stats: model.TrainingStats{
			SamplesTrained: 100,
			FraudRatio:     0.05,
			RFScore:        0.93,
			XGBScore:       0.95,
		},
		prediction: model.PredictionResult{
			Success: true,
			Results: []model.TransactionPrediction{{CustomerID: "C1"}},
			Statistics: model.Statistics{
				TotalTransactions: 1,
			},
		},
	}
}

func (f *fakeService) wait(ctx context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) ValidateCSV(ctx context.Context, filename string, content io.Reader) (model.UploadResult, error) {
	data, _ := io.ReadAll(content)
	f.mu.Lock()
	f.gotFilename = filename
	f.gotContent = string(data)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return model.UploadResult{}, err
	}
	return f.upload, f.uploadErr
}

func (f *fakeService) SampleData(ctx context.Context) (model.UploadResult, error) {
	if err := f.wait(ctx); err != nil {
		return model.UploadResult{}, err
	}
	result := f.upload
	result.Filepath = "/srv/uploads/sample.csv"
	return result, f.uploadErr
}

func (f *fakeService) Train(ctx context.Context, file, fraudColumn string) (model.TrainingStats, error) {
	f.mu.Lock()
	f.gotFile = file
	f.gotColumn = fraudColumn
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return model.TrainingStats{}, err
	}
	return f.stats, f.trainErr
}

func (f *fakeService) Predict(ctx context.Context, file string) (model.PredictionResult, error) {
	f.mu.Lock()
	f.gotFile = file
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return model.PredictionResult{}, err
	}
	if f.onPredict != nil {
		f.onPredict()
	}
	return f.prediction, f.predictErr
}

type fakeRecorder struct {
	err  error
	runs []*model.Run
}

func (r *fakeRecorder) SaveRun(_ context.Context, run *model.Run) error {
	r.runs = append(r.runs, run)
	return r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, svc Service, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s := NewSession(context.Background(), svc, opts...)
	t.Cleanup(s.Close)
	return s
}

func TestSession_FullRun(t *testing.T) {
	svc := newFakeService()
	rec := &fakeRecorder{}
	s := newTestSession(t, svc, WithRecorder(rec))
	ctx := context.Background()

	state, err := s.UploadFile(ctx, "tx.csv", strings.NewReader("amount,category\n"))
	require.NoError(t, err)
	assert.Equal(t, StageFileReady, state.Stage())
	file, _ := state.File()
	assert.Equal(t, 100, file.Upload.Rows)
	assert.Equal(t, []string{"amount", "category"}, file.Upload.Columns)
	assert.Equal(t, "amount,category\n", svc.gotContent)

	state, err = s.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageTrained, state.Stage())
	assert.Equal(t, "/srv/uploads/tx.csv", svc.gotFile)
	assert.Equal(t, DefaultFraudColumn, svc.gotColumn)

	state, err = s.Predict(ctx)
	require.NoError(t, err)
	assert.Equal(t, StagePredicted, state.Stage())
	assert.Equal(t, StagePredicted, s.State().Stage())
	assert.NoError(t, s.LastError())

	require.Len(t, rec.runs, 1)
	assert.Equal(t, s.ID(), rec.runs[0].ID)
	assert.Equal(t, "tx.csv", rec.runs[0].SourceFile)
	require.NotNil(t, rec.runs[0].Training)
	assert.Equal(t, 100, rec.runs[0].Training.SamplesTrained)
}

func TestSession_UploadFailureStaysInNoFile(t *testing.T) {
	svc := newFakeService()
	svc.uploadErr = &fraudapi.Error{Op: "validate-csv", Kind: fraudapi.KindValidation, Message: "Missing column"}
	s := newTestSession(t, svc)

	state, err := s.UploadFile(context.Background(), "tx.csv", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, StageNoFile, state.Stage())
	assert.Equal(t, StageNoFile, s.State().Stage())
	assert.Equal(t, "Missing column", common.DisplayMessage(s.LastError()))
	assert.False(t, s.Busy())
}

func TestSession_TrainingFailureKeepsFileReady(t *testing.T) {
	svc := newFakeService()
	svc.trainErr = &fraudapi.Error{Op: "train", Kind: fraudapi.KindValidation, Message: "Column is_fraud not found"}
	s := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.GenerateSample(ctx)
	require.NoError(t, err)

	state, err := s.Train(ctx)
	require.Error(t, err)
	assert.Equal(t, StageFileReady, state.Stage())
	_, ok := s.State().Training()
	assert.False(t, ok)

	// The trigger stays usable.
	svc.trainErr = nil
	state, err = s.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageTrained, state.Stage())
	assert.NoError(t, s.LastError())
}

func TestSession_SampleUsesServiceFilepath(t *testing.T) {
	svc := newFakeService()
	s := newTestSession(t, svc, WithFraudColumn("label"))
	ctx := context.Background()

	state, err := s.GenerateSample(ctx)
	require.NoError(t, err)
	file, _ := state.File()
	assert.Equal(t, SampleSource, file.Source)

	_, err = s.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/srv/uploads/sample.csv", svc.gotFile)
	assert.Equal(t, "label", svc.gotColumn)
}

func TestSession_Preconditions(t *testing.T) {
	s := newTestSession(t, newFakeService())
	ctx := context.Background()

	_, err := s.Train(ctx)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Equal(t, "Upload a file before training: invalid workflow transition", common.DisplayMessage(err))

	_, err = s.Predict(ctx)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	_, err = s.UploadFile(ctx, "", nil)
	assert.ErrorIs(t, err, common.ErrNoFile)

	_, err = s.UploadPath(ctx, "  ")
	assert.ErrorIs(t, err, common.ErrNoFile)

	_, err = s.GenerateSample(ctx)
	require.NoError(t, err)
	_, err = s.GenerateSample(ctx)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestSession_UploadPath(t *testing.T) {
	svc := newFakeService()
	s := newTestSession(t, svc)

	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte("amount\n1\n"), 0o600))

	state, err := s.UploadPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StageFileReady, state.Stage())
	assert.Equal(t, "transactions.csv", svc.gotFilename)
	assert.Equal(t, "amount\n1\n", svc.gotContent)

	missing := newTestSession(t, svc)
	_, err = missing.UploadPath(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSession_BusyBlocksEveryAction(t *testing.T) {
	svc := newFakeService()
	svc.block = make(chan struct{})
	svc.started = make(chan struct{})
	s := newTestSession(t, svc)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.GenerateSample(ctx)
		done <- err
	}()
	<-svc.started
	assert.True(t, s.Busy())

	_, err := s.UploadFile(ctx, "tx.csv", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrBusy)
	_, err = s.Train(ctx)
	assert.ErrorIs(t, err, common.ErrBusy)
	_, err = s.Predict(ctx)
	assert.ErrorIs(t, err, common.ErrBusy)

	close(svc.block)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
	assert.Equal(t, StageFileReady, s.State().Stage())
}

func TestSession_CloseDiscardsInFlightResult(t *testing.T) {
	svc := newFakeService()
	svc.block = make(chan struct{})
	svc.started = make(chan struct{})
	s := NewSession(context.Background(), svc, WithLogger(quietLogger()))

	done := make(chan error, 1)
	go func() {
		_, err := s.GenerateSample(context.Background())
		done <- err
	}()
	<-svc.started

	s.Close()
	assert.ErrorIs(t, <-done, common.ErrTornDown)
	assert.Equal(t, StageNoFile, s.State().Stage())

	_, err := s.Train(context.Background())
	assert.ErrorIs(t, err, common.ErrTornDown)
}

func TestSession_CloseDuringPredictRecordsNothing(t *testing.T) {
	svc := newFakeService()
	rec := &fakeRecorder{}
	s := NewSession(context.Background(), svc, WithLogger(quietLogger()), WithRecorder(rec))
	ctx := context.Background()

	_, err := s.GenerateSample(ctx)
	require.NoError(t, err)
	_, err = s.Train(ctx)
	require.NoError(t, err)

	svc.onPredict = s.Close
	_, err = s.Predict(ctx)
	assert.ErrorIs(t, err, common.ErrTornDown)
	assert.Empty(t, rec.runs)
}

func TestSession_FailedPredictRecordsNothing(t *testing.T) {
	svc := newFakeService()
	svc.predictErr = errors.New("model exploded")
	rec := &fakeRecorder{}
	s := newTestSession(t, svc, WithRecorder(rec))
	ctx := context.Background()

	_, err := s.GenerateSample(ctx)
	require.NoError(t, err)
	_, err = s.Train(ctx)
	require.NoError(t, err)

	_, err = s.Predict(ctx)
	require.Error(t, err)
	assert.Empty(t, rec.runs)
}

func TestSession_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	s := newTestSession(t, newFakeService(), WithRecorder(rec))
	ctx := context.Background()

	_, err := s.GenerateSample(ctx)
	require.NoError(t, err)
	_, err = s.Train(ctx)
	require.NoError(t, err)
	state, err := s.Predict(ctx)
	require.NoError(t, err)
	assert.Equal(t, StagePredicted, state.Stage())
	assert.Len(t, rec.runs, 1)
}

func TestSession_DismissError(t *testing.T) {
	s := newTestSession(t, newFakeService())

	_, err := s.Predict(context.Background())
	require.Error(t, err)
	require.Error(t, s.LastError())

	s.DismissError()
	assert.NoError(t, s.LastError())
}
