package workflow

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finfraudx/internal/fraudapi"
	"github.com/Veraticus/finfraudx/internal/mockservice"
	"github.com/Veraticus/finfraudx/internal/report"
)

func TestEndToEndAgainstMockService(t *testing.T) {
	srv := httptest.NewServer(mockservice.New(
		mockservice.WithSampleRows(25),
		mockservice.WithLogger(quietLogger()),
	).Router())
	defer srv.Close()

	client, err := fraudapi.New(srv.URL, fraudapi.WithLogger(quietLogger()))
	require.NoError(t, err)

	s := newTestSession(t, client)
	ctx := context.Background()

	state, err := s.GenerateSample(ctx)
	require.NoError(t, err)
	file, _ := state.File()
	assert.Equal(t, 25, file.Upload.Rows)
	assert.Equal(t, "25 rows, 6 columns", report.FileSummary(file.Upload))

	state, err = s.Train(ctx)
	require.NoError(t, err)
	stats, ok := state.Training()
	require.True(t, ok)
	assert.Equal(t, 25, stats.SamplesTrained)

	state, err = s.Predict(ctx)
	require.NoError(t, err)
	result, ok := state.Prediction()
	require.True(t, ok)
	require.Len(t, result.Results, 25)

	pager := report.NewPager(len(result.Results))
	assert.Equal(t, 3, pager.PageCount())
	assert.Len(t, report.PageRows(pager.SetPage(3), result.Results), 5)

	lines := strings.Split(report.ExportCSV(result.Results), "\n")
	assert.Len(t, lines, 26)
	assert.Equal(t, "customer_id,amount,merchant_category,ensemble_fraud_probability,risk_level,is_fraud_predicted,is_anomaly", lines[0])
}

func TestEndToEnd_TrainingRejectedKeepsFileReady(t *testing.T) {
	srv := httptest.NewServer(mockservice.New(mockservice.WithLogger(quietLogger())).Router())
	defer srv.Close()

	client, err := fraudapi.New(srv.URL, fraudapi.WithLogger(quietLogger()))
	require.NoError(t, err)

	s := newTestSession(t, client, WithFraudColumn("label"))
	ctx := context.Background()

	_, err = s.UploadFile(ctx, "tx.csv", strings.NewReader("amount,category\n1,food\n2,travel\n"))
	require.NoError(t, err)

	state, err := s.Train(ctx)
	require.Error(t, err)
	assert.Equal(t, StageFileReady, state.Stage())
	assert.Equal(t, "Column 'label' not found in dataset", s.LastError().(*fraudapi.Error).UserMessage())
}
