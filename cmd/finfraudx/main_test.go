package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/config"
	"github.com/Veraticus/finfraudx/internal/fraudapi"
	"github.com/Veraticus/finfraudx/internal/mockservice"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/storage"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T) *fraudapi.Client {
	t.Helper()

	srv := httptest.NewServer(mockservice.New(
		mockservice.WithSampleRows(25),
		mockservice.WithLogger(quietLogger()),
	).Router())
	t.Cleanup(srv.Close)

	client, err := fraudapi.New(srv.URL, fraudapi.WithLogger(quietLogger()))
	require.NoError(t, err)
	return client
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{
		"dashboard", "validate", "sample", "train", "predict", "run",
		"history", "convert-ofx", "mock-server", "auth", "version",
	}

	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		assert.True(t, registered[name], "missing subcommand %q", name)
	}
}

func TestHistoryCommandHasSubcommands(t *testing.T) {
	cmd := historyCmd()
	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show", "export", "delete"}, names)
}

func TestEnvKeyReplacer(t *testing.T) {
	assert.Equal(t, "service_fraud_column", envKeyReplacer.Replace("service.fraud_column"))
}

func TestPipelineRun_SampleData(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cfg := config.Config{Service: config.ServiceConfig{FraudColumn: "is_fraud"}}
	session := workflow.NewSession(ctx, client, sessionOptions(cfg, store)...)
	defer session.Close()

	var out bytes.Buffer
	exportDir := t.TempDir()
	p := pipeline{session: session, out: &out, progress: io.Discard}

	state, err := p.run(ctx, pipelineOptions{Sample: true, ExportDir: exportDir, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, workflow.StagePredicted, state.Stage())

	text := out.String()
	assert.Contains(t, text, report.SampleGeneratedMessage)
	assert.Contains(t, text, "25 rows, 6 columns")
	assert.Contains(t, text, "2 / 3")
	assert.Contains(t, text, "fraud_predictions.csv")

	result, ok := state.Prediction()
	require.True(t, ok)
	data, err := os.ReadFile(filepath.Join(exportDir, "fraud_predictions.csv"))
	require.NoError(t, err)
	assert.Equal(t, report.ExportCSV(result.Results), string(data))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, session.ID(), runs[0].ID)
	assert.Equal(t, workflow.SampleSource, runs[0].SourceFile)
}

func TestPipelineUpload_File(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	path := filepath.Join(t.TempDir(), "tx.csv")
	csv := "transaction_id,amount,merchant_category,is_fraud\n" +
		"t1,12.50,grocery,0\n" +
		"t2,980.00,travel,1\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	session := workflow.NewSession(ctx, client, workflow.WithLogger(quietLogger()))
	defer session.Close()

	var out bytes.Buffer
	p := pipeline{session: session, out: &out, progress: io.Discard}

	state, err := p.upload(ctx, pipelineOptions{Path: path, ShowSample: true})
	require.NoError(t, err)
	assert.Equal(t, workflow.StageFileReady, state.Stage())
	assert.Contains(t, out.String(), "File validated! 2 rows, 4 columns")
	assert.Contains(t, out.String(), "tx.csv")
	assert.Contains(t, out.String(), `"merchant_category": "travel"`)
}

func TestPipelineUpload_MissingFile(t *testing.T) {
	ctx := context.Background()
	session := workflow.NewSession(ctx, newTestClient(t), workflow.WithLogger(quietLogger()))
	defer session.Close()

	var out bytes.Buffer
	p := pipeline{session: session, out: &out, progress: io.Discard}

	_, err := p.upload(ctx, pipelineOptions{Path: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestPrintResults_NoExport(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	upload, err := client.SampleData(ctx)
	require.NoError(t, err)
	_, err = client.Train(ctx, upload.Filepath, "is_fraud")
	require.NoError(t, err)
	result, err := client.Predict(ctx, upload.Filepath)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printResults(&out, result, pipelineOptions{}))
	assert.Contains(t, out.String(), "Detailed Predictions")
	assert.Contains(t, out.String(), "1 / 3")
	assert.NotContains(t, out.String(), "Exported predictions")
}

const testOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestConvertOFX(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.qfx")
	require.NoError(t, os.WriteFile(input, []byte(testOFX), 0o600))

	cmd := convertOFXCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{input})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Wrote 1 transactions to")
	data, err := os.ReadFile(filepath.Join(dir, "statement.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024011501,1234567890,2024-01-15,25.50,STARBUCKS STORE #1234,restaurant", lines[1])
}

func TestConvertOFX_Stdout(t *testing.T) {
	input := filepath.Join(t.TempDir(), "statement.ofx")
	require.NoError(t, os.WriteFile(input, []byte(testOFX), 0o600))

	cmd := convertOFXCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{input, "--out", "-"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.True(t, strings.HasPrefix(out.String(), "transaction_id,customer_id,date,amount,merchant,merchant_category\n"))
	assert.NotContains(t, out.String(), "Wrote")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := &http.Server{
		Addr:              "127.0.0.1:0",
		Handler:           mockservice.New(mockservice.WithLogger(quietLogger())).Router(),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestSheetsTokenFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := sheetsTokenFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "finfraudx", "sheets-token.json"), path)
}

func TestLoadSheetsWriter(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
	} {
		t.Setenv(key, "")
	}
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		writer, err := loadSheetsWriter(ctx, viper.New())
		require.NoError(t, err)
		assert.Nil(t, writer)

		_, err = requireSheetsWriter(ctx, viper.New())
		assert.ErrorIs(t, err, common.ErrMissingConfig)
		assert.Contains(t, common.DisplayMessage(err), "finfraudx auth sheets")
	})

	t.Run("conflicting credentials", func(t *testing.T) {
		v := viper.New()
		v.Set("sheets.service_account_path", "/keys/sa.json")
		v.Set("sheets.client_id", "client")
		v.Set("sheets.client_secret", "secret")
		v.Set("sheets.refresh_token", "token")

		_, err := requireSheetsWriter(ctx, v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
		assert.Contains(t, common.DisplayMessage(err), "multiple authentication methods")
		assert.NotContains(t, common.DisplayMessage(err), "auth sheets")
	})

	t.Run("missing service account file", func(t *testing.T) {
		v := viper.New()
		v.Set("sheets.service_account_path", filepath.Join(t.TempDir(), "sa.json"))

		_, err := requireSheetsWriter(ctx, v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service account key file")
		assert.NotErrorIs(t, err, common.ErrMissingConfig)
	})
}
