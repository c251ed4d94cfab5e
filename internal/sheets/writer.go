package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// spreadsheetAPI is the subset of the Sheets API the writer needs.
type spreadsheetAPI interface {
	Ensure(ctx context.Context, cfg Config) (string, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	Format(ctx context.Context, spreadsheetID string, headerRow, totalRows, columns int) error
}

// Writer exports prediction results to a Google spreadsheet.
type Writer struct {
	api    spreadsheetAPI
	logger *slog.Logger
	config Config
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(&googleAPI{service: srv, logger: logger}, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{api: api, config: config, logger: logger}
}

// Write replaces the sheet contents with the prediction results and returns
// the spreadsheet ID.
func (w *Writer) Write(ctx context.Context, source string, result model.PredictionResult) (string, error) {
	w.logger.Info("starting sheets export",
		"source", source,
		"results", len(result.Results))

	spreadsheetID, err := w.api.Ensure(ctx, w.config)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.api.Clear(ctx, spreadsheetID, w.config.SheetTitle+"!A:Z"); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values, headerRow, columns := prepareValues(source, result, time.Now())

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classify(w.api.Format(ctx, spreadsheetID, headerRow, len(values), columns))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

// writeData writes values in batches to avoid API limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	batchSize := w.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(values)
	}

	for i := 0; i < len(values); i += batchSize {
		end := min(i+batchSize, len(values))

		rng := fmt.Sprintf("%s!A%d", w.config.SheetTitle, i+1)
		if err := w.api.Update(ctx, spreadsheetID, rng, values[i:end]); err != nil {
			return classify(fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err))
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}

	return nil
}

// prepareValues lays out the summary block followed by one row per
// prediction. It returns the values, the zero-based index of the prediction
// header row and the number of prediction columns.
func prepareValues(source string, result model.PredictionResult, now time.Time) ([][]any, int, int) {
	stats := result.Statistics
	values := make([][]any, 0, 12+len(result.Results))

	values = append(values,
		[]any{"Fraud Predictions", now.Format("Jan 2, 2006 15:04")},
		[]any{"Source", source},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Transactions", stats.TotalTransactions},
		[]any{"Fraudulent Detected", stats.FraudulentDetected},
		[]any{"Fraud Percentage", stats.FraudPercentage},
		[]any{"Anomalies Detected", stats.AnomaliesDetected},
		[]any{"Avg Fraud Probability", stats.AvgFraudProbability},
		[]any{},
	)

	if len(result.Results) == 0 {
		return values, len(values) - 1, 0
	}

	keys := result.Results[0].Fields().Keys
	header := make([]any, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	headerRow := len(values)
	values = append(values, header)

	for _, tx := range result.Results {
		fields := tx.Fields()
		row := make([]any, len(keys))
		for i, k := range keys {
			switch v := fields.Get(k).(type) {
			case nil:
				row[i] = ""
			case string, bool, float64, int:
				row[i] = v
			default:
				row[i] = model.FormatValue(v)
			}
		}
		values = append(values, row)
	}

	return values, headerRow, len(keys)
}

// classify marks client errors as permanent so WithRetry stops early, and
// quota errors as rate limits so it backs off for the longest delay.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// googleAPI implements spreadsheetAPI on top of the Sheets service.
type googleAPI struct {
	service *sheets.Service
	logger  *slog.Logger
}

func (g *googleAPI) Ensure(ctx context.Context, cfg Config) (string, error) {
	if cfg.SpreadsheetID != "" {
		if _, err := g.service.Spreadsheets.Get(cfg.SpreadsheetID).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", cfg.SpreadsheetID, err)
		}
		return cfg.SpreadsheetID, nil
	}

	created, err := g.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    cfg.SpreadsheetName,
			TimeZone: cfg.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: cfg.SheetTitle}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	g.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

func (g *googleAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.service.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := g.service.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (g *googleAPI) Format(ctx context.Context, spreadsheetID string, headerRow, totalRows, columns int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
	}

	if columns > 0 {
		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						StartRowIndex:    int64(headerRow),
						EndRowIndex:      int64(headerRow + 1),
						StartColumnIndex: 0,
						EndColumnIndex:   int64(columns),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(columns),
					},
				},
			},
		)
	}

	g.logger.Debug("formatting spreadsheet", "rows", totalRows, "columns", columns)

	_, err := g.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
