// Package fraudapi is the HTTP adapter for the external fraud scoring service.
package fraudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Endpoint paths exposed by the scoring service.
const (
	PathValidateCSV = "/api/validate-csv"
	PathSampleData  = "/api/sample-data"
	PathTrain       = "/api/train"
	PathPredict     = "/api/predict"
)

// DefaultFraudColumn is the label column used when training.
const DefaultFraudColumn = "is_fraud"

const maxResponseBytes = 64 << 20

// Client talks to the scoring service. Every call either returns a payload
// whose success flag was true or an *Error.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	logger          *slog.Logger
	validateTimeout time.Duration
	requestTimeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeouts sets the validation timeout and the timeout for every other call.
func WithTimeouts(validate, request time.Duration) Option {
	return func(c *Client) {
		if validate > 0 {
			c.validateTimeout = validate
		}
		if request > 0 {
			c.requestTimeout = request
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid service URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:          slog.Default(),
		validateTimeout: 30 * time.Second,
		requestTimeout:  30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// envelope is implemented by every response body; the service signals
// application errors with a body-level success flag.
type envelope interface {
	succeeded() bool
	errorText() string
}

type uploadResponse struct {
	model.UploadResult
}

func (r *uploadResponse) succeeded() bool   { return r.Success }
func (r *uploadResponse) errorText() string { return r.Error }

type trainResponse struct {
	Stats   *model.TrainingStats `json:"stats"`
	Error   string               `json:"error,omitempty"`
	Success bool                 `json:"success"`
}

func (r *trainResponse) succeeded() bool   { return r.Success }
func (r *trainResponse) errorText() string { return r.Error }

type predictResponse struct {
	model.PredictionResult
}

func (r *predictResponse) succeeded() bool   { return r.Success }
func (r *predictResponse) errorText() string { return r.Error }

// errorBody is the shape of a non-2xx response body, when there is one.
type errorBody struct {
	Error string `json:"error"`
}

// ValidateCSV uploads a transactions file as multipart form field "file".
func (c *Client) ValidateCSV(ctx context.Context, filename string, content io.Reader) (model.UploadResult, error) {
	const op = "validate-csv"

	if content == nil {
		return model.UploadResult{}, &Error{Op: op, Kind: KindValidation, Message: "Please select a file"}
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", "text/csv")

	part, err := form.CreatePart(header)
	if err != nil {
		return model.UploadResult{}, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return model.UploadResult{}, &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("failed to read %s: %w", filename, err)}
	}
	if err := form.Close(); err != nil {
		return model.UploadResult{}, &Error{Op: op, Kind: KindTransport, Err: err}
	}

	var resp uploadResponse
	if err := c.do(ctx, op, http.MethodPost, PathValidateCSV, form.FormDataContentType(), &body, c.validateTimeout, &resp); err != nil {
		return model.UploadResult{}, err
	}

	result := resp.UploadResult
	if result.Sample == nil {
		result.Sample = []model.Record{}
	}
	return result, nil
}

// SampleData asks the service to generate a sample transactions file.
func (c *Client) SampleData(ctx context.Context) (model.UploadResult, error) {
	const op = "sample-data"

	var resp uploadResponse
	if err := c.do(ctx, op, http.MethodGet, PathSampleData, "", nil, c.requestTimeout, &resp); err != nil {
		return model.UploadResult{}, err
	}

	result := resp.UploadResult
	if result.Sample == nil {
		result.Sample = []model.Record{}
	}
	return result, nil
}

// Train fits the service's models on the uploaded file.
func (c *Client) Train(ctx context.Context, file, fraudColumn string) (model.TrainingStats, error) {
	const op = "train"

	if fraudColumn == "" {
		fraudColumn = DefaultFraudColumn
	}

	payload, err := json.Marshal(map[string]string{
		"filepath":     file,
		"fraud_column": fraudColumn,
	})
	if err != nil {
		return model.TrainingStats{}, &Error{Op: op, Kind: KindTransport, Err: err}
	}

	var resp trainResponse
	if err := c.do(ctx, op, http.MethodPost, PathTrain, "application/json", bytes.NewReader(payload), c.requestTimeout, &resp); err != nil {
		return model.TrainingStats{}, err
	}
	if resp.Stats == nil {
		return model.TrainingStats{}, &Error{Op: op, Kind: KindDecode, Status: http.StatusOK, Err: errors.New("response has no stats")}
	}

	return *resp.Stats, nil
}

// Predict scores every transaction in the uploaded file.
func (c *Client) Predict(ctx context.Context, file string) (model.PredictionResult, error) {
	const op = "predict"

	payload, err := json.Marshal(map[string]string{"filepath": file})
	if err != nil {
		return model.PredictionResult{}, &Error{Op: op, Kind: KindTransport, Err: err}
	}

	var resp predictResponse
	if err := c.do(ctx, op, http.MethodPost, PathPredict, "application/json", bytes.NewReader(payload), c.requestTimeout, &resp); err != nil {
		return model.PredictionResult{}, err
	}

	result := resp.PredictionResult
	if result.Results == nil {
		result.Results = []model.TransactionPrediction{}
	}
	return result, nil
}

// do performs one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, timeout time.Duration, out envelope) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Scoring service unreachable",
			"op", op,
			"url", endpoint,
			"duration", time.Since(start),
			"error", err)
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("Scoring service responded",
		"op", op,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		apiErr := &Error{Op: op, Kind: KindServer, Status: resp.StatusCode, Message: eb.Error}
		c.logger.Warn("Scoring service returned an error status",
			"op", op,
			"status", resp.StatusCode,
			"kind", apiErr.Kind)
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Err: err}
	}

	if !out.succeeded() {
		apiErr := &Error{Op: op, Kind: KindValidation, Status: resp.StatusCode, Message: out.errorText()}
		c.logger.Warn("Scoring service rejected request",
			"op", op,
			"kind", apiErr.Kind,
			"message", apiErr.Message)
		return apiErr
	}

	return nil
}
