// Package mockservice is a self-contained stand-in for the fraud scoring
// service. It speaks the same four endpoints with deterministic scoring, so
// the dashboard can be demonstrated and tested without the real models.
package mockservice

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Veraticus/finfraudx/internal/model"
)

const (
	defaultSampleRows = 1000
	defaultSeed       = 42
	maxUploadBytes    = 32 << 20
	uploadDir         = "uploads"
)

// Server holds uploaded files and trained models in memory.
type Server struct {
	logger     *slog.Logger
	files      map[string]*dataset
	models     map[string]*scorer
	sampleRows int
	seed       int64
	mu         sync.RWMutex
}

// Option configures a Server.
type Option func(*Server)

// WithSampleRows sets the size of generated sample files.
func WithSampleRows(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sampleRows = n
		}
	}
}

// WithSeed sets the seed for generated sample files.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.seed = seed
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:     slog.Default(),
		files:      make(map[string]*dataset),
		models:     make(map[string]*scorer),
		sampleRows: defaultSampleRows,
		seed:       defaultSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP routes. Panics in handlers become 500 responses.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/validate-csv", s.validateCSV).Methods(http.MethodPost)
	r.HandleFunc("/api/sample-data", s.sampleData).Methods(http.MethodGet)
	r.HandleFunc("/api/train", s.train).Methods(http.MethodPost)
	r.HandleFunc("/api/predict", s.predict).Methods(http.MethodPost)

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(r)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fail reports an application error: HTTP 200 with success false.
func fail(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": msg})
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) store(name string, ds *dataset) string {
	filepath := path.Join(uploadDir, uuid.NewString()+"_"+path.Base(name))
	s.mu.Lock()
	s.files[filepath] = ds
	s.mu.Unlock()
	return filepath
}

func (s *Server) lookup(filepath string) (*dataset, *scorer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.files[filepath]
	return ds, s.models[filepath], ok
}

func uploadResponse(ds *dataset, filepath string) model.UploadResult {
	return model.UploadResult{
		Success:  true,
		Rows:     len(ds.rows),
		Columns:  ds.columns,
		Sample:   ds.sample(),
		Filepath: filepath,
	}
}

func (s *Server) validateCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		fail(w, "Only CSV files are supported")
		return
	}

	ds, err := readDataset(file)
	if err != nil {
		fail(w, err.Error())
		return
	}
	if len(ds.rows) == 0 {
		fail(w, errEmptyCSV.Error())
		return
	}

	filepath := s.store(header.Filename, ds)
	s.logger.Info("Accepted upload", "file", header.Filename, "rows", len(ds.rows), "stored_as", filepath)
	writeJSON(w, http.StatusOK, uploadResponse(ds, filepath))
}

func (s *Server) sampleData(w http.ResponseWriter, _ *http.Request) {
	ds := generateDataset(s.sampleRows, s.seed)
	filepath := s.store("sample_transactions.csv", ds)
	s.logger.Info("Generated sample data", "rows", len(ds.rows), "stored_as", filepath)
	writeJSON(w, http.StatusOK, uploadResponse(ds, filepath))
}

type trainRequest struct {
	Filepath    string `json:"filepath"`
	FraudColumn string `json:"fraud_column"`
}

func (s *Server) train(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.FraudColumn == "" {
		req.FraudColumn = "is_fraud"
	}

	ds, _, ok := s.lookup(req.Filepath)
	if !ok {
		httpError(w, http.StatusNotFound, "File not found")
		return
	}

	labelIdx := ds.index(req.FraudColumn)
	if labelIdx < 0 {
		fail(w, fmt.Sprintf("Column '%s' not found in dataset", req.FraudColumn))
		return
	}

	feats := ds.features()
	labels := make([]bool, len(ds.rows))
	for i, row := range ds.rows {
		labels[i] = parseLabel(row[labelIdx])
	}

	sc := train(feats, labels)
	s.mu.Lock()
	s.models[req.Filepath] = sc
	s.mu.Unlock()

	stats := model.TrainingStats{
		SamplesTrained: len(ds.rows),
		FraudRatio:     round(sc.baseRate, 4),
		RFScore:        round(accuracy(feats, labels, sc.forest), 4),
		XGBScore:       round(accuracy(feats, labels, sc.boost), 4),
	}
	s.logger.Info("Trained model", "file", req.Filepath, "samples", stats.SamplesTrained)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

type predictRequest struct {
	Filepath string `json:"filepath"`
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ds, sc, ok := s.lookup(req.Filepath)
	if !ok {
		httpError(w, http.StatusNotFound, "File not found")
		return
	}
	if sc == nil {
		fail(w, "Model not trained. Please train the model first.")
		return
	}

	result := sc.predict(ds)
	s.logger.Info("Scored file",
		"file", req.Filepath,
		"transactions", result.Statistics.TotalTransactions,
		"fraudulent", result.Statistics.FraudulentDetected)
	writeJSON(w, http.StatusOK, result)
}
