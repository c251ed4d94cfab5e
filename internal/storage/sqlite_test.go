package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	store, err := Open(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create a complete run.
func createTestRun(source string, total, fraudulent int) *model.Run {
	results := make([]model.TransactionPrediction, total)
	for i := range results {
		results[i] = model.TransactionPrediction{
			CustomerID:               uuid.NewString()[:8],
			Amount:                   float64(i+1) * 10.5,
			MerchantCategory:         "grocery",
			EnsembleFraudProbability: 0.1,
			RiskLevel:                model.RiskLow,
			IsFraudPredicted:         i < fraudulent,
		}
	}

	return &model.Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().Add(-time.Minute),
		SourceFile: source,
		Upload: model.UploadResult{
			Success:  true,
			Rows:     total,
			Columns:  []string{"amount", "merchant_category"},
			Filepath: "/srv/uploads/" + source,
		},
		Training: &model.TrainingStats{SamplesTrained: total, FraudRatio: 0.05, RFScore: 0.93, XGBScore: 0.95},
		Prediction: model.PredictionResult{
			Success: true,
			Results: results,
			Statistics: model.Statistics{
				TotalTransactions:  total,
				FraudulentDetected: fraudulent,
				ByRiskLevel:        map[string]int{"Low": total},
			},
		},
	}
}

func TestNewSQLiteStorage_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", store.Path(), dbPath)
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage("  "); err == nil {
		t.Fatal("NewSQLiteStorage() with empty path should fail")
	}
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	run := createTestRun("tx.csv", 3, 1)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	_ = store.Close()

	reopened, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.SourceFile != "tx.csv" {
		t.Errorf("SourceFile = %q, want tx.csv", got.SourceFile)
	}
}
