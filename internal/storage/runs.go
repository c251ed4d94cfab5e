package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/model"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// SaveRun stores a run, replacing an earlier run with the same ID. A run
// without an ID is given a new one.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	upload, err := json.Marshal(run.Upload)
	if err != nil {
		return fmt.Errorf("failed to encode upload: %w", err)
	}
	prediction, err := json.Marshal(run.Prediction)
	if err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}
	var training sql.NullString
	if run.Training != nil {
		encoded, err := json.Marshal(run.Training)
		if err != nil {
			return fmt.Errorf("failed to encode training stats: %w", err)
		}
		training = sql.NullString{String: string(encoded), Valid: true}
	}

	stats := run.Prediction.Statistics
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, updated_at, source_file, service_filepath,
			upload, training, prediction,
			total_transactions, fraudulent_detected, anomalies_detected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			training = excluded.training,
			prediction = excluded.prediction,
			total_transactions = excluded.total_transactions,
			fraudulent_detected = excluded.fraudulent_detected,
			anomalies_detected = excluded.anomalies_detected`,
		run.ID, run.CreatedAt.UTC(), time.Now().UTC(), run.SourceFile, run.Upload.Filepath,
		string(upload), training, string(prediction),
		stats.TotalTransactions, stats.FraudulentDetected, stats.AnomaliesDetected,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads a full run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		run        model.Run
		upload     string
		training   sql.NullString
		prediction string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, source_file, upload, training, prediction
		FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.CreatedAt, &run.SourceFile, &upload, &training, &prediction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(upload), &run.Upload); err != nil {
		return nil, fmt.Errorf("failed to decode upload of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(prediction), &run.Prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction of run %s: %w", id, err)
	}
	if training.Valid {
		var stats model.TrainingStats
		if err := json.Unmarshal([]byte(training.String), &stats); err != nil {
			return nil, fmt.Errorf("failed to decode training stats of run %s: %w", id, err)
		}
		run.Training = &stats
	}

	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source_file, service_filepath,
			total_transactions, fraudulent_detected, anomalies_detected
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.SourceFile, &r.ServiceFilepath,
			&r.TotalTransactions, &r.FraudulentDetected, &r.AnomaliesDetected); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}
