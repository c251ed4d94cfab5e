package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/finfraudx/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test", wantErr: false},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: " \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		mutate  func(*model.Run)
		name    string
		wantErr bool
	}{
		{
			name:    "complete run",
			mutate:  func(*model.Run) {},
			wantErr: false,
		},
		{
			name:    "empty id is allowed",
			mutate:  func(r *model.Run) { r.ID = "" },
			wantErr: false,
		},
		{
			name:    "non uuid id",
			mutate:  func(r *model.Run) { r.ID = "run-1" },
			wantErr: true,
		},
		{
			name:    "missing source",
			mutate:  func(r *model.Run) { r.SourceFile = " " },
			wantErr: true,
		},
		{
			name:    "failed upload",
			mutate:  func(r *model.Run) { r.Upload.Success = false },
			wantErr: true,
		},
		{
			name:    "failed prediction",
			mutate:  func(r *model.Run) { r.Prediction.Success = false },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := createTestRun("tx.csv", 2, 0)
			tt.mutate(run)
			err := validateRun(run)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRun() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := validateRun(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("validateRun(nil) error = %v, want ErrNilParameter", err)
	}
}
