// Package storage keeps a local history of prediction runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun checks a run before it is stored.
func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID != "" {
		if _, err := uuid.Parse(run.ID); err != nil {
			return fmt.Errorf("%w: id %q is not a UUID", ErrInvalidRun, run.ID)
		}
	}
	if strings.TrimSpace(run.SourceFile) == "" {
		return fmt.Errorf("%w: source file is required", ErrInvalidRun)
	}
	if !run.Upload.Success {
		return fmt.Errorf("%w: upload was not successful", ErrInvalidRun)
	}
	if !run.Prediction.Success {
		return fmt.Errorf("%w: prediction was not successful", ErrInvalidRun)
	}
	return nil
}
