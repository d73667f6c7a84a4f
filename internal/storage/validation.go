// Package storage persists pipeline runs in SQLite for audit tooling.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/model"
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

// validateReport checks that a report can be stored.
func validateReport(report *model.Report) error {
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if report.Table == nil {
		return fmt.Errorf("%w: report has no district table", ErrInvalidRun)
	}
	if len(report.Contests) == 0 {
		return fmt.Errorf("%w: report has no contests", ErrInvalidRun)
	}
	seen := make(map[string]bool, len(report.Contests))
	for _, c := range report.Contests {
		if strings.TrimSpace(c.Key) == "" {
			return fmt.Errorf("%w: contest with empty key", ErrInvalidRun)
		}
		if seen[c.Key] {
			return fmt.Errorf("%w: contest %s appears twice", ErrInvalidRun, c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}
