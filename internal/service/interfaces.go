// Package service defines the interfaces shared by the pipeline's outer
// surfaces: run storage and report writers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

// Storage persists pipeline runs for audit tooling.
type Storage interface {
	// SaveRun stores a complete report atomically and returns the run id.
	SaveRun(ctx context.Context, report *model.Report) (string, error)
	ListRuns(ctx context.Context) ([]model.RunInfo, error)
	// GetMergedDistricts returns the merged districts recorded for a run,
	// optionally limited to one contest key.
	GetMergedDistricts(ctx context.Context, runID, contest string) ([]model.MergedDistrictRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter writes a pipeline report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *model.Report) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
