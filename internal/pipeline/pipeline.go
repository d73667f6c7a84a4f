// Package pipeline runs the batch reconciliation: normalize each contest,
// load demographics, join everything onto district boundaries and classify.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/precinct-atlas/internal/aggregate"
	"github.com/Veraticus/precinct-atlas/internal/bivariate"
	"github.com/Veraticus/precinct-atlas/internal/census"
	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/geo"
	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/tally"
)

// DemographicSource loads county-level demographics.
type DemographicSource interface {
	Load(ctx context.Context) (*census.Result, error)
}

// Recorder observes completed runs.
type Recorder interface {
	Record(report *model.Report)
}

// TallyInput is one contest's raw export.
type TallyInput struct {
	Contest string
	Records []model.RawTallyRecord
}

// Input configures a run. Demographics, Scheme and Recorder are optional.
type Input struct {
	Registry     *contest.Registry
	Boundaries   *geo.Collection
	Demographics DemographicSource
	Scheme       *bivariate.Scheme
	Recorder     Recorder
	Tallies      []TallyInput
	Differences  []aggregate.DifferenceSpec
}

// Run executes every stage in order and returns the complete report. Any
// fatal error aborts the run without partial output.
func Run(ctx context.Context, in Input) (*model.Report, error) {
	registry := in.Registry
	if registry == nil {
		registry = contest.DefaultRegistry()
	}
	if len(in.Tallies) == 0 {
		return nil, fmt.Errorf("%w: no tally inputs", common.ErrMissingConfig)
	}

	// Resolve every contest before touching any record.
	contests := make([]contest.Contest, len(in.Tallies))
	for i, t := range in.Tallies {
		c, err := registry.Lookup(t.Contest)
		if err != nil {
			return nil, err
		}
		contests[i] = c
	}

	report := &model.Report{}
	joinInput := aggregate.Input{
		Boundaries:  in.Boundaries,
		Differences: in.Differences,
	}

	for i, t := range in.Tallies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := tally.Normalize(t.Records, contests[i])
		if err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", contests[i].Key(), err)
		}
		report.Contests = append(report.Contests, model.ContestReport{
			Key:         contests[i].Key(),
			Candidates:  result.Candidates,
			BallotTypes: result.BallotTypes,
			Merged:      result.Merged,
			Dropped:     result.Dropped,
		})
		joinInput.Contests = append(joinInput.Contests, aggregate.ContestInput{
			Contest:    contests[i],
			Candidates: result.Candidates,
		})
	}

	if in.Demographics != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		demo, err := in.Demographics.Load(ctx)
		if err != nil {
			return nil, err
		}
		report.Tracts = demo.Tracts
		report.Counties = demo.Counties
		report.MissingCounties = demo.Missing
		report.ExcludedUnits = demo.Excluded
		joinInput.Counties = demo.Counties
	} else {
		slog.Info("No demographic source configured; districts carry no demographics")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	joined, err := aggregate.Build(joinInput)
	if err != nil {
		return nil, err
	}
	report.Table = joined.Table
	for i := range report.Contests {
		report.Contests[i].Unmatched = joined.Unmatched[report.Contests[i].Key]
	}

	if in.Scheme != nil {
		in.Scheme.Apply(report.Table)
	}

	if in.Recorder != nil {
		in.Recorder.Record(report)
	}

	slog.Info("Pipeline complete",
		"contests", len(report.Contests),
		"districts", len(report.Table.Rows),
		"missing_counties", len(report.MissingCounties))
	return report, nil
}
