package aggregate

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/geo"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// ContestInput is one normalized contest.
type ContestInput struct {
	Candidates []model.CandidateVoteRecord
	Contest    contest.Contest
}

// Input holds everything the join needs. Counties may be empty, in which case
// rows carry no demographics.
type Input struct {
	Boundaries  *geo.Collection
	Contests    []ContestInput
	Counties    []model.CountyDemographics
	Differences []DifferenceSpec
}

// Output is the joined table plus per-contest counts of districts that had
// votes but no boundary.
type Output struct {
	Table     *model.DistrictTable
	Unmatched map[string]int
}

// Build produces one row per boundary district, in boundary order. Votes for
// districts without a boundary are dropped and counted; boundary districts
// without votes keep no-data values.
func Build(in Input) (*Output, error) {
	if in.Boundaries == nil {
		return nil, fmt.Errorf("%w: no boundary collection", common.ErrMissingConfig)
	}
	if len(in.Contests) == 0 {
		return nil, fmt.Errorf("%w: no contests to aggregate", common.ErrMissingConfig)
	}

	pivots := make(map[string]*Pivot, len(in.Contests))
	counties := make(map[model.ElectDist]string)
	table := &model.DistrictTable{}

	for _, ci := range in.Contests {
		key := ci.Contest.Key()
		if _, dup := pivots[key]; dup {
			return nil, fmt.Errorf("%w: contest %s given twice", common.ErrInvalidConfig, key)
		}
		p, err := NewPivot(ci.Contest, ci.Candidates)
		if err != nil {
			return nil, err
		}
		for ed, county := range p.Counties {
			if err := assignCounty(counties, ed, county); err != nil {
				return nil, err
			}
		}
		pivots[key] = p
		table.Contests = append(table.Contests, model.ContestColumns{
			Key:        key,
			Suffix:     ci.Contest.Suffix(),
			Candidates: p.Candidates,
		})
	}

	specs, err := applicable(in.Differences, pivots)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		table.Differences = append(table.Differences, spec.Name)
	}

	demographics := make(map[string]*model.CountyDemographics, len(in.Counties))
	for i := range in.Counties {
		demographics[in.Counties[i].County] = &in.Counties[i]
	}

	table.Rows = make([]model.DistrictAnalyticRow, 0, in.Boundaries.Len())
	for _, b := range in.Boundaries.Boundaries {
		row := model.DistrictAnalyticRow{
			ElectDist: b.ElectDist,
			Geometry:  b.Geometry,
			County:    counties[b.ElectDist],
			Contests:  make(map[string]model.ContestTally, len(pivots)),
		}
		for key, p := range pivots {
			if tally, ok := p.Tallies[b.ElectDist]; ok {
				row.Contests[key] = tally
			}
		}
		if row.County != "" {
			row.Demographics = demographics[row.County]
		}
		row.Differences = differences(&row, specs)
		table.Rows = append(table.Rows, row)
	}

	out := &Output{Table: table, Unmatched: make(map[string]int, len(pivots))}
	for key, p := range pivots {
		unmatched := 0
		for ed := range p.Tallies {
			if _, ok := in.Boundaries.Lookup(ed); !ok {
				unmatched++
			}
		}
		out.Unmatched[key] = unmatched
		if unmatched > 0 {
			slog.Warn("Dropped districts without a boundary",
				"contest", key,
				"districts", unmatched)
		}
	}

	slog.Info("Built district table",
		"districts", len(table.Rows),
		"contests", len(table.Contests),
		"differences", len(table.Differences))
	return out, nil
}
