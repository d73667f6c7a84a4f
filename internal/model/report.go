package model

import "time"

// ContestReport carries everything one contest produced besides its table
// columns.
type ContestReport struct {
	Key         string
	Candidates  []CandidateVoteRecord
	BallotTypes []BallotTypeRecord
	Merged      []MergedDistrictRecord
	Dropped     DroppedStats
	// Unmatched counts districts that had votes but no boundary.
	Unmatched int
}

// Report is the complete output of one pipeline run.
type Report struct {
	Table           *DistrictTable
	Contests        []ContestReport
	Tracts          []DemographicRecord
	Counties        []CountyDemographics
	MissingCounties []string
	ExcludedUnits   int
}

// Contest returns the report for the contest key, if present.
func (r *Report) Contest(key string) (*ContestReport, bool) {
	for i := range r.Contests {
		if r.Contests[i].Key == key {
			return &r.Contests[i], true
		}
	}
	return nil, false
}

// RunInfo describes a stored pipeline run.
type RunInfo struct {
	CreatedAt time.Time
	ID        string
	Contests  []string
	Districts int
}
