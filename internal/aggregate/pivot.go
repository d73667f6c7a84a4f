// Package aggregate pivots candidate votes into per-district tables and joins
// them with boundaries and county demographics.
package aggregate

import (
	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// Pivot is one contest's candidate votes pivoted to one row per district.
type Pivot struct {
	Tallies    map[model.ElectDist]model.ContestTally
	Counties   map[model.ElectDist]string
	Candidates []string
}

// NewPivot pivots candidate records into per-district tallies. Columns follow
// the contest's canonical roster; a candidate absent from a district counts 0.
// Each district must belong to exactly one county.
func NewPivot(c contest.Contest, records []model.CandidateVoteRecord) (*Pivot, error) {
	p := &Pivot{
		Tallies:    make(map[model.ElectDist]model.ContestTally),
		Counties:   make(map[model.ElectDist]string),
		Candidates: c.CanonicalRoster(),
	}

	for _, r := range records {
		if err := assignCounty(p.Counties, r.ElectDist, r.County); err != nil {
			return nil, err
		}
		tally, ok := p.Tallies[r.ElectDist]
		if !ok {
			tally = model.ContestTally{Votes: make(map[string]int, len(p.Candidates))}
			for _, cand := range p.Candidates {
				tally.Votes[cand] = 0
			}
		}
		if _, known := tally.Votes[r.VoteChoice]; !known {
			return nil, common.FormatErrorf("aggregate", "vote_choice",
				"%q is not a %s candidate", r.VoteChoice, c.Key())
		}
		tally.Votes[r.VoteChoice] += r.VoteCount
		tally.Total += r.VoteCount
		p.Tallies[r.ElectDist] = tally
	}

	for ed, tally := range p.Tallies {
		tally.Shares = Shares(tally.Votes, tally.Total)
		p.Tallies[ed] = tally
	}
	return p, nil
}

// Shares converts votes to percentages of total rounded to 2 decimals. A zero
// total yields no data for every candidate.
func Shares(votes map[string]int, total int) map[string]model.Share {
	shares := make(map[string]model.Share, len(votes))
	for cand, v := range votes {
		shares[cand] = model.Percent(v, total)
	}
	return shares
}

func assignCounty(counties map[model.ElectDist]string, ed model.ElectDist, county string) error {
	existing, ok := counties[ed]
	if !ok {
		counties[ed] = county
		return nil
	}
	if existing != county {
		return common.FormatErrorf("aggregate", "county",
			"district %s reported in both %s and %s", ed, existing, county)
	}
	return nil
}
