package aggregate

import (
	"slices"

	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// AssemblyVotes is one assembly district's row in a county table. Votes are
// aligned with the table's Candidates.
type AssemblyVotes struct {
	Votes            []int
	AssemblyDistrict int
	Total            int
}

// CountyVoteTable pivots one county's candidate votes by assembly district.
type CountyVoteTable struct {
	County     string
	Candidates []string
	Rows       []AssemblyVotes
}

// CountyVoteTables returns one table per city county in fixed order. Rows are
// sorted by assembly district; missing candidates count 0.
func CountyVoteTables(c contest.Contest, records []model.CandidateVoteRecord) []CountyVoteTable {
	candidates := c.CanonicalRoster()
	column := make(map[string]int, len(candidates))
	for i, cand := range candidates {
		column[cand] = i
	}

	byCounty := make(map[string]map[int]*AssemblyVotes)
	for _, r := range records {
		col, ok := column[r.VoteChoice]
		if !ok {
			continue
		}
		rows, ok := byCounty[r.County]
		if !ok {
			rows = make(map[int]*AssemblyVotes)
			byCounty[r.County] = rows
		}
		row, ok := rows[r.AssemblyDistrict]
		if !ok {
			row = &AssemblyVotes{AssemblyDistrict: r.AssemblyDistrict, Votes: make([]int, len(candidates))}
			rows[r.AssemblyDistrict] = row
		}
		row.Votes[col] += r.VoteCount
		row.Total += r.VoteCount
	}

	tables := make([]CountyVoteTable, 0, len(model.Counties))
	for _, county := range model.Counties {
		table := CountyVoteTable{County: county, Candidates: candidates}
		for _, row := range byCounty[county] {
			table.Rows = append(table.Rows, *row)
		}
		slices.SortFunc(table.Rows, func(a, b AssemblyVotes) int {
			return a.AssemblyDistrict - b.AssemblyDistrict
		})
		tables = append(tables, table)
	}
	return tables
}
