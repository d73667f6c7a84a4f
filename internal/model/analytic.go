package model

import (
	"strings"

	"github.com/twpayne/go-geom"
)

// ContestTally is one district's pivoted result for one contest.
type ContestTally struct {
	Votes  map[string]int
	Shares map[string]Share
	Total  int
}

// DistrictAnalyticRow is the joined per-district record. Rows are built once
// per run and treated as read-only afterwards.
type DistrictAnalyticRow struct {
	Geometry     geom.T
	Contests     map[string]ContestTally // keyed by contest key; absent when the district has no votes
	Differences  map[string]Share
	Demographics *CountyDemographics // county-level values broadcast to every district in the county
	County       string
	Category     string
	ElectDist    ElectDist
}

// Share returns the share for candidate in contest, or NoData.
func (r *DistrictAnalyticRow) Share(contest, candidate string) Share {
	tally, ok := r.Contests[contest]
	if !ok {
		return NoData
	}
	share, ok := tally.Shares[candidate]
	if !ok {
		return NoData
	}
	return share
}

// ContestColumns describes the columns one contest contributes to a table.
type ContestColumns struct {
	Key        string
	Suffix     string
	Candidates []string // canonical names, column order
}

// DistrictTable is the analysis-ready output: one row per boundary district.
// Consumers must not assume contiguous ElectDist values.
type DistrictTable struct {
	Contests    []ContestColumns
	Differences []string
	Rows        []DistrictAnalyticRow
}

// Slug converts a candidate name to a column stem ("Zohran Mamdani" ->
// "zohran_mamdani").
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Scoped reports whether column names carry contest suffixes. Suffixes are
// applied whenever more than one contest is present.
func (t *DistrictTable) Scoped() bool {
	return len(t.Contests) > 1
}

func (t *DistrictTable) column(stem string, c ContestColumns) string {
	if !t.Scoped() {
		return stem
	}
	return stem + "_" + c.Suffix
}

// Header returns the flat column names in output order.
func (t *DistrictTable) Header() []string {
	header := []string{"ElectDist", "county"}
	for _, c := range t.Contests {
		for _, cand := range c.Candidates {
			header = append(header, t.column(Slug(cand), c))
		}
		header = append(header, t.column("total_votes", c))
		for _, cand := range c.Candidates {
			header = append(header, t.column(Slug(cand)+"_pct", c))
		}
	}
	header = append(header, t.Differences...)
	header = append(header, "bivariate_category",
		"median_income",
		"pct_less_than_hs", "pct_hs_only", "pct_some_college", "pct_associates", "pct_bachelors_plus",
		"pct_white", "pct_black", "pct_asian", "pct_hispanic", "pct_other",
		"majority_race")
	return header
}

// Values returns the flat cell values of row, aligned with Header. Missing
// values are nil.
func (t *DistrictTable) Values(row *DistrictAnalyticRow) []any {
	values := []any{int(row.ElectDist), nullable(row.County)}
	for _, c := range t.Contests {
		tally, ok := row.Contests[c.Key]
		for _, cand := range c.Candidates {
			if ok {
				values = append(values, tally.Votes[cand])
			} else {
				values = append(values, nil)
			}
		}
		if ok {
			values = append(values, tally.Total)
		} else {
			values = append(values, nil)
		}
		for _, cand := range c.Candidates {
			values = append(values, row.Share(c.Key, cand).Cell())
		}
	}
	for _, name := range t.Differences {
		diff, ok := row.Differences[name]
		if !ok {
			diff = NoData
		}
		values = append(values, diff.Cell())
	}
	values = append(values, nullable(row.Category))

	if d := row.Demographics; d != nil {
		var income any
		if d.HasMedianIncome {
			income = d.MedianIncome
		}
		e := d.Education
		values = append(values, income,
			e.LessThanHS, e.HSOnly, e.SomeCollege, e.Associates, e.BachelorsPlus,
			d.Race.White, d.Race.Black, d.Race.Asian, d.Race.Hispanic, d.Race.Other,
			d.MajorityRace)
	} else {
		values = append(values, make([]any, 12)...)
	}
	return values
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
