package aggregate

import (
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// CandidateTotal is one candidate's votes and share of an area's total.
type CandidateTotal struct {
	Candidate string
	Votes     int
	Share     model.Share
}

// AreaSummary totals one area (the city or a borough).
type AreaSummary struct {
	Name       string
	Candidates []CandidateTotal
	Total      int
}

// ContestSummary holds citywide and per-borough totals for a contest.
type ContestSummary struct {
	Contest  string
	Title    string
	City     AreaSummary
	Boroughs []AreaSummary
}

// Summarize totals a contest citywide and per borough. Boroughs use display
// names and the fixed county order.
func Summarize(c contest.Contest, records []model.CandidateVoteRecord) ContestSummary {
	candidates := c.CanonicalRoster()

	city := make(map[string]int, len(candidates))
	boroughs := make(map[string]map[string]int, len(model.Counties))
	for _, r := range records {
		city[r.VoteChoice] += r.VoteCount
		b, ok := boroughs[r.County]
		if !ok {
			b = make(map[string]int, len(candidates))
			boroughs[r.County] = b
		}
		b[r.VoteChoice] += r.VoteCount
	}

	summary := ContestSummary{
		Contest: c.Key(),
		Title:   c.Title(),
		City:    area("New York City", candidates, city),
	}
	for _, county := range model.Counties {
		summary.Boroughs = append(summary.Boroughs, area(model.BoroughName(county), candidates, boroughs[county]))
	}
	return summary
}

func area(name string, candidates []string, votes map[string]int) AreaSummary {
	a := AreaSummary{Name: name}
	for _, cand := range candidates {
		a.Total += votes[cand]
	}
	for _, cand := range candidates {
		a.Candidates = append(a.Candidates, CandidateTotal{
			Candidate: cand,
			Votes:     votes[cand],
			Share:     model.Percent(votes[cand], a.Total),
		})
	}
	return a
}

// Leader returns the candidate with the most votes, or false when the area
// has no votes. Ties go to the earlier roster position.
func (a AreaSummary) Leader() (CandidateTotal, bool) {
	if a.Total == 0 {
		return CandidateTotal{}, false
	}
	best := a.Candidates[0]
	for _, c := range a.Candidates[1:] {
		if c.Votes > best.Votes {
			best = c
		}
	}
	return best, true
}
