package fixtures

import (
	"testing"

	"github.com/Veraticus/precinct-atlas/internal/aggregate"
	"github.com/Veraticus/precinct-atlas/internal/bivariate"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/tally"
)

// Report builds the report of the sample mayoral and presidential exports
// joined with Boundaries and Counties and classified with the nine-category
// scheme.
func Report(tb testing.TB) *model.Report {
	tb.Helper()
	registry := contest.DefaultRegistry()

	report := &model.Report{
		Counties:        Counties(),
		MissingCounties: []string{"Queens", "Bronx", "Richmond"},
		ExcludedUnits:   2,
	}
	join := aggregate.Input{
		Boundaries:  Boundaries(tb),
		Counties:    report.Counties,
		Differences: aggregate.DefaultDifferences(),
	}

	for _, input := range []struct {
		key     string
		records []model.RawTallyRecord
	}{
		{"mayor", MayorTally().Records()},
		{"president", PresidentTally().Records()},
	} {
		c, err := registry.Lookup(input.key)
		if err != nil {
			tb.Fatalf("lookup %s: %v", input.key, err)
		}
		result, err := tally.Normalize(input.records, c)
		if err != nil {
			tb.Fatalf("normalize %s: %v", input.key, err)
		}
		report.Contests = append(report.Contests, model.ContestReport{
			Key:         input.key,
			Candidates:  result.Candidates,
			BallotTypes: result.BallotTypes,
			Merged:      result.Merged,
			Dropped:     result.Dropped,
		})
		join.Contests = append(join.Contests, aggregate.ContestInput{Contest: c, Candidates: result.Candidates})
	}

	out, err := aggregate.Build(join)
	if err != nil {
		tb.Fatalf("build: %v", err)
	}
	report.Table = out.Table
	for i := range report.Contests {
		report.Contests[i].Unmatched = out.Unmatched[report.Contests[i].Key]
	}
	bivariate.DefaultNine().Apply(report.Table)
	return report
}
