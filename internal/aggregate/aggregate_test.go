package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/geo"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

func vote(county string, ed model.ElectDist, choice string, count int) model.CandidateVoteRecord {
	return model.CandidateVoteRecord{
		County:           county,
		VoteChoice:       choice,
		ElectDist:        ed,
		AssemblyDistrict: ed.AssemblyDistrict(),
		ElectionDistrict: ed.ElectionDistrict(),
		VoteCount:        count,
	}
}

func square() geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 0}, []int{8})
}

func boundaries(t *testing.T, eds ...model.ElectDist) *geo.Collection {
	t.Helper()
	bs := make([]geo.Boundary, 0, len(eds))
	for _, ed := range eds {
		bs = append(bs, geo.Boundary{ElectDist: ed, Geometry: square()})
	}
	c, err := geo.NewCollection(bs, geo.WGS84)
	require.NoError(t, err)
	return c
}

func lookup(t *testing.T, key string) contest.Contest {
	t.Helper()
	c, err := contest.DefaultRegistry().Lookup(key)
	require.NoError(t, err)
	return c
}

func TestNewPivot(t *testing.T) {
	mayor := lookup(t, "mayor")
	p, err := NewPivot(mayor, []model.CandidateVoteRecord{
		vote("New York", 65012, "Zohran Mamdani", 60),
		vote("New York", 65012, "Andrew Cuomo", 30),
		vote("New York", 65012, "Curtis Sliwa", 10),
		vote("New York", 65013, "Scattered", 0),
	})
	require.NoError(t, err)

	assert.Equal(t, mayor.CanonicalRoster(), p.Candidates)

	tally := p.Tallies[65012]
	assert.Equal(t, 100, tally.Total)
	assert.Equal(t, 60, tally.Votes["Zohran Mamdani"])
	assert.Equal(t, 0, tally.Votes["Eric Adams"], "absent candidates count zero")
	assert.Len(t, tally.Votes, len(p.Candidates))
	assert.Equal(t, model.ShareOf(60), tally.Shares["Zohran Mamdani"])
	assert.Equal(t, model.ShareOf(0), tally.Shares["Eric Adams"])

	empty := p.Tallies[65013]
	assert.Equal(t, 0, empty.Total)
	for cand, share := range empty.Shares {
		assert.False(t, share.Valid, cand)
	}
	assert.Equal(t, "New York", p.Counties[65012])
}

func TestNewPivotRounding(t *testing.T) {
	p, err := NewPivot(lookup(t, "president"), []model.CandidateVoteRecord{
		vote("Kings", 41001, "Harris", 2),
		vote("Kings", 41001, "Trump", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShareOf(66.67), p.Tallies[41001].Shares["Harris"])
	assert.Equal(t, model.ShareOf(33.33), p.Tallies[41001].Shares["Trump"])
}

func TestNewPivotCountyConflict(t *testing.T) {
	_, err := NewPivot(lookup(t, "mayor"), []model.CandidateVoteRecord{
		vote("Kings", 41001, "Zohran Mamdani", 2),
		vote("Queens", 41001, "Andrew Cuomo", 1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestNewPivotUnknownCandidate(t *testing.T) {
	_, err := NewPivot(lookup(t, "mayor"), []model.CandidateVoteRecord{
		vote("Kings", 41001, "Trump", 2),
	})
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestBuildSingleContest(t *testing.T) {
	kings := model.CountyDemographics{
		County: "Kings", MajorityRace: "white", MedianIncome: 74000, HasMedianIncome: true,
		Education: model.EducationShares{LessThanHS: 12, HSOnly: 23, SomeCollege: 15, Associates: 7, BachelorsPlus: 43},
	}

	out, err := Build(Input{
		Boundaries: boundaries(t, 41001, 41002, 23001),
		Contests: []ContestInput{{
			Contest: lookup(t, "mayor"),
			Candidates: []model.CandidateVoteRecord{
				vote("Kings", 41001, "Zohran Mamdani", 75),
				vote("Kings", 41001, "Andrew Cuomo", 25),
				vote("Kings", 41002, "Zohran Mamdani", 0),
				vote("Kings", 99001, "Zohran Mamdani", 10),
			},
		}},
		Counties:    []model.CountyDemographics{kings},
		Differences: DefaultDifferences(),
	})
	require.NoError(t, err)

	table := out.Table
	assert.False(t, table.Scoped())
	assert.Equal(t, []string{"mayor_diff"}, table.Differences)
	assert.Equal(t, map[string]int{"mayor": 1}, out.Unmatched)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, []model.ElectDist{23001, 41001, 41002}, []model.ElectDist{
		table.Rows[0].ElectDist, table.Rows[1].ElectDist, table.Rows[2].ElectDist,
	})

	noVotes := table.Rows[0]
	assert.Empty(t, noVotes.Contests)
	assert.Empty(t, noVotes.County)
	assert.Nil(t, noVotes.Demographics)
	assert.Equal(t, model.NoData, noVotes.Differences["mayor_diff"])
	assert.NotNil(t, noVotes.Geometry)

	row := table.Rows[1]
	assert.Equal(t, "Kings", row.County)
	assert.Equal(t, model.ShareOf(75), row.Share("mayor", "Zohran Mamdani"))
	assert.Equal(t, model.ShareOf(50), row.Differences["mayor_diff"])
	require.NotNil(t, row.Demographics)
	assert.Equal(t, 74000.0, row.Demographics.MedianIncome)

	zero := table.Rows[2]
	assert.Equal(t, 0, zero.Contests["mayor"].Total)
	assert.Equal(t, model.NoData, zero.Share("mayor", "Zohran Mamdani"))
	assert.Equal(t, model.NoData, zero.Differences["mayor_diff"])
	assert.Same(t, row.Demographics, zero.Demographics, "county values are broadcast")

	header := table.Header()
	values := table.Values(&row)
	require.Len(t, values, len(header))
	education := map[string]any{
		"pct_less_than_hs": 12.0, "pct_hs_only": 23.0, "pct_some_college": 15.0,
		"pct_associates": 7.0, "pct_bachelors_plus": 43.0,
	}
	for i, h := range header {
		if want, ok := education[h]; ok {
			assert.Equal(t, want, values[i], h)
			delete(education, h)
		}
	}
	assert.Empty(t, education, "every education share is a column")
	assert.Len(t, table.Values(&noVotes), len(header))
}

func TestBuildMultiContest(t *testing.T) {
	out, err := Build(Input{
		Boundaries: boundaries(t, 41001),
		Contests: []ContestInput{
			{
				Contest: lookup(t, "mayor"),
				Candidates: []model.CandidateVoteRecord{
					vote("Kings", 41001, "Zohran Mamdani", 60),
					vote("Kings", 41001, "Andrew Cuomo", 40),
				},
			},
			{
				Contest: lookup(t, "president"),
				Candidates: []model.CandidateVoteRecord{
					vote("Kings", 41001, "Harris", 75),
					vote("Kings", 41001, "Trump", 25),
				},
			},
		},
		Differences: DefaultDifferences(),
	})
	require.NoError(t, err)

	table := out.Table
	assert.True(t, table.Scoped())
	assert.Equal(t, []string{"vote_diff", "mayor_diff", "pres_diff"}, table.Differences)

	row := table.Rows[0]
	assert.Equal(t, model.ShareOf(35), row.Differences["vote_diff"])
	assert.Equal(t, model.ShareOf(20), row.Differences["mayor_diff"])
	assert.Equal(t, model.ShareOf(50), row.Differences["pres_diff"])

	header := table.Header()
	assert.Contains(t, header, "zohran_mamdani_mayor")
	assert.Contains(t, header, "zohran_mamdani_pct_mayor")
	assert.Contains(t, header, "total_votes_pres")
	assert.Contains(t, header, "trump_pct_pres")
	assert.Contains(t, header, "vote_diff")

	values := table.Values(&row)
	require.Len(t, values, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	assert.Equal(t, 41001, values[index["ElectDist"]])
	assert.Equal(t, 100, values[index["total_votes_mayor"]])
	assert.Equal(t, 25.0, values[index["trump_pct_pres"]])
	assert.Nil(t, values[index["median_income"]])
}

func TestBuildCountyConflictAcrossContests(t *testing.T) {
	_, err := Build(Input{
		Boundaries: boundaries(t, 41001),
		Contests: []ContestInput{
			{Contest: lookup(t, "mayor"), Candidates: []model.CandidateVoteRecord{vote("Kings", 41001, "Zohran Mamdani", 1)}},
			{Contest: lookup(t, "president"), Candidates: []model.CandidateVoteRecord{vote("Queens", 41001, "Trump", 1)}},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestBuildInvalidDifference(t *testing.T) {
	_, err := Build(Input{
		Boundaries: boundaries(t, 41001),
		Contests:   []ContestInput{{Contest: lookup(t, "mayor")}},
		Differences: []DifferenceSpec{{
			Name:  "bad",
			Left:  ShareRef{Contest: "mayor", Candidate: "Nobody"},
			Right: ShareRef{Contest: "mayor", Candidate: "Andrew Cuomo"},
		}},
	})
	require.Error(t, err)
	assert.True(t, common.IsConfigError(err))
}

func TestBuildRequiresInputs(t *testing.T) {
	_, err := Build(Input{Contests: []ContestInput{{Contest: lookup(t, "mayor")}}})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = Build(Input{Boundaries: boundaries(t, 1001)})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	mayor := lookup(t, "mayor")
	_, err = Build(Input{
		Boundaries: boundaries(t, 1001),
		Contests:   []ContestInput{{Contest: mayor}, {Contest: mayor}},
	})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestCountyVoteTables(t *testing.T) {
	mayor := lookup(t, "mayor")
	tables := CountyVoteTables(mayor, []model.CandidateVoteRecord{
		vote("Kings", 52001, "Zohran Mamdani", 5),
		vote("Kings", 41001, "Zohran Mamdani", 3),
		vote("Kings", 41002, "Andrew Cuomo", 4),
		vote("Bronx", 80001, "Eric Adams", 2),
	})

	require.Len(t, tables, 5)
	for i, county := range model.Counties {
		assert.Equal(t, county, tables[i].County)
	}

	kings := tables[1]
	require.Len(t, kings.Rows, 2)
	assert.Equal(t, 41, kings.Rows[0].AssemblyDistrict)
	assert.Equal(t, 7, kings.Rows[0].Total)
	assert.Equal(t, 52, kings.Rows[1].AssemblyDistrict)

	mamdani := 6 // Zohran Mamdani's column in the canonical roster
	assert.Equal(t, "Zohran Mamdani", kings.Candidates[mamdani])
	assert.Equal(t, 3, kings.Rows[0].Votes[mamdani])
	assert.Equal(t, 4, kings.Rows[0].Votes[0])

	assert.Empty(t, tables[0].Rows)
	assert.Len(t, tables[3].Rows, 1)
}

func TestSummarize(t *testing.T) {
	s := Summarize(lookup(t, "president"), []model.CandidateVoteRecord{
		vote("Kings", 41001, "Harris", 300),
		vote("Kings", 41001, "Trump", 100),
		vote("Richmond", 62001, "Trump", 200),
		vote("Richmond", 62001, "Harris", 100),
		vote("Richmond", 62001, "Scattered", 100),
	})

	assert.Equal(t, "president", s.Contest)
	assert.Equal(t, 800, s.City.Total)
	assert.Equal(t, "Harris", s.City.Candidates[1].Candidate)
	assert.Equal(t, model.ShareOf(50), s.City.Candidates[1].Share)

	leader, ok := s.City.Leader()
	require.True(t, ok)
	assert.Equal(t, "Harris", leader.Candidate)

	require.Len(t, s.Boroughs, 5)
	assert.Equal(t, "Manhattan", s.Boroughs[0].Name)
	assert.Equal(t, "Brooklyn", s.Boroughs[1].Name)
	assert.Equal(t, "Staten Island", s.Boroughs[4].Name)
	assert.Equal(t, 400, s.Boroughs[4].Total)

	_, ok = s.Boroughs[0].Leader()
	assert.False(t, ok)
	assert.Equal(t, model.NoData, s.Boroughs[0].Candidates[0].Share)
}
