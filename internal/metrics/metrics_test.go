package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Table: &model.DistrictTable{Rows: make([]model.DistrictAnalyticRow, 3)},
		Contests: []model.ContestReport{
			{
				Key:         "mayor",
				Candidates:  make([]model.CandidateVoteRecord, 5),
				BallotTypes: make([]model.BallotTypeRecord, 2),
				Merged:      make([]model.MergedDistrictRecord, 1),
				Dropped:     model.DroppedStats{Rows: 4, Votes: 17},
				Unmatched:   2,
			},
		},
		MissingCounties: []string{"Bronx"},
		ExcludedUnits:   6,
	}
}

func TestRecord(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.Record(sampleReport())

	assert.Equal(t, 5.0, testutil.ToFloat64(m.TallyRows.WithLabelValues("mayor", OutcomeCandidate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TallyRows.WithLabelValues("mayor", OutcomeBallotType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TallyRows.WithLabelValues("mayor", OutcomeMerged)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TallyRows.WithLabelValues("mayor", OutcomeDropped)))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.DroppedVotes.WithLabelValues("mayor")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DistrictsWithoutBoundary.WithLabelValues("mayor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CountiesMissing))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.UnitsExcluded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DistrictsBuilt))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	a.Record(sampleReport())
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UnitsExcluded))
}

func TestWriteTextfile(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.Record(sampleReport())

	path := filepath.Join(t.TempDir(), "atlas.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `atlas_tally_rows_total{contest="mayor",outcome="dropped"} 4`)
	assert.Contains(t, text, "atlas_census_counties_missing 1")
	assert.True(t, strings.Contains(text, "# HELP atlas_districts_built"))
}
