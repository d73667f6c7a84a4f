package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/testutil/fixtures"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSaveRunRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	fixed := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	report := fixtures.Report(t)
	runID, err := store.SaveRun(ctx, report)
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mayor", "president"}, run.Contests)
	assert.Equal(t, len(report.Table.Rows), run.Districts)
	assert.True(t, fixed.Equal(run.CreatedAt))

	total, err := store.CountVotes(ctx, runID, "mayor")
	require.NoError(t, err)
	mayor, _ := report.Contest("mayor")
	want := 0
	for _, r := range mayor.Candidates {
		want += r.VoteCount
	}
	assert.Equal(t, want, total)
}

func TestGetMergedDistricts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, fixtures.Report(t))
	require.NoError(t, err)

	merged, err := store.GetMergedDistricts(ctx, runID, "mayor")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, fixtures.Brooklyn41002, merged[0].SourceElectDist())
	assert.Equal(t, fixtures.Brooklyn41001, merged[0].ReportedElectDist())
	assert.Equal(t, "COMBINED INTO 01/41", merged[0].Note)

	merged, err = store.GetMergedDistricts(ctx, runID, "president")
	require.NoError(t, err)
	assert.Empty(t, merged)

	all, err := store.GetMergedDistricts(ctx, runID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.GetMergedDistricts(ctx, "no-such-run", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetDistrictRow(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, fixtures.Report(t))
	require.NoError(t, err)

	row, err := store.GetDistrictRow(ctx, runID, fixtures.Manhattan65012)
	require.NoError(t, err)
	assert.Equal(t, 65012.0, row["ElectDist"])
	assert.Equal(t, "New York", row["county"])
	assert.Equal(t, 60.0, row["zohran_mamdani_pct_mayor"])
	assert.Equal(t, "High M / Low T", row["bivariate_category"])

	empty, err := store.GetDistrictRow(ctx, runID, fixtures.Brooklyn41002)
	require.NoError(t, err)
	assert.Nil(t, empty["zohran_mamdani_pct_mayor"], "no data is stored as null")

	_, err = store.GetDistrictRow(ctx, runID, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	base := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		id, err := store.SaveRun(ctx, fixtures.Report(t))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err = store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[0], runs[2].ID)
}

func TestSaveRunValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name    string
		report  *model.Report
		wantErr error
	}{
		{"nil report", nil, ErrNilParameter},
		{"no table", &model.Report{Contests: []model.ContestReport{{Key: "mayor"}}}, ErrInvalidRun},
		{"no contests", &model.Report{Table: &model.DistrictTable{}}, ErrInvalidRun},
		{
			"duplicate contest",
			&model.Report{Table: &model.DistrictTable{}, Contests: []model.ContestReport{{Key: "mayor"}, {Key: "mayor"}}},
			ErrInvalidRun,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SaveRun(ctx, tt.report)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveRunIsAtomic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	report := fixtures.Report(t)
	mayor, _ := report.Contest("mayor")
	// A repeated candidate row violates the district_votes primary key.
	mayor.Candidates = append(mayor.Candidates, mayor.Candidates[0])

	_, err := store.SaveRun(ctx, report)
	require.Error(t, err)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
