package bivariate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

func share(v float64) model.Share { return model.ShareOf(v) }

func TestNineCategory(t *testing.T) {
	s := DefaultNine()
	tests := []struct {
		name string
		x, y model.Share
		want string
	}{
		{"high high", share(60), share(45), "High M / High T"},
		{"low low", share(10), share(5), "Low M / Low T"},
		{"med med", share(40), share(30), "Med M / Med T"},
		{"x at lower cut stays low", share(35), share(30), "Low M / Med T"},
		{"x just above lower cut", share(35.01), share(30), "Med M / Med T"},
		{"x at upper cut stays med", share(55), share(10), "Med M / Low T"},
		{"y at upper cut stays med", share(80), share(40), "High M / Med T"},
		{"x no data", model.NoData, share(90), "Low M / Low T"},
		{"y no data", share(90), model.NoData, "Low M / Low T"},
		{"zero", share(0), share(0), "Low M / Low T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(tt.x, tt.y))
		})
	}
}

func TestFourCategory(t *testing.T) {
	s := DefaultFour()
	assert.Equal(t, "High M / Low T", s.Classify(share(60), share(45)))
	assert.Equal(t, "Low M / Low T", s.Classify(share(50), share(50)))
	assert.Equal(t, "High M / High T", s.Classify(share(50.5), share(51)))
	assert.Equal(t, "Low M / Low T", s.Classify(model.NoData, share(51)))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{
		"Low M / Low T", "Low M / High T",
		"High M / Low T", "High M / High T",
	}, DefaultFour().Categories())

	nine := DefaultNine().Categories()
	require.Len(t, nine, 9)
	assert.Equal(t, "Low M / Low T", nine[0])
	assert.Equal(t, "Med M / High T", nine[5])
	assert.Equal(t, "High M / High T", nine[8])

	// Every classification result is a member of the declared set.
	s := DefaultNine()
	for _, x := range []float64{0, 20, 35, 40, 55, 90} {
		for _, y := range []float64{0, 20, 30, 40, 99} {
			assert.Contains(t, nine, s.Classify(share(x), share(y)))
		}
	}
}

func TestClassifyRowAndApply(t *testing.T) {
	table := &model.DistrictTable{Rows: []model.DistrictAnalyticRow{
		{
			ElectDist: 41001,
			Contests: map[string]model.ContestTally{
				"mayor":     {Shares: map[string]model.Share{"Zohran Mamdani": share(60)}},
				"president": {Shares: map[string]model.Share{"Trump": share(45)}},
			},
		},
		{ElectDist: 41002},
	}}

	DefaultNine().Apply(table)
	assert.Equal(t, "High M / High T", table.Rows[0].Category)
	assert.Equal(t, "Low M / Low T", table.Rows[1].Category)
}

func TestForKind(t *testing.T) {
	s, err := ForKind(Four, 40, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{40}, s.X.Cuts)
	assert.Equal(t, []float64{40}, s.Y.Cuts)

	s, err = ForKind(Nine, 0, []float64{30, 60}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 60}, s.X.Cuts)
	assert.Equal(t, []float64{20, 40}, s.Y.Cuts)

	s, err = ForKind("", 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Size())

	_, err = ForKind("sixteen", 0, nil, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = ForKind(Nine, 0, []float64{60, 30}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = ForKind(Nine, 0, []float64{30}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig, "axes must have matching bucket counts")
}

func TestNewSchemeCopiesCuts(t *testing.T) {
	cuts := []float64{35, 55}
	s, err := NewScheme(
		Axis{Abbrev: "M", Cuts: cuts},
		Axis{Abbrev: "T", Cuts: []float64{20, 40}},
	)
	require.NoError(t, err)
	cuts[0] = 99
	assert.Equal(t, "Med M / Low T", s.Classify(share(40), share(10)))
}
