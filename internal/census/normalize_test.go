package census

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

func surveyRow(county, tract string, values map[string]string) model.SurveyRow {
	return model.SurveyRow{
		Values:     values,
		County:     county,
		StateFIPS:  "36",
		CountyFIPS: "047",
		Tract:      tract,
	}
}

func TestSafeDivide(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(0, 0))
	assert.Equal(t, 5.0, SafeDivide(5, 0))
	assert.Equal(t, 0.25, SafeDivide(1, 4))
}

func TestCoerceCount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12", 12},
		{" 7 ", 7},
		{"3.5", 3.5},
		{"", 0},
		{"null", 0},
		{"N/A", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-666666666", 0},
		{"-1", 0},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceCount(tt.in))
		})
	}
}

func TestNormalizeExcludesEmptyUnits(t *testing.T) {
	dict := ACS5Dictionary()
	rows := []model.SurveyRow{
		surveyRow("Kings", "000100", map[string]string{"B03002_001E": "0"}),
		surveyRow("Kings", "000200", map[string]string{}),
		surveyRow("Kings", "000300", map[string]string{"B03002_001E": "abc"}),
		surveyRow("Kings", "000400", map[string]string{"B03002_001E": "-5"}),
		surveyRow("Kings", "000500", map[string]string{"B03002_001E": "10", "B03002_003E": "10"}),
	}

	records, excluded := Normalize(rows, dict)
	assert.Equal(t, 4, excluded)
	require.Len(t, records, 1)
	assert.Equal(t, "36047000500", records[0].GEOID)
	assert.InDelta(t, 100, records[0].Race.White, 1e-9)
}

func TestNormalizeShares(t *testing.T) {
	dict := ACS5Dictionary()
	values := map[string]string{
		"B03002_001E": "200",
		"B03002_003E": "50",
		"B03002_004E": "30",
		"B03002_006E": "70",
		"B03002_012E": "40",
		"B03002_005E": "4",
		"B03002_007E": "2",
		"B03002_008E": "",
		"B03002_009E": "4",
		"B15003_001E": "100",
		"B15003_002E": "5",
		"B15003_016E": "5",
		"B15003_017E": "20",
		"B15003_019E": "10",
		"B15003_020E": "5",
		"B15003_021E": "15",
		"B15003_022E": "25",
		"B15003_023E": "10",
		"B15003_025E": "5",
		"B19013_001E": "72000",
	}

	records, excluded := Normalize([]model.SurveyRow{surveyRow("Kings", "000100", values)}, dict)
	require.Zero(t, excluded)
	require.Len(t, records, 1)
	r := records[0]

	assert.InDelta(t, 25, r.Race.White, 1e-9)
	assert.InDelta(t, 15, r.Race.Black, 1e-9)
	assert.InDelta(t, 35, r.Race.Asian, 1e-9)
	assert.InDelta(t, 20, r.Race.Hispanic, 1e-9)
	assert.InDelta(t, 5, r.Race.Other, 1e-9)
	assert.Equal(t, "asian", r.MajorityRace)

	assert.InDelta(t, 10, r.Education.LessThanHS, 1e-9)
	assert.InDelta(t, 20, r.Education.HSOnly, 1e-9)
	assert.InDelta(t, 15, r.Education.SomeCollege, 1e-9)
	assert.InDelta(t, 15, r.Education.Associates, 1e-9)
	assert.InDelta(t, 40, r.Education.BachelorsPlus, 1e-9)

	assert.True(t, r.HasMedianIncome)
	assert.Equal(t, 72000.0, r.MedianIncome)
}

func TestNormalizeZeroDenominator(t *testing.T) {
	values := map[string]string{
		"B03002_001E": "10",
		"B03002_003E": "10",
		"B15003_001E": "0",
		"B15003_022E": "0",
	}
	records, _ := Normalize([]model.SurveyRow{surveyRow("Kings", "000100", values)}, ACS5Dictionary())
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].Education.BachelorsPlus)
}

func TestNormalizeMajorityTieGoesToFirstCategory(t *testing.T) {
	values := map[string]string{
		"B03002_001E": "100",
		"B03002_004E": "40",
		"B03002_012E": "40",
		"B03002_003E": "20",
	}
	records, _ := Normalize([]model.SurveyRow{surveyRow("Kings", "000100", values)}, ACS5Dictionary())
	require.Len(t, records, 1)
	assert.Equal(t, "black", records[0].MajorityRace)
}

func TestNormalizeMedianIncomeAnnotations(t *testing.T) {
	dict := ACS5Dictionary()
	rows := []model.SurveyRow{
		surveyRow("Kings", "000100", map[string]string{"B03002_001E": "1", "B19013_001E": "-666666666"}),
		surveyRow("Kings", "000200", map[string]string{"B03002_001E": "1", "B19013_001E": ""}),
		surveyRow("Kings", "000300", map[string]string{"B03002_001E": "1"}),
	}
	records, _ := Normalize(rows, dict)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.False(t, r.HasMedianIncome, r.GEOID)
		assert.Zero(t, r.MedianIncome)
	}
}

func TestNormalizeSuppressedCounts(t *testing.T) {
	values := map[string]string{
		"B03002_001E": "100",
		"B03002_003E": "-666666666",
		"B03002_004E": "30",
		"B03002_012E": "20",
		"B15003_001E": "-666666666",
		"B15003_022E": "5",
	}
	records, _ := Normalize([]model.SurveyRow{surveyRow("Kings", "000100", values)}, ACS5Dictionary())
	require.Len(t, records, 1)
	r := records[0]

	assert.Zero(t, r.Race.White)
	assert.InDelta(t, 30, r.Race.Black, 1e-9)
	assert.Equal(t, "black", r.MajorityRace)
	assert.Zero(t, r.Population25Plus)
	assert.Zero(t, r.Education.BachelorsPlus)
	for _, share := range []float64{r.Race.White, r.Race.Black, r.Race.Asian, r.Race.Hispanic, r.Race.Other,
		r.Education.LessThanHS, r.Education.HSOnly, r.Education.SomeCollege, r.Education.Associates, r.Education.BachelorsPlus} {
		assert.GreaterOrEqual(t, share, 0.0)
		assert.LessOrEqual(t, share, 100.0)
	}
}

func TestNormalizeOrdersByCounty(t *testing.T) {
	pop := map[string]string{"B03002_001E": "5"}
	rows := []model.SurveyRow{
		surveyRow("Richmond", "000200", pop),
		surveyRow("Kings", "000300", pop),
		surveyRow("New York", "000100", pop),
		surveyRow("Kings", "000100", pop),
	}
	records, _ := Normalize(rows, ACS5Dictionary())

	var got []string
	for _, r := range records {
		got = append(got, r.County+"/"+r.Tract)
	}
	assert.Equal(t, []string{"New York/000100", "Kings/000100", "Kings/000300", "Richmond/000200"}, got)
}

func TestAggregateByCounty(t *testing.T) {
	records := []model.DemographicRecord{
		{County: "Queens", MedianIncome: 50000, HasMedianIncome: true, Race: model.RaceShares{Asian: 60, White: 40}},
		{County: "Kings", MedianIncome: 30000, HasMedianIncome: true, Race: model.RaceShares{Black: 80, White: 20}},
		{County: "Kings", MedianIncome: 90000, HasMedianIncome: true, Race: model.RaceShares{White: 70, Black: 30}},
		{County: "Kings", MedianIncome: 60000, HasMedianIncome: true, Race: model.RaceShares{White: 30, Black: 70}},
		{County: "Kings", Race: model.RaceShares{White: 100}, Education: model.EducationShares{BachelorsPlus: 40}},
		{County: "Bronx", Race: model.RaceShares{Hispanic: 100}},
	}

	counties := AggregateByCounty(records)
	require.Len(t, counties, 3)
	assert.Equal(t, "Kings", counties[0].County)
	assert.Equal(t, "Queens", counties[1].County)
	assert.Equal(t, "Bronx", counties[2].County)

	kings := counties[0]
	assert.Equal(t, 4, kings.Tracts)
	assert.True(t, kings.HasMedianIncome)
	assert.Equal(t, 60000.0, kings.MedianIncome, "median over tracts with income only")
	assert.InDelta(t, 55, kings.Race.White, 1e-9)
	assert.InDelta(t, 45, kings.Race.Black, 1e-9)
	assert.InDelta(t, 10, kings.Education.BachelorsPlus, 1e-9)
	assert.Equal(t, "white", kings.MajorityRace)

	assert.Equal(t, 50000.0, counties[1].MedianIncome)
	assert.False(t, counties[2].HasMedianIncome)
	assert.Equal(t, "hispanic", counties[2].MajorityRace)
}

func TestMedianEven(t *testing.T) {
	assert.Equal(t, 25.0, median([]float64{40, 10, 30, 20}))
	assert.Equal(t, 7.0, median([]float64{7}))
}

func TestDictionaryCodesAreUnique(t *testing.T) {
	codes := ACS5Dictionary().Codes()
	seen := make(map[string]bool)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
	assert.Contains(t, codes, "B19013_001E")
	assert.Contains(t, codes, "B15003_025E")
	assert.Len(t, codes, 35)
}
