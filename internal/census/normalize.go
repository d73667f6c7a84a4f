package census

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

// SafeDivide divides num by den, replacing a zero denominator with 1 so that
// empty units yield 0% rather than NaN.
func SafeDivide(num, den float64) float64 {
	if den == 0 {
		den = 1
	}
	return num / den
}

// CoerceCount parses a survey count. Absent or unparseable values,
// non-finite numbers and negative values become 0. The API uses large
// negative annotation values for suppressed estimates.
func CoerceCount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Normalize converts raw survey rows into demographic records. Units whose
// total population is missing, unparseable or not positive are excluded; the
// number excluded is returned. Output is ordered by county then GEOID.
func Normalize(rows []model.SurveyRow, dict Dictionary) ([]model.DemographicRecord, int) {
	records := make([]model.DemographicRecord, 0, len(rows))
	excluded := 0

	for _, row := range rows {
		total, err := strconv.ParseFloat(strings.TrimSpace(row.Values[dict.TotalPopulation]), 64)
		if err != nil || math.IsNaN(total) || total <= 0 {
			excluded++
			continue
		}
		records = append(records, normalizeRow(row, total, dict))
	}

	slices.SortStableFunc(records, func(a, b model.DemographicRecord) int {
		if c := cmp.Compare(countyRank(a.County), countyRank(b.County)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.County, b.County); c != 0 {
			return c
		}
		return cmp.Compare(a.GEOID, b.GEOID)
	})

	if excluded > 0 {
		slog.Info("Excluded survey units without population",
			"excluded", excluded,
			"kept", len(records))
	}
	return records, excluded
}

func normalizeRow(row model.SurveyRow, total float64, dict Dictionary) model.DemographicRecord {
	sum := func(codes []string) float64 {
		var s float64
		for _, code := range codes {
			s += CoerceCount(row.Values[code])
		}
		return s
	}
	// A suppressed denominator coerces to 0; its shares are 0 rather than
	// the raw constituent counts.
	pct := func(codes []string, den float64) float64 {
		if den == 0 {
			return 0
		}
		return SafeDivide(sum(codes), den) * 100
	}

	pop25 := CoerceCount(row.Values[dict.Population25Plus])

	rec := model.DemographicRecord{
		GEOID:            row.GEOID(),
		County:           row.County,
		Name:             row.Name,
		StateFIPS:        row.StateFIPS,
		CountyFIPS:       row.CountyFIPS,
		Tract:            row.Tract,
		TotalPopulation:  total,
		Population25Plus: pop25,
		Education: model.EducationShares{
			LessThanHS:    pct(dict.LessThanHS, pop25),
			HSOnly:        pct(dict.HSOnly, pop25),
			SomeCollege:   pct(dict.SomeCollege, pop25),
			Associates:    pct(dict.Associates, pop25),
			BachelorsPlus: pct(dict.BachelorsPlus, pop25),
		},
		Race: model.RaceShares{
			White:    pct(dict.White, total),
			Black:    pct(dict.Black, total),
			Asian:    pct(dict.Asian, total),
			Hispanic: pct(dict.Hispanic, total),
			Other:    pct(dict.Other, total),
		},
	}
	rec.MajorityRace = rec.Race.Majority()

	// The API reports suppressed or unavailable estimates as large negative
	// annotation values.
	if raw, ok := row.Values[dict.MedianIncome]; ok {
		if income, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && income >= 0 {
			rec.MedianIncome = income
			rec.HasMedianIncome = true
		}
	}
	return rec
}

func countyRank(county string) int {
	if i := model.CountyIndex(county); i >= 0 {
		return i
	}
	return len(model.Counties)
}
