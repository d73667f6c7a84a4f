package census

import (
	"cmp"
	"slices"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

// AggregateByCounty reduces tract records to one record per county: the
// median of tract median incomes, the mean of every share, and a majority
// race re-derived from the mean race shares. Counties come out in the fixed
// borough order, any unknown county after them.
func AggregateByCounty(records []model.DemographicRecord) []model.CountyDemographics {
	groups := make(map[string][]model.DemographicRecord)
	var order []string
	for _, r := range records {
		if _, ok := groups[r.County]; !ok {
			order = append(order, r.County)
		}
		groups[r.County] = append(groups[r.County], r)
	}
	slices.SortFunc(order, func(a, b string) int {
		if c := cmp.Compare(countyRank(a), countyRank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	out := make([]model.CountyDemographics, 0, len(order))
	for _, county := range order {
		out = append(out, aggregateCounty(county, groups[county]))
	}
	return out
}

func aggregateCounty(county string, tracts []model.DemographicRecord) model.CountyDemographics {
	n := float64(len(tracts))
	agg := model.CountyDemographics{County: county, Tracts: len(tracts)}

	var incomes []float64
	for _, t := range tracts {
		agg.Education.LessThanHS += t.Education.LessThanHS / n
		agg.Education.HSOnly += t.Education.HSOnly / n
		agg.Education.SomeCollege += t.Education.SomeCollege / n
		agg.Education.Associates += t.Education.Associates / n
		agg.Education.BachelorsPlus += t.Education.BachelorsPlus / n

		agg.Race.White += t.Race.White / n
		agg.Race.Black += t.Race.Black / n
		agg.Race.Asian += t.Race.Asian / n
		agg.Race.Hispanic += t.Race.Hispanic / n
		agg.Race.Other += t.Race.Other / n

		if t.HasMedianIncome {
			incomes = append(incomes, t.MedianIncome)
		}
	}
	agg.MajorityRace = agg.Race.Majority()

	if len(incomes) > 0 {
		agg.MedianIncome = median(incomes)
		agg.HasMedianIncome = true
	}
	return agg
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
