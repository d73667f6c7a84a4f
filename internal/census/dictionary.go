// Package census fetches American Community Survey tract data and normalizes
// raw variable counts into percentages and categorical labels.
package census

import (
	"fmt"
	"slices"

	"github.com/Veraticus/precinct-atlas/internal/common"
)

// Dictionary maps semantic fields to ACS variable codes. Each share is the sum
// of its codes over the group denominator.
type Dictionary struct {
	TotalPopulation  string
	Population25Plus string
	MedianIncome     string

	LessThanHS    []string
	HSOnly        []string
	SomeCollege   []string
	Associates    []string
	BachelorsPlus []string

	White    []string
	Black    []string
	Asian    []string
	Hispanic []string
	Other    []string
}

func span(table string, from, to int) []string {
	codes := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		codes = append(codes, fmt.Sprintf("%s_%03dE", table, i))
	}
	return codes
}

// ACS5Dictionary returns the dictionary for the ACS 5-year detailed tables
// B19013 (income), B15003 (educational attainment, 25+) and B03002 (Hispanic
// or Latino origin by race).
func ACS5Dictionary() Dictionary {
	return Dictionary{
		TotalPopulation:  "B03002_001E",
		Population25Plus: "B15003_001E",
		MedianIncome:     "B19013_001E",

		LessThanHS:    span("B15003", 2, 16),
		HSOnly:        span("B15003", 17, 18),
		SomeCollege:   span("B15003", 19, 20),
		Associates:    span("B15003", 21, 21),
		BachelorsPlus: span("B15003", 22, 25),

		White:    []string{"B03002_003E"},
		Black:    []string{"B03002_004E"},
		Asian:    []string{"B03002_006E"},
		Hispanic: []string{"B03002_012E"},
		Other:    []string{"B03002_005E", "B03002_007E", "B03002_008E", "B03002_009E"},
	}
}

// Codes returns every variable code the dictionary references, in a stable
// order and without duplicates.
func (d Dictionary) Codes() []string {
	var codes []string
	add := func(cs ...string) {
		for _, c := range cs {
			if c != "" && !slices.Contains(codes, c) {
				codes = append(codes, c)
			}
		}
	}
	add(d.MedianIncome, d.Population25Plus)
	add(d.LessThanHS...)
	add(d.HSOnly...)
	add(d.SomeCollege...)
	add(d.Associates...)
	add(d.BachelorsPlus...)
	add(d.TotalPopulation)
	add(d.White...)
	add(d.Black...)
	add(d.Asian...)
	add(d.Hispanic...)
	add(d.Other...)
	return codes
}

// Validate checks that the denominators are configured.
func (d Dictionary) Validate() error {
	if d.TotalPopulation == "" {
		return fmt.Errorf("%w: dictionary has no total population code", common.ErrInvalidConfig)
	}
	if d.Population25Plus == "" {
		return fmt.Errorf("%w: dictionary has no population 25+ code", common.ErrInvalidConfig)
	}
	return nil
}

// CountyFIPS pairs a county name with its FIPS code.
type CountyFIPS struct {
	Name string
	FIPS string
}

// NYCCounties returns the five New York City counties in fixed order.
func NYCCounties() []CountyFIPS {
	return []CountyFIPS{
		{Name: "New York", FIPS: "061"},
		{Name: "Kings", FIPS: "047"},
		{Name: "Queens", FIPS: "081"},
		{Name: "Bronx", FIPS: "005"},
		{Name: "Richmond", FIPS: "085"},
	}
}
