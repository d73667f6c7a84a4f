package model

// SurveyRow is one raw survey response row for a census tract, keyed by
// variable code. Values are kept as the source text.
type SurveyRow struct {
	Values     map[string]string
	County     string // county name, e.g. "Kings"
	StateFIPS  string
	CountyFIPS string
	Tract      string
	Name       string
}

// GEOID is the state+county+tract identifier of the unit.
func (r SurveyRow) GEOID() string {
	return r.StateFIPS + r.CountyFIPS + r.Tract
}

// EducationShares are percentages of the population aged 25 and over.
type EducationShares struct {
	LessThanHS    float64 `json:"pct_less_than_hs"`
	HSOnly        float64 `json:"pct_hs_only"`
	SomeCollege   float64 `json:"pct_some_college"`
	Associates    float64 `json:"pct_associates"`
	BachelorsPlus float64 `json:"pct_bachelors_plus"`
}

// RaceCategories is the fixed declaration order used for majority tie-breaks.
var RaceCategories = []string{"white", "black", "asian", "hispanic", "other"}

// RaceShares are race/ethnicity percentages of the total population.
type RaceShares struct {
	White    float64 `json:"pct_white"`
	Black    float64 `json:"pct_black"`
	Asian    float64 `json:"pct_asian"`
	Hispanic float64 `json:"pct_hispanic"`
	Other    float64 `json:"pct_other"`
}

// Values returns the shares in RaceCategories order.
func (r RaceShares) Values() []float64 {
	return []float64{r.White, r.Black, r.Asian, r.Hispanic, r.Other}
}

// Majority returns the category with the largest share. Ties go to the
// category declared first.
func (r RaceShares) Majority() string {
	values := r.Values()
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return RaceCategories[best]
}

// DemographicRecord is one normalized survey unit (census tract).
type DemographicRecord struct {
	GEOID            string
	County           string
	Name             string
	StateFIPS        string
	CountyFIPS       string
	Tract            string
	MajorityRace     string
	Race             RaceShares
	Education        EducationShares
	TotalPopulation  float64
	Population25Plus float64
	MedianIncome     float64
	HasMedianIncome  bool
}

// CountyDemographics are tract records aggregated to one county. Every
// district in the county receives these same values.
type CountyDemographics struct {
	County          string
	MajorityRace    string
	Race            RaceShares
	Education       EducationShares
	MedianIncome    float64
	Tracts          int
	HasMedianIncome bool
}
