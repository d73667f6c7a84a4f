// Package fixtures provides shared election and census test data. It offers a
// fluent builder for raw tally exports plus small, fully known datasets whose
// expected outputs can be asserted exactly.
//
// Example usage:
//
//	records := fixtures.NewTallyBuilder().
//		InPlay("Kings", 41, 1, "Zohran Kwame Mamdani", 40).
//		Merged("Kings", 41, 2, "COMBINED INTO 01/41", "Zohran Kwame Mamdani", 0).
//		Records()
package fixtures

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/Veraticus/precinct-atlas/internal/census"
	"github.com/Veraticus/precinct-atlas/internal/geo"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// TallyBuilder accumulates raw tally rows.
type TallyBuilder struct {
	records []model.RawTallyRecord
}

// NewTallyBuilder returns an empty builder.
func NewTallyBuilder() *TallyBuilder {
	return &TallyBuilder{}
}

// InPlay adds a row whose votes count toward the district.
func (b *TallyBuilder) InPlay(county string, ad, ed int, choice string, votes int) *TallyBuilder {
	return b.Row(county, ad, ed, "IN-PLAY", choice, strconv.Itoa(votes))
}

// Merged adds a row for a district whose votes were reported elsewhere.
func (b *TallyBuilder) Merged(county string, ad, ed int, note, choice string, votes int) *TallyBuilder {
	return b.Row(county, ad, ed, note, choice, strconv.Itoa(votes))
}

// Row adds a row with a verbatim vote count field.
func (b *TallyBuilder) Row(county string, ad, ed int, note, choice, count string) *TallyBuilder {
	b.records = append(b.records, model.RawTallyRecord{
		AssemblyDistrict: strconv.Itoa(ad),
		ElectionDistrict: fmt.Sprintf("%03d", ed),
		County:           county,
		Note:             note,
		VoteChoice:       choice,
		VoteCount:        count,
		Line:             len(b.records) + 1,
	})
	return b
}

// Records returns a copy of the rows.
func (b *TallyBuilder) Records() []model.RawTallyRecord {
	return append([]model.RawTallyRecord(nil), b.records...)
}

// CSV renders the rows as a header-less positional export.
func (b *TallyBuilder) CSV() string {
	var sb strings.Builder
	for _, r := range b.records {
		fields := make([]string, 22)
		for i := range fields {
			fields[i] = "-"
		}
		fields[11] = r.AssemblyDistrict
		fields[12] = r.ElectionDistrict
		fields[13] = r.County
		fields[14] = r.Note
		fields[20] = r.VoteChoice
		fields[21] = r.VoteCount
		for i, f := range fields {
			if strings.ContainsAny(f, ",\"") {
				fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
			}
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

// District ids used by the sample datasets.
const (
	Manhattan65012 model.ElectDist = 65012
	Manhattan65013 model.ElectDist = 65013
	Brooklyn41001  model.ElectDist = 41001
	Brooklyn41002  model.ElectDist = 41002
	Brooklyn41003  model.ElectDist = 41003 // has votes, no boundary
)

// MayorTally is the sample mayoral export.
//
//	65012: Mamdani 60, Cuomo 30, Sliwa 10 (plus 2 dropped write-in votes)
//	65013: Mamdani 1,300 across two ballot lines, Cuomo 800
//	41001: Cuomo 40, Mamdani 40, Adams 20
//	41002: merged into 41001
//	41003: Mamdani 5
func MayorTally() *TallyBuilder {
	return NewTallyBuilder().
		InPlay("New York", 65, 12, "Zohran Kwame Mamdani", 60).
		InPlay("New York", 65, 12, "Andrew M. Cuomo", 30).
		InPlay("New York", 65, 12, "Curtis A. Sliwa", 10).
		InPlay("New York", 65, 12, "Public Counter", 95).
		InPlay("New York", 65, 12, "Absentee / Military", 5).
		InPlay("New York", 65, 12, "Write-in", 2).
		Row("New York", 65, 13, "IN-PLAY", "Zohran Kwame Mamdani", "1,200").
		InPlay("New York", 65, 13, "Zohran Kwame Mamdani (Working Families)", 100).
		InPlay("New York", 65, 13, "Andrew M. Cuomo", 800).
		InPlay("Kings", 41, 1, "Andrew M. Cuomo", 40).
		InPlay("Kings", 41, 1, "Zohran Kwame Mamdani", 40).
		InPlay("Kings", 41, 1, "Eric L. Adams", 20).
		Merged("Kings", 41, 2, "COMBINED INTO 01/41", "Zohran Kwame Mamdani", 0).
		Merged("Kings", 41, 2, "COMBINED INTO 01/41", "Andrew M. Cuomo", 0).
		InPlay("Kings", 41, 3, "Zohran Kwame Mamdani", 5)
}

// PresidentTally is the sample presidential export.
//
//	65012: Trump 20, Harris 80
//	65013: Trump 1,000, Harris 1,000
//	41001: Trump 45, Harris 55 (plus 3 Federal ballots)
func PresidentTally() *TallyBuilder {
	return NewTallyBuilder().
		InPlay("New York", 65, 12, "Donald J. Trump / JD Vance", 20).
		InPlay("New York", 65, 12, "Kamala D. Harris / Tim Walz", 80).
		InPlay("New York", 65, 13, "Donald J. Trump / JD Vance", 1000).
		InPlay("New York", 65, 13, "Kamala D. Harris / Tim Walz", 1000).
		InPlay("Kings", 41, 1, "Donald J. Trump / JD Vance (Conservative)", 45).
		InPlay("Kings", 41, 1, "Kamala D. Harris / Tim Walz", 55).
		InPlay("Kings", 41, 1, "Federal", 3)
}

// Square returns a unit square polygon offset by i.
func Square(i int) geom.T {
	x := float64(i)
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, 0,
		x + 1, 0,
		x + 1, 1,
		x, 1,
		x, 0,
	}, []int{10}).SetSRID(geo.WGS84)
}

// Boundaries returns a collection of square districts.
func Boundaries(tb testing.TB, eds ...model.ElectDist) *geo.Collection {
	tb.Helper()
	if len(eds) == 0 {
		eds = []model.ElectDist{Manhattan65012, Manhattan65013, Brooklyn41001, Brooklyn41002}
	}
	bs := make([]geo.Boundary, len(eds))
	for i, ed := range eds {
		bs[i] = geo.Boundary{ElectDist: ed, Geometry: Square(i)}
	}
	c, err := geo.NewCollection(bs, geo.WGS84)
	if err != nil {
		tb.Fatalf("failed to build boundaries: %v", err)
	}
	return c
}

// BoundariesGeoJSON returns a FeatureCollection of square districts with
// string keys.
func BoundariesGeoJSON(eds ...model.ElectDist) string {
	features := make([]string, len(eds))
	for i, ed := range eds {
		x := i
		features[i] = fmt.Sprintf(`{"type":"Feature","properties":{"ElectDist":"%d"},`+
			`"geometry":{"type":"Polygon","coordinates":[[[%d,0],[%d,0],[%d,1],[%d,1],[%d,0]]]}}`,
			int(ed), x, x+1, x+1, x, x)
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

// Counties returns demographics for Manhattan and Brooklyn.
func Counties() []model.CountyDemographics {
	return []model.CountyDemographics{
		{
			County:          "New York",
			Tracts:          2,
			MedianIncome:    100000,
			HasMedianIncome: true,
			Education:       model.EducationShares{LessThanHS: 10, HSOnly: 15, SomeCollege: 10, Associates: 5, BachelorsPlus: 60},
			Race:            model.RaceShares{White: 45, Black: 12, Asian: 13, Hispanic: 25, Other: 5},
			MajorityRace:    "white",
		},
		{
			County:          "Kings",
			Tracts:          3,
			MedianIncome:    75000,
			HasMedianIncome: true,
			Education:       model.EducationShares{LessThanHS: 15, HSOnly: 25, SomeCollege: 12, Associates: 6, BachelorsPlus: 42},
			Race:            model.RaceShares{White: 36, Black: 27, Asian: 13, Hispanic: 19, Other: 5},
			MajorityRace:    "white",
		},
	}
}

// StaticDemographics is a demographic source returning a fixed result.
type StaticDemographics struct {
	Result *census.Result
	Err    error
	calls  atomic.Int32
}

// NewStaticDemographics returns a source serving Counties with three
// missing counties.
func NewStaticDemographics() *StaticDemographics {
	return &StaticDemographics{Result: &census.Result{
		Counties: Counties(),
		Missing:  []string{"Queens", "Bronx", "Richmond"},
		Excluded: 2,
	}}
}

// Load returns the configured result.
func (s *StaticDemographics) Load(_ context.Context) (*census.Result, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

// Calls returns how many times Load ran.
func (s *StaticDemographics) Calls() int {
	return int(s.calls.Load())
}
