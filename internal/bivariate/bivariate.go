// Package bivariate assigns districts to categories of a two-variable choropleth
// legend.
package bivariate

import (
	"fmt"
	"slices"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// Scheme kinds.
const (
	Four = "four"
	Nine = "nine"
)

// Axis is one classified variable. A value at or below a cut stays in the
// lower bucket.
type Axis struct {
	Contest   string
	Candidate string
	Abbrev    string
	Cuts      []float64
}

// Levels returns the number of buckets on the axis.
func (a Axis) Levels() int {
	return len(a.Cuts) + 1
}

// Level returns the 0-based bucket of v. No data falls in the lowest bucket.
func (a Axis) Level(v model.Share) int {
	if !v.Valid {
		return 0
	}
	level := 0
	for _, cut := range a.Cuts {
		if v.Value > cut {
			level++
		}
	}
	return level
}

func (a Axis) label(level int) string {
	names := []string{"Low", "High"}
	if a.Levels() == 3 {
		names = []string{"Low", "Med", "High"}
	}
	return names[level] + " " + a.Abbrev
}

func (a Axis) validate() error {
	if a.Abbrev == "" {
		return fmt.Errorf("%w: bivariate axis needs an abbreviation", common.ErrInvalidConfig)
	}
	if len(a.Cuts) < 1 || len(a.Cuts) > 2 {
		return fmt.Errorf("%w: axis %s needs 1 or 2 cut points, got %d", common.ErrInvalidConfig, a.Abbrev, len(a.Cuts))
	}
	if len(a.Cuts) == 2 && a.Cuts[0] >= a.Cuts[1] {
		return fmt.Errorf("%w: axis %s cut points must be strictly ascending", common.ErrInvalidConfig, a.Abbrev)
	}
	return nil
}

// Scheme classifies a pair of shares into a named category.
type Scheme struct {
	X Axis
	Y Axis
}

// NewScheme validates the axes. Both axes must have the same number of
// buckets.
func NewScheme(x, y Axis) (Scheme, error) {
	if err := x.validate(); err != nil {
		return Scheme{}, err
	}
	if err := y.validate(); err != nil {
		return Scheme{}, err
	}
	if x.Levels() != y.Levels() {
		return Scheme{}, fmt.Errorf("%w: axes %s and %s have different bucket counts", common.ErrInvalidConfig, x.Abbrev, y.Abbrev)
	}
	return Scheme{X: copyAxis(x), Y: copyAxis(y)}, nil
}

func copyAxis(a Axis) Axis {
	a.Cuts = slices.Clone(a.Cuts)
	return a
}

// Size returns the number of categories.
func (s Scheme) Size() int {
	return s.X.Levels() * s.Y.Levels()
}

// Classify returns the category label of (x, y). Either side without data
// classifies as the lowest bucket on both axes.
func (s Scheme) Classify(x, y model.Share) string {
	if !x.Valid || !y.Valid {
		return s.label(0, 0)
	}
	return s.label(s.X.Level(x), s.Y.Level(y))
}

// ClassifyRow classifies a district by its axis shares.
func (s Scheme) ClassifyRow(row *model.DistrictAnalyticRow) string {
	return s.Classify(
		row.Share(s.X.Contest, s.X.Candidate),
		row.Share(s.Y.Contest, s.Y.Candidate),
	)
}

// Apply sets the category of every row in the table.
func (s Scheme) Apply(table *model.DistrictTable) {
	for i := range table.Rows {
		table.Rows[i].Category = s.ClassifyRow(&table.Rows[i])
	}
}

// Categories returns every label, X level outermost, lowest first.
func (s Scheme) Categories() []string {
	out := make([]string, 0, s.Size())
	for x := range s.X.Levels() {
		for y := range s.Y.Levels() {
			out = append(out, s.label(x, y))
		}
	}
	return out
}

func (s Scheme) label(x, y int) string {
	return s.X.label(x) + " / " + s.Y.label(y)
}

// Default axis definitions.
func mamdani(cuts ...float64) Axis {
	return Axis{Contest: "mayor", Candidate: "Zohran Mamdani", Abbrev: "M", Cuts: cuts}
}

func trump(cuts ...float64) Axis {
	return Axis{Contest: "president", Candidate: "Trump", Abbrev: "T", Cuts: cuts}
}

// DefaultFour is the 2x2 scheme with a single cut at 50%.
func DefaultFour() Scheme {
	return Scheme{X: mamdani(50), Y: trump(50)}
}

// DefaultNine is the 3x3 scheme: Mamdani cut at 35/55, Trump at 20/40.
func DefaultNine() Scheme {
	return Scheme{X: mamdani(35, 55), Y: trump(20, 40)}
}

// ForKind returns the scheme of the given kind, replacing the default cut
// points when overrides are provided. A four-category cut applies to both
// axes.
func ForKind(kind string, cut float64, xCuts, yCuts []float64) (Scheme, error) {
	switch kind {
	case Four, "":
		s := DefaultFour()
		if cut > 0 {
			s.X.Cuts, s.Y.Cuts = []float64{cut}, []float64{cut}
		}
		return NewScheme(s.X, s.Y)
	case Nine:
		s := DefaultNine()
		if len(xCuts) > 0 {
			s.X.Cuts = xCuts
		}
		if len(yCuts) > 0 {
			s.Y.Cuts = yCuts
		}
		return NewScheme(s.X, s.Y)
	default:
		return Scheme{}, fmt.Errorf("%w: unknown bivariate scheme %q (want %s or %s)", common.ErrInvalidConfig, kind, Four, Nine)
	}
}
