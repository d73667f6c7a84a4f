package aggregate

import (
	"fmt"
	"slices"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// ShareRef names one candidate's share column.
type ShareRef struct {
	Contest   string
	Candidate string
}

// DifferenceSpec defines a derived column Left - Right in percentage points.
type DifferenceSpec struct {
	Name  string
	Left  ShareRef
	Right ShareRef
}

// DefaultDifferences returns the comparisons used for the 2024/2025 maps.
func DefaultDifferences() []DifferenceSpec {
	return []DifferenceSpec{
		{
			Name:  "vote_diff",
			Left:  ShareRef{Contest: "mayor", Candidate: "Zohran Mamdani"},
			Right: ShareRef{Contest: "president", Candidate: "Trump"},
		},
		{
			Name:  "mayor_diff",
			Left:  ShareRef{Contest: "mayor", Candidate: "Zohran Mamdani"},
			Right: ShareRef{Contest: "mayor", Candidate: "Andrew Cuomo"},
		},
		{
			Name:  "pres_diff",
			Left:  ShareRef{Contest: "president", Candidate: "Harris"},
			Right: ShareRef{Contest: "president", Candidate: "Trump"},
		},
	}
}

// applicable keeps the differences whose contests are all present. A present
// contest without the named candidate is a configuration error.
func applicable(specs []DifferenceSpec, pivots map[string]*Pivot) ([]DifferenceSpec, error) {
	var out []DifferenceSpec
	for _, spec := range specs {
		present := true
		for _, ref := range []ShareRef{spec.Left, spec.Right} {
			p, ok := pivots[ref.Contest]
			if !ok {
				present = false
				continue
			}
			if !hasCandidate(p, ref.Candidate) {
				return nil, fmt.Errorf("%w: difference %s: %s has no candidate %q",
					common.ErrInvalidConfig, spec.Name, ref.Contest, ref.Candidate)
			}
		}
		if present {
			out = append(out, spec)
		}
	}
	return out, nil
}

func hasCandidate(p *Pivot, name string) bool {
	return slices.Contains(p.Candidates, name)
}

// differences computes every spec for one row. A side without data makes the
// difference no data.
func differences(row *model.DistrictAnalyticRow, specs []DifferenceSpec) map[string]model.Share {
	out := make(map[string]model.Share, len(specs))
	for _, spec := range specs {
		left := row.Share(spec.Left.Contest, spec.Left.Candidate)
		right := row.Share(spec.Right.Contest, spec.Right.Candidate)
		out[spec.Name] = left.Sub(right)
	}
	return out
}
