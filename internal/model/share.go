package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Share is a percentage in [0,100] that may be explicitly absent. Absence
// means "no data" (no votes, or no row), which is distinct from 0%.
type Share struct {
	Value float64
	Valid bool
}

// NoData is the explicit "no data" sentinel.
var NoData = Share{}

// ShareOf returns a valid share with the given value.
func ShareOf(v float64) Share {
	return Share{Value: v, Valid: true}
}

// Percent computes part/whole*100 rounded to 2 decimals. A zero whole yields
// NoData.
func Percent(part, whole int) Share {
	if whole == 0 {
		return NoData
	}
	return ShareOf(Round2(float64(part) / float64(whole) * 100))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Sub returns s - o, or NoData when either side has no data.
func (s Share) Sub(o Share) Share {
	if !s.Valid || !o.Valid {
		return NoData
	}
	return ShareOf(Round2(s.Value - o.Value))
}

// Cell returns the value for tabular writers: nil for no data.
func (s Share) Cell() any {
	if !s.Valid {
		return nil
	}
	return s.Value
}

func (s Share) String() string {
	if !s.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// MarshalJSON encodes no data as null.
func (s Share) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON decodes null as no data.
func (s *Share) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NoData
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ShareOf(v)
	return nil
}
