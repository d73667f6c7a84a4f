// Package geo reads election district boundaries and reprojects them into
// geographic coordinates.
package geo

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// DefaultKeyProperty is the feature property holding the district id.
const DefaultKeyProperty = "ElectDist"

// Boundary is one district polygon.
type Boundary struct {
	Geometry  geom.T
	ElectDist model.ElectDist
}

// Collection is a set of boundaries sorted by ElectDist, with unique keys.
type Collection struct {
	Boundaries []Boundary
	SRID       int
}

// Lookup returns the geometry of a district.
func (c *Collection) Lookup(ed model.ElectDist) (geom.T, bool) {
	i, ok := slices.BinarySearchFunc(c.Boundaries, ed, func(b Boundary, target model.ElectDist) int {
		return cmp.Compare(b.ElectDist, target)
	})
	if !ok {
		return nil, false
	}
	return c.Boundaries[i].Geometry, true
}

// Keys returns every district id in ascending order.
func (c *Collection) Keys() []model.ElectDist {
	keys := make([]model.ElectDist, len(c.Boundaries))
	for i, b := range c.Boundaries {
		keys[i] = b.ElectDist
	}
	return keys
}

// Len returns the number of boundaries.
func (c *Collection) Len() int {
	return len(c.Boundaries)
}

// NewCollection validates and sorts boundaries. Duplicate ids are a format
// error.
func NewCollection(boundaries []Boundary, srid int) (*Collection, error) {
	sorted := slices.Clone(boundaries)
	slices.SortStableFunc(sorted, func(a, b Boundary) int {
		return cmp.Compare(a.ElectDist, b.ElectDist)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ElectDist == sorted[i-1].ElectDist {
			return nil, common.FormatErrorf("boundaries", DefaultKeyProperty, "duplicate district %s", sorted[i].ElectDist)
		}
	}
	return &Collection{Boundaries: sorted, SRID: srid}, nil
}

// ReadGeoJSON reads a FeatureCollection. keyProperty names the property that
// carries the district id; it may be a number or a numeric string.
func ReadGeoJSON(r io.Reader, keyProperty string, srid int) (*Collection, error) {
	if keyProperty == "" {
		keyProperty = DefaultKeyProperty
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundaries: %w", err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, common.NewStageError("boundaries", "", fmt.Errorf("%w: %w", common.ErrFormat, err))
	}

	boundaries := make([]Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		ed, err := featureKey(f, keyProperty)
		if err != nil {
			return nil, common.FormatErrorf("boundaries", keyProperty, "feature %d: %v", i, err)
		}
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		case nil:
			return nil, common.FormatErrorf("boundaries", "geometry", "district %s has no geometry", ed)
		default:
			return nil, common.FormatErrorf("boundaries", "geometry", "district %s has unsupported geometry %T", ed, f.Geometry)
		}
		boundaries = append(boundaries, Boundary{ElectDist: ed, Geometry: f.Geometry})
	}

	return NewCollection(boundaries, srid)
}

func featureKey(f *geojson.Feature, keyProperty string) (model.ElectDist, error) {
	raw, ok := f.Properties[keyProperty]
	if !ok || raw == nil {
		return 0, fmt.Errorf("missing %q property", keyProperty)
	}

	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric %q value %q", keyProperty, t)
		}
		v = parsed
	default:
		return 0, fmt.Errorf("unexpected %q type %T", keyProperty, raw)
	}

	if v <= 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("invalid %q value %v", keyProperty, v)
	}
	return model.ElectDist(int(v)), nil
}
