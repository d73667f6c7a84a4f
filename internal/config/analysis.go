package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/precinct-atlas/internal/bivariate"
	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/geo"
)

// LoadScheme resolves bivariate.scheme and its cut overrides.
func LoadScheme() (bivariate.Scheme, error) {
	xCuts, err := floats("bivariate.x_cuts")
	if err != nil {
		return bivariate.Scheme{}, err
	}
	yCuts, err := floats("bivariate.y_cuts")
	if err != nil {
		return bivariate.Scheme{}, err
	}
	return bivariate.ForKind(viper.GetString("bivariate.scheme"), viper.GetFloat64("bivariate.cut"), xCuts, yCuts)
}

// LoadRegistry returns the built-in contests, extended by contests.file when
// it is set.
func LoadRegistry() (*contest.Registry, error) {
	registry := contest.DefaultRegistry()
	path := viper.GetString("contests.file")
	if path == "" {
		return registry, nil
	}
	return contest.LoadFile(registry, ExpandPath(path))
}

// BoundaryOptions describes how to read a boundary file.
type BoundaryOptions struct {
	KeyProperty string
	Projection  geo.Projection
}

// LoadBoundaryOptions resolves boundaries.key and boundaries.epsg.
func LoadBoundaryOptions() (BoundaryOptions, error) {
	key := viper.GetString("boundaries.key")
	if key == "" {
		key = geo.DefaultKeyProperty
	}
	proj, err := geo.ProjectionFor(viper.GetInt("boundaries.epsg"))
	if err != nil {
		return BoundaryOptions{}, err
	}
	return BoundaryOptions{KeyProperty: key, Projection: proj}, nil
}

func floats(key string) ([]float64, error) {
	raw := viper.GetStringSlice(key)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]float64, len(raw))
	for i, s := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", common.ErrInvalidConfig, key, s)
		}
		out[i] = f
	}
	return out, nil
}
