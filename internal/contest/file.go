package contest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"gopkg.in/yaml.v3"
)

type contestFile struct {
	Contests []Definition `yaml:"contests"`
}

// ParseDefinitions decodes a YAML document of the form
//
//	contests:
//	  - key: council
//	    candidates: [...]
//	    ballot_types: [...]
//	    name_map: {...}
func ParseDefinitions(data []byte) ([]Contest, error) {
	var file contestFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: contest file: %w", common.ErrInvalidConfig, err)
	}

	contests := make([]Contest, 0, len(file.Contests))
	for _, def := range file.Contests {
		c, err := New(def)
		if err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	return contests, nil
}

// LoadFile reads contest definitions from path and returns a copy of base with
// them added. File contests replace built-ins that share a key.
func LoadFile(base *Registry, path string) (*Registry, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("%w: reading contest file: %w", common.ErrMissingConfig, err)
	}
	contests, err := ParseDefinitions(data)
	if err != nil {
		return nil, err
	}
	return base.With(contests...), nil
}
