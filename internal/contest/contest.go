// Package contest defines election contest configurations: candidate rosters,
// administrative ballot-type labels and canonical candidate names.
package contest

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/common"
)

// ErrUnknownContest is returned when a contest key is not registered.
var ErrUnknownContest = fmt.Errorf("%w: unknown contest", common.ErrInvalidConfig)

// Definition is the serializable form of a contest.
type Definition struct {
	NameMap     map[string]string `yaml:"name_map"`
	Key         string            `yaml:"key"`
	Title       string            `yaml:"title"`
	Suffix      string            `yaml:"suffix"`
	Candidates  []string          `yaml:"candidates"`
	BallotTypes []string          `yaml:"ballot_types"`
}

// Contest is an immutable contest configuration. Accessors return copies so a
// Contest can be shared between concurrent runs.
type Contest struct {
	nameMap     map[string]string
	candidates  map[string]bool
	ballotTypes map[string]bool
	key         string
	title       string
	suffix      string
	roster      []string
	labels      []string
}

// New validates def and builds a Contest.
func New(def Definition) (Contest, error) {
	key := strings.TrimSpace(def.Key)
	if key == "" {
		return Contest{}, fmt.Errorf("%w: contest key is required", common.ErrInvalidConfig)
	}
	if len(def.Candidates) == 0 {
		return Contest{}, fmt.Errorf("%w: contest %q has no candidates", common.ErrInvalidConfig, key)
	}

	c := Contest{
		key:         key,
		title:       def.Title,
		suffix:      def.Suffix,
		nameMap:     make(map[string]string, len(def.NameMap)),
		candidates:  make(map[string]bool, len(def.Candidates)),
		ballotTypes: make(map[string]bool, len(def.BallotTypes)),
		roster:      slices.Clone(def.Candidates),
		labels:      slices.Clone(def.BallotTypes),
	}
	if c.suffix == "" {
		c.suffix = key
	}
	if c.title == "" {
		c.title = key
	}

	for _, name := range def.Candidates {
		if c.candidates[name] {
			return Contest{}, fmt.Errorf("%w: contest %q lists candidate %q twice", common.ErrInvalidConfig, key, name)
		}
		c.candidates[name] = true
	}
	for _, label := range def.BallotTypes {
		if c.candidates[label] {
			return Contest{}, fmt.Errorf("%w: contest %q uses %q as both candidate and ballot type", common.ErrInvalidConfig, key, label)
		}
		c.ballotTypes[label] = true
	}
	for raw, canonical := range def.NameMap {
		if !c.candidates[raw] {
			return Contest{}, fmt.Errorf("%w: contest %q maps %q which is not on the roster", common.ErrInvalidConfig, key, raw)
		}
		c.nameMap[raw] = canonical
	}

	return c, nil
}

// Key returns the registry key, e.g. "mayor".
func (c Contest) Key() string { return c.key }

// Title returns the human-readable contest title.
func (c Contest) Title() string { return c.title }

// Suffix returns the column suffix used when contests are merged.
func (c Contest) Suffix() string { return c.suffix }

// Roster returns the raw candidate labels as they appear in the source.
func (c Contest) Roster() []string { return slices.Clone(c.roster) }

// BallotTypes returns the administrative ballot-type labels.
func (c Contest) BallotTypes() []string { return slices.Clone(c.labels) }

// IsCandidate reports whether choice is a raw roster label.
func (c Contest) IsCandidate(choice string) bool { return c.candidates[choice] }

// IsBallotType reports whether choice is an administrative ballot-type label.
func (c Contest) IsBallotType(choice string) bool { return c.ballotTypes[choice] }

// Canonical maps a raw roster label to its canonical name.
func (c Contest) Canonical(choice string) string {
	if canonical, ok := c.nameMap[choice]; ok {
		return canonical
	}
	return choice
}

// CanonicalRoster returns canonical candidate names in roster order without
// duplicates.
func (c Contest) CanonicalRoster() []string {
	seen := make(map[string]bool, len(c.roster))
	out := make([]string, 0, len(c.roster))
	for _, raw := range c.roster {
		name := c.Canonical(raw)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// HasCandidate reports whether name is a canonical candidate of the contest.
func (c Contest) HasCandidate(name string) bool {
	return slices.Contains(c.CanonicalRoster(), name)
}

// Registry maps contest keys to contests.
type Registry struct {
	contests map[string]Contest
}

// NewRegistry builds a registry from contests. Duplicate keys are rejected.
func NewRegistry(contests ...Contest) (*Registry, error) {
	r := &Registry{contests: make(map[string]Contest, len(contests))}
	for _, c := range contests {
		if _, exists := r.contests[c.key]; exists {
			return nil, fmt.Errorf("%w: duplicate contest %q", common.ErrInvalidConfig, c.key)
		}
		r.contests[c.key] = c
	}
	return r, nil
}

// Lookup returns the contest registered under key.
func (r *Registry) Lookup(key string) (Contest, error) {
	c, ok := r.contests[key]
	if !ok {
		return Contest{}, fmt.Errorf("%w %q, valid options: %s", ErrUnknownContest, key, strings.Join(r.Keys(), ", "))
	}
	return c, nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.contests))
	for k := range r.contests {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of the registry with contests added or replaced.
func (r *Registry) With(contests ...Contest) *Registry {
	out := &Registry{contests: make(map[string]Contest, len(r.contests)+len(contests))}
	for k, c := range r.contests {
		out.contests[k] = c
	}
	for _, c := range contests {
		out.contests[c.key] = c
	}
	return out
}

// IsUnknown reports whether err is an unknown-contest error.
func IsUnknown(err error) bool {
	return errors.Is(err, ErrUnknownContest)
}
