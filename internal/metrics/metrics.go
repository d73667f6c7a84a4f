// Package metrics records pipeline run counters in a private prometheus
// registry that can be written out as a node_exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

// Row outcomes for TallyRows.
const (
	OutcomeCandidate  = "candidate"
	OutcomeBallotType = "ballot_type"
	OutcomeMerged     = "merged"
	OutcomeDropped    = "dropped"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	TallyRows                *prometheus.CounterVec
	DroppedVotes             *prometheus.CounterVec
	DistrictsWithoutBoundary *prometheus.CounterVec
	CountiesMissing          prometheus.Gauge
	UnitsExcluded            prometheus.Counter
	DistrictsBuilt           prometheus.Gauge
}

// New creates the collectors and registers them in a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TallyRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_tally_rows_total",
			Help: "Normalized tally records by contest and outcome",
		}, []string{"contest", "outcome"}),
		DroppedVotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_tally_dropped_votes_total",
			Help: "Votes whose choice matched neither a candidate nor a ballot type",
		}, []string{"contest"}),
		DistrictsWithoutBoundary: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_districts_without_boundary_total",
			Help: "Districts with votes but no boundary",
		}, []string{"contest"}),
		CountiesMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atlas_census_counties_missing",
			Help: "Counties whose census fetch failed in the last run",
		}),
		UnitsExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_census_units_excluded_total",
			Help: "Survey units excluded for missing or zero population",
		}),
		DistrictsBuilt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atlas_districts_built",
			Help: "Rows in the last district table",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.TallyRows,
		m.DroppedVotes,
		m.DistrictsWithoutBoundary,
		m.CountiesMissing,
		m.UnitsExcluded,
		m.DistrictsBuilt,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Record adds the counts of one pipeline run.
func (m *Metrics) Record(r *model.Report) {
	for _, c := range r.Contests {
		m.TallyRows.WithLabelValues(c.Key, OutcomeCandidate).Add(float64(len(c.Candidates)))
		m.TallyRows.WithLabelValues(c.Key, OutcomeBallotType).Add(float64(len(c.BallotTypes)))
		m.TallyRows.WithLabelValues(c.Key, OutcomeMerged).Add(float64(len(c.Merged)))
		m.TallyRows.WithLabelValues(c.Key, OutcomeDropped).Add(float64(c.Dropped.Rows))
		m.DroppedVotes.WithLabelValues(c.Key).Add(float64(c.Dropped.Votes))
		m.DistrictsWithoutBoundary.WithLabelValues(c.Key).Add(float64(c.Unmatched))
	}
	m.CountiesMissing.Set(float64(len(r.MissingCounties)))
	m.UnitsExcluded.Add(float64(r.ExcludedUnits))
	if r.Table != nil {
		m.DistrictsBuilt.Set(float64(len(r.Table.Rows)))
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric in text exposition format, atomically
// replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
