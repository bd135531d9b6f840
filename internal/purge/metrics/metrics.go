// Package metrics exposes Prometheus counters for purge runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Runs            prometheus.Counter
	EntitiesPurged  prometheus.Counter
	AlreadyPurged   prometheus.Counter
	ItemFailures    prometheus.Counter
	EligibleScanned prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_purge_runs_total",
			Help: "Total number of purge runs executed.",
		}),
		EntitiesPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_purge_entities_purged_total",
			Help: "Total number of entities deleted with a committed audit record.",
		}),
		AlreadyPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_purge_entities_already_purged_total",
			Help: "Total number of purge targets that were already absent.",
		}),
		ItemFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_purge_item_failures_total",
			Help: "Total number of purge targets that failed and rolled back.",
		}),
		EligibleScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_purge_candidates_scanned_total",
			Help: "Total number of candidates evaluated for purge eligibility.",
		}),
	}
}

// ObserveRun records the aggregate outcome of one purge run.
func (m *Metrics) ObserveRun(purged, alreadyPurged, failed int) {
	m.Runs.Inc()
	m.EntitiesPurged.Add(float64(purged))
	m.AlreadyPurged.Add(float64(alreadyPurged))
	m.ItemFailures.Add(float64(failed))
}
