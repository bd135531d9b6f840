package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit chain module.
type Metrics struct {
	RecordsAppended *prometheus.CounterVec
	AppendConflicts prometheus.Counter
	Verifications   *prometheus.CounterVec
	ViolationsFound prometheus.Counter
}

// New creates a new Metrics instance with all audit module metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "northstar_audit_records_appended_total",
			Help: "Total number of audit records appended, by chain family",
		}, []string{"chain"}),
		AppendConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_audit_append_conflicts_total",
			Help: "Total number of sequence collisions retried during append",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "northstar_audit_verifications_total",
			Help: "Total number of integrity verification runs, by outcome",
		}, []string{"outcome"}),
		ViolationsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_audit_violations_total",
			Help: "Total number of record positions flagged during verification",
		}),
	}
}

// IncrementRecordAppended records a successful append.
func (m *Metrics) IncrementRecordAppended(platform bool) {
	chain := "tenant"
	if platform {
		chain = "platform"
	}
	m.RecordsAppended.WithLabelValues(chain).Inc()
}

// IncrementAppendConflict records one lost sequence race.
func (m *Metrics) IncrementAppendConflict() {
	m.AppendConflicts.Inc()
}

// ObserveVerification records a verification run and its flagged positions.
func (m *Metrics) ObserveVerification(valid bool, violations int) {
	outcome := "valid"
	if !valid {
		outcome = "tampered"
	}
	m.Verifications.WithLabelValues(outcome).Inc()
	if violations > 0 {
		m.ViolationsFound.Add(float64(violations))
	}
}
