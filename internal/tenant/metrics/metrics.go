// Package metrics exposes Prometheus counters for tenant lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TenantsCreated    prometheus.Counter
	StatusTransitions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TenantsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "northstar_tenants_created_total",
			Help: "Total number of tenants provisioned.",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "northstar_tenant_status_transitions_total",
			Help: "Total number of tenant status transitions by target status.",
		}, []string{"status"}),
	}
}
