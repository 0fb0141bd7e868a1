package access

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the access layer.
type Metrics struct {
	DecisionsTotal        *prometheus.CounterVec
	MembershipCacheHits   prometheus.Counter
	MembershipCacheMisses prometheus.Counter
}

// NewMetrics creates and registers access metrics on the given registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewkit_access_decisions_total",
				Help: "Total authorization decisions by outcome and deny reason",
			},
			[]string{"outcome", "reason"},
		),
		MembershipCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewkit_membership_cache_hits_total",
				Help: "Membership cache hits",
			},
		),
		MembershipCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewkit_membership_cache_misses_total",
				Help: "Membership cache misses",
			},
		),
	}

	registry.MustRegister(m.DecisionsTotal, m.MembershipCacheHits, m.MembershipCacheMisses)
	return m
}
