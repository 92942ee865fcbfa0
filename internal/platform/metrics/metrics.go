package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks identity provisioning, tenant resolution and listing latency.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	IdentityProvisioned  prometheus.Counter
	IdentitySyncFailures prometheus.Counter
	TenantClaimMissing   prometheus.Counter
	TenantResolved       *prometheus.CounterVec
	ListQueryDuration    *prometheus.HistogramVec
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IdentityProvisioned: f.NewCounter(prometheus.CounterOpts{
			Name: "records_identity_provisioned_total",
			Help: "Local identity records created from token principals",
		}),
		IdentitySyncFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "records_identity_sync_failures_total",
			Help: "Identity sync attempts that failed and were skipped",
		}),
		TenantClaimMissing: f.NewCounter(prometheus.CounterOpts{
			Name: "records_tenant_claim_missing_total",
			Help: "Authenticated requests without an organization claim",
		}),
		TenantResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "records_tenant_resolved_total",
			Help: "Requests with a resolved tenant, by source (claim or override)",
		}, []string{"source"}),
		ListQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "records_list_query_duration_seconds",
			Help:    "Duration of filtered listing queries (count + page)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity"}),
	}
}

func (m *Metrics) IncIdentityProvisioned() {
	if m != nil {
		m.IdentityProvisioned.Inc()
	}
}

func (m *Metrics) IncIdentitySyncFailure() {
	if m != nil {
		m.IdentitySyncFailures.Inc()
	}
}

func (m *Metrics) IncTenantClaimMissing() {
	if m != nil {
		m.TenantClaimMissing.Inc()
	}
}

func (m *Metrics) IncTenantResolved(source string) {
	if m != nil {
		m.TenantResolved.WithLabelValues(source).Inc()
	}
}

// ObserveList records the duration of a listing for entity.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveList(entity string, start time.Time) {
	if m != nil {
		m.ListQueryDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
	}
}
