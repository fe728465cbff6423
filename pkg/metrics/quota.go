package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuotaMetrics records charge and provisioning outcomes.
type QuotaMetrics struct {
	chargeDuration *prometheus.HistogramVec
	casRetries     prometheus.Counter
	clampedSeconds prometheus.Counter
	provisioned    *prometheus.CounterVec
}

// NewQuotaMetrics registers the quota metrics on the provided registerer.
func NewQuotaMetrics(reg prometheus.Registerer) *QuotaMetrics {
	if reg == nil {
		return &QuotaMetrics{}
	}
	chargeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quota_charge_duration_seconds",
		Help:    "Duration of charge operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	casRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quota_charge_cas_retries_total",
		Help: "Charge attempts that lost the compare-and-swap race.",
	})
	clampedSeconds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quota_charge_clamped_seconds_total",
		Help: "Seconds requested beyond available balance (floored at zero).",
	})
	provisioned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_accounts_provisioned_total",
		Help: "Accounts provisioned, by plan tier.",
	}, []string{"tier"})
	reg.MustRegister(chargeDuration, casRetries, clampedSeconds, provisioned)
	return &QuotaMetrics{
		chargeDuration: chargeDuration,
		casRetries:     casRetries,
		clampedSeconds: clampedSeconds,
		provisioned:    provisioned,
	}
}

// ObserveCharge records the duration for a charge with the given outcome.
func (q *QuotaMetrics) ObserveCharge(outcome string, duration time.Duration) {
	if q == nil || q.chargeDuration == nil {
		return
	}
	q.chargeDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCASRetry counts a lost compare-and-swap race.
func (q *QuotaMetrics) IncCASRetry() {
	if q == nil || q.casRetries == nil {
		return
	}
	q.casRetries.Inc()
}

// AddClampedSeconds counts seconds that could not be debited.
func (q *QuotaMetrics) AddClampedSeconds(seconds int64) {
	if q == nil || q.clampedSeconds == nil || seconds <= 0 {
		return
	}
	q.clampedSeconds.Add(float64(seconds))
}

// IncProvisioned counts a newly created account for the tier.
func (q *QuotaMetrics) IncProvisioned(tier string) {
	if q == nil || q.provisioned == nil {
		return
	}
	q.provisioned.WithLabelValues(normalizeLabel(tier)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
