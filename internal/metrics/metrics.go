package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for netloc-sentinel.
// All methods are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	registry                 *prometheus.Registry
	cycleDurationSeconds     prometheus.Histogram
	cyclesTotal              *prometheus.CounterVec
	applyAttemptsTotal       *prometheus.CounterVec
	signalsTotal             prometheus.Counter
	resubscriptionsTotal     prometheus.Counter
	configReloadsTotal       *prometheus.CounterVec
	activeProfile            *prometheus.GaugeVec
	subscriptionUp           prometheus.Gauge
	lastSuccessfulCycleGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "netloc_sentinel_cycle_duration_seconds",
			Help:    "Duration of resolution cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netloc_sentinel_cycles_total",
			Help: "Resolution cycles by outcome.",
		}, []string{"outcome"}),
		applyAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netloc_sentinel_apply_attempts_total",
			Help: "Profile apply attempts by result.",
		}, []string{"result"}),
		signalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netloc_sentinel_signals_total",
			Help: "Raw network change notifications received.",
		}),
		resubscriptionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netloc_sentinel_resubscriptions_total",
			Help: "Successful re-subscriptions to network change notifications.",
		}),
		configReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netloc_sentinel_config_reloads_total",
			Help: "Profile map reloads by result.",
		}, []string{"result"}),
		activeProfile: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netloc_sentinel_active_profile",
			Help: "Set to 1 for the profile last observed as active.",
		}, []string{"profile"}),
		subscriptionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netloc_sentinel_subscription_up",
			Help: "1 while the network change subscription is live.",
		}),
		lastSuccessfulCycleGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netloc_sentinel_last_successful_cycle_timestamp",
			Help: "Unix timestamp of the last successful cycle.",
		}),
	}

	registry.MustRegister(
		m.cycleDurationSeconds,
		m.cyclesTotal,
		m.applyAttemptsTotal,
		m.signalsTotal,
		m.resubscriptionsTotal,
		m.configReloadsTotal,
		m.activeProfile,
		m.subscriptionUp,
		m.lastSuccessfulCycleGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records a completed cycle and its outcome.
func (m *Metrics) ObserveCycle(duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.Observe(duration.Seconds())
	m.cyclesTotal.WithLabelValues(outcome).Inc()
}

// IncApplyAttempt counts one apply call.
func (m *Metrics) IncApplyAttempt(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.applyAttemptsTotal.WithLabelValues(result).Inc()
}

// IncSignals counts one raw change notification.
func (m *Metrics) IncSignals() {
	if m == nil {
		return
	}
	m.signalsTotal.Inc()
}

// IncResubscriptions counts one successful re-subscribe.
func (m *Metrics) IncResubscriptions() {
	if m == nil {
		return
	}
	m.resubscriptionsTotal.Inc()
}

// IncConfigReload counts a reload with result "changed", "unchanged" or "error".
func (m *Metrics) IncConfigReload(result string) {
	if m == nil {
		return
	}
	m.configReloadsTotal.WithLabelValues(result).Inc()
}

// SetActiveProfile marks profile as the only active one.
func (m *Metrics) SetActiveProfile(profile string) {
	if m == nil || profile == "" {
		return
	}
	m.activeProfile.Reset()
	m.activeProfile.WithLabelValues(profile).Set(1)
}

// SetSubscriptionUp records subscription liveness.
func (m *Metrics) SetSubscriptionUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.subscriptionUp.Set(1)
		return
	}
	m.subscriptionUp.Set(0)
}

// SetLastSuccessfulCycleTimestamp sets the last successful cycle time.
func (m *Metrics) SetLastSuccessfulCycleTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCycleGauge.Set(float64(t.Unix()))
}
