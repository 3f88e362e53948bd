package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolutionMetrics counts price resolution outcomes.
type ResolutionMetrics struct {
	duration *prometheus.HistogramVec
	resolved *prometheus.CounterVec
	noRule   prometheus.Counter
	clamped  prometheus.Counter
}

// NewResolutionMetrics registers the resolver metrics on the provided registerer.
func NewResolutionMetrics(reg prometheus.Registerer) *ResolutionMetrics {
	if reg == nil {
		return &ResolutionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "price_resolution_duration_seconds",
		Help:      "Duration of price resolutions in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_resolutions_total",
		Help:      "Price resolutions by outcome.",
	}, []string{"outcome"})
	noRule := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_resolution_no_rule_total",
		Help:      "Resolutions that found no applicable rule.",
	})
	clamped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_resolution_clamped_total",
		Help:      "Resolutions whose computed amount was clamped to zero.",
	})
	reg.MustRegister(duration, resolved, noRule, clamped)
	return &ResolutionMetrics{
		duration: duration,
		resolved: resolved,
		noRule:   noRule,
		clamped:  clamped,
	}
}

// ObserveResolution records one resolution with its outcome label.
func (m *ResolutionMetrics) ObserveResolution(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(outcomeLabel(outcome)).Observe(duration.Seconds())
	m.resolved.WithLabelValues(outcomeLabel(outcome)).Inc()
}

// IncNoRule counts a resolution that produced no applicable rule.
func (m *ResolutionMetrics) IncNoRule() {
	if m == nil || m.noRule == nil {
		return
	}
	m.noRule.Inc()
}

// IncClamped counts a resolution whose final amount was clamped to zero.
func (m *ResolutionMetrics) IncClamped() {
	if m == nil || m.clamped == nil {
		return
	}
	m.clamped.Inc()
}

func outcomeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
