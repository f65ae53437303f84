package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// FormMetrics exposes counters/histograms for the qualification form.
type FormMetrics struct {
	stepsCompleted     *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	leadScore          prometheus.Histogram
	dispatchTotal      *prometheus.CounterVec
	dispatchLatency    *prometheus.HistogramVec
	analyticsEvents    *prometheus.CounterVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		stepsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "steps_completed_total",
			Help:      "Steps that passed validation",
		}, []string{"step"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "validation_failures_total",
			Help:      "Step validations that failed",
		}, []string{"step"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Final form submissions by outcome",
		}, []string{"status"}),
		leadScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadform",
			Subsystem: "form",
			Name:      "lead_score",
			Help:      "Distribution of computed lead scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Webhook requests by endpoint and outcome",
		}, []string{"endpoint", "status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadform",
			Subsystem: "dispatch",
			Name:      "latency_seconds",
			Help:      "Latency of webhook requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		analyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadform",
			Subsystem: "analytics",
			Name:      "events_total",
			Help:      "Tracked analytics events",
		}, []string{"event"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.stepsCompleted,
		m.validationFailures,
		m.submissions,
		m.leadScore,
		m.dispatchTotal,
		m.dispatchLatency,
		m.analyticsEvents,
	)
	return m
}

func (m *FormMetrics) ObserveStep(step int, valid bool) {
	if m == nil {
		return
	}
	label := strconv.Itoa(step)
	if valid {
		m.stepsCompleted.WithLabelValues(label).Inc()
		return
	}
	m.validationFailures.WithLabelValues(label).Inc()
}

func (m *FormMetrics) ObserveSubmission(status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status).Inc()
}

func (m *FormMetrics) ObserveLeadScore(score int) {
	if m == nil {
		return
	}
	m.leadScore.Observe(float64(score))
}

func (m *FormMetrics) ObserveDispatch(endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(endpoint, status).Inc()
	m.dispatchLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *FormMetrics) ObserveAnalyticsEvent(event string) {
	if m == nil {
		return
	}
	m.analyticsEvents.WithLabelValues(event).Inc()
}
