package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFormMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFormMetrics(reg)

	m.ObserveStep(1, true)
	m.ObserveStep(1, true)
	m.ObserveStep(6, false)
	m.ObserveSubmission("success")
	m.ObserveLeadScore(90)
	m.ObserveDispatch("hooks.example.com", "ok", 0.2)
	m.ObserveAnalyticsEvent("form_step_viewed")

	if got := testutil.ToFloat64(m.stepsCompleted.WithLabelValues("1")); got != 2 {
		t.Fatalf("expected 2 completed step-1 validations, got %v", got)
	}
	if got := testutil.ToFloat64(m.validationFailures.WithLabelValues("6")); got != 1 {
		t.Fatalf("expected 1 zip failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatchTotal.WithLabelValues("hooks.example.com", "ok")); got != 1 {
		t.Fatalf("expected 1 dispatch, got %v", got)
	}
}

func TestFormMetricsNilSafe(t *testing.T) {
	var m *FormMetrics
	m.ObserveStep(1, true)
	m.ObserveSubmission("success")
	m.ObserveLeadScore(50)
	m.ObserveDispatch("x", "ok", 0.1)
	m.ObserveAnalyticsEvent("event")
}
