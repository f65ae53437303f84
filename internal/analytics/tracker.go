// Package analytics forwards form events to tracking providers. Tracking
// is best-effort: providers swallow their own failures.
package analytics

import (
	"context"
	"fmt"

	"github.com/wolfman30/smp-leadform/internal/form"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// Event names emitted by the form.
const (
	EventStepViewed = "form_step_viewed"
	EventSubmitted  = "form_submitted"
	EventLead       = "Lead"
)

// Conversion defaults reported with every lead.
const (
	ConversionContentName     = "SMP Qualification Form"
	ConversionContentCategory = "Lead Generation"
	ConversionCurrency        = "USD"
)

// Props are free-form event properties.
type Props map[string]any

// Conversion is a completed lead as seen by ad platforms.
type Conversion struct {
	Score   int
	Quality string
	Variant string
}

// Props returns the properties sent with the conversion event.
func (c Conversion) Props() Props {
	return Props{
		"content_name":     ConversionContentName,
		"content_category": ConversionContentCategory,
		"value":            c.Score,
		"currency":         ConversionCurrency,
	}
}

// StepViewed returns the properties of a step view event.
func StepViewed(step int) Props {
	return Props{
		"step":      step,
		"step_name": fmt.Sprintf("Question %d of %d", step, form.TotalSteps),
	}
}

// Tracker receives form events.
type Tracker interface {
	TrackEvent(ctx context.Context, name string, props Props)
	TrackConversion(ctx context.Context, c Conversion)
}

// LogTracker writes events to the structured log.
type LogTracker struct {
	logger *logging.Logger
}

// NewLogTracker creates a tracker backed by logger.
func NewLogTracker(logger *logging.Logger) *LogTracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogTracker{logger: logger}
}

func (t *LogTracker) TrackEvent(_ context.Context, name string, props Props) {
	t.logger.Info("analytics event", "event", name, "props", map[string]any(props))
}

func (t *LogTracker) TrackConversion(_ context.Context, c Conversion) {
	t.logger.Info("analytics conversion", "event", EventLead, "props", map[string]any(c.Props()), "quality", c.Quality, "variant", c.Variant)
}

// EventObserver counts events.
type EventObserver interface {
	ObserveAnalyticsEvent(event string)
}

// MetricsTracker counts events in prometheus.
type MetricsTracker struct {
	observer EventObserver
}

// NewMetricsTracker creates a tracker that counts every event.
func NewMetricsTracker(observer EventObserver) *MetricsTracker {
	return &MetricsTracker{observer: observer}
}

func (t *MetricsTracker) TrackEvent(_ context.Context, name string, _ Props) {
	if t == nil || t.observer == nil {
		return
	}
	t.observer.ObserveAnalyticsEvent(name)
}

func (t *MetricsTracker) TrackConversion(_ context.Context, _ Conversion) {
	if t == nil || t.observer == nil {
		return
	}
	t.observer.ObserveAnalyticsEvent(EventLead)
}

// Multi fans every event out to a list of trackers. Nil entries are skipped.
type Multi []Tracker

func (m Multi) TrackEvent(ctx context.Context, name string, props Props) {
	for _, t := range m {
		if t != nil {
			t.TrackEvent(ctx, name, props)
		}
	}
}

func (m Multi) TrackConversion(ctx context.Context, c Conversion) {
	for _, t := range m {
		if t != nil {
			t.TrackConversion(ctx, c)
		}
	}
}

var (
	_ Tracker = (*LogTracker)(nil)
	_ Tracker = (*MetricsTracker)(nil)
	_ Tracker = Multi(nil)
)
