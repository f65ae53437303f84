package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

type countingObserver struct {
	events []string
}

func (c *countingObserver) ObserveAnalyticsEvent(event string) {
	c.events = append(c.events, event)
}

func TestStepViewedProps(t *testing.T) {
	props := StepViewed(3)
	assert.Equal(t, 3, props["step"])
	assert.Equal(t, "Question 3 of 7", props["step_name"])
}

func TestConversionProps(t *testing.T) {
	props := Conversion{Score: 90, Quality: "hot"}.Props()
	assert.Equal(t, Props{
		"content_name":     "SMP Qualification Form",
		"content_category": "Lead Generation",
		"value":            90,
		"currency":         "USD",
	}, props)
}

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	obs := &countingObserver{}
	var buf bytes.Buffer
	tracker := Multi{nil, NewMetricsTracker(obs), NewLogTracker(logging.NewWithWriter(&buf, "info"))}

	tracker.TrackEvent(context.Background(), EventStepViewed, StepViewed(2))
	tracker.TrackConversion(context.Background(), Conversion{Score: 55, Quality: "warm"})

	assert.Equal(t, []string{EventStepViewed, EventLead}, obs.events)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, EventStepViewed, first["event"])
}

func TestMetricsTrackerWithoutObserver(t *testing.T) {
	var tracker *MetricsTracker
	assert.NotPanics(t, func() {
		tracker.TrackEvent(context.Background(), EventSubmitted, nil)
		NewMetricsTracker(nil).TrackConversion(context.Background(), Conversion{})
	})
}
