// Package dispatch posts finished leads to the configured webhook endpoints.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wolfman30/smp-leadform/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("leadform/dispatch")

// ErrNoEndpoints is returned when a dispatcher has nothing to post to.
var ErrNoEndpoints = errors.New("dispatch: no endpoints configured")

// Endpoint is one webhook target.
type Endpoint struct {
	Name string
	URL  string
}

// Outcome records what happened to one request.
type Outcome struct {
	Endpoint   Endpoint
	StatusCode int
	Err        error
	Duration   time.Duration
}

// OK reports whether the request was issued without a transport error.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result is the joined outcome of one submission.
type Result struct {
	Outcomes []Outcome
	err      error
}

// Err returns the first failure observed, or nil when every request was issued.
func (r Result) Err() error {
	return r.err
}

// NewResult joins outcomes the way Dispatch does: the first failed
// outcome becomes the result error.
func NewResult(outcomes ...Outcome) Result {
	r := Result{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			r.err = o.Err
			break
		}
	}
	return r
}

// Observer receives per-request measurements.
type Observer interface {
	ObserveDispatch(endpoint, status string, seconds float64)
}

// Dispatcher posts one payload to every endpoint concurrently. Responses
// are not interpreted: an endpoint that answers at all counts as issued.
type Dispatcher struct {
	client    *http.Client
	endpoints []Endpoint
	observer  Observer
	logger    *logging.Logger
}

// NewDispatcher builds a dispatcher for the given endpoint URLs.
func NewDispatcher(urls []string, client *http.Client, observer Observer, logger *logging.Logger) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	endpoints := make([]Endpoint, 0, len(urls))
	for _, raw := range urls {
		endpoints = append(endpoints, Endpoint{Name: endpointName(raw), URL: raw})
	}
	return &Dispatcher{
		client:    client,
		endpoints: endpoints,
		observer:  observer,
		logger:    logger,
	}
}

// Endpoints returns the configured targets.
func (d *Dispatcher) Endpoints() []Endpoint {
	return append([]Endpoint(nil), d.endpoints...)
}

// Dispatch posts payload to all endpoints and waits until every request
// has settled. A failing request never cancels the others.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) Result {
	if len(d.endpoints) == 0 {
		return Result{err: ErrNoEndpoints}
	}

	ctx, span := tracer.Start(ctx, "dispatch.submit")
	defer span.End()
	span.SetAttributes(attribute.Int("dispatch.endpoints", len(d.endpoints)))

	outcomes := make([]Outcome, len(d.endpoints))
	var g errgroup.Group
	for i, ep := range d.endpoints {
		i, ep := i, ep
		g.Go(func() error {
			outcomes[i] = d.post(ctx, ep, payload)
			return outcomes[i].Err
		})
	}
	err := g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
	}
	return Result{Outcomes: outcomes, err: err}
}

func (d *Dispatcher) post(ctx context.Context, ep Endpoint, payload []byte) (out Outcome) {
	ctx, span := tracer.Start(ctx, "dispatch.post", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.endpoint", ep.Name))

	start := time.Now()
	log := d.logger.With("endpoint", ep.Name)
	out = Outcome{Endpoint: ep}
	defer func() {
		out.Duration = time.Since(start)
		status := "ok"
		if out.Err != nil {
			status = "error"
		}
		if d.observer != nil {
			d.observer.ObserveDispatch(ep.Name, status, out.Duration.Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		out.Err = fmt.Errorf("dispatch: build request for %s: %w", ep.Name, err)
		span.RecordError(out.Err)
		return out
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		out.Err = fmt.Errorf("dispatch: post to %s: %w", ep.Name, err)
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, "request failed")
		log.Error("webhook request failed", "error", err)
		return out
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	out.StatusCode = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("webhook answered with error status", "status", resp.StatusCode)
	} else {
		log.Debug("webhook request issued", "status", resp.StatusCode)
	}
	return out
}

func endpointName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
