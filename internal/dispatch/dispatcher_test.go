package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]string
}

func (r *recordingObserver) ObserveDispatch(endpoint, status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]string{}
	}
	r.calls[endpoint] = status
}

func TestDispatchPostsSamePayloadToBoth(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	a := httptest.NewServer(handler)
	defer a.Close()
	b := httptest.NewServer(handler)
	defer b.Close()

	obs := &recordingObserver{}
	d := NewDispatcher([]string{a.URL, b.URL}, nil, obs, logging.New("error"))
	payload, _ := json.Marshal(map[string]any{"leadScore": 90})

	res := d.Dispatch(context.Background(), payload)

	require.NoError(t, res.Err())
	require.Len(t, res.Outcomes, 2)
	for _, o := range res.Outcomes {
		assert.True(t, o.OK())
		assert.Equal(t, http.StatusOK, o.StatusCode)
	}
	assert.Equal(t, []string{string(payload), string(payload)}, bodies)
	assert.Len(t, obs.calls, 2)
}

func TestDispatchRunsConcurrently(t *testing.T) {
	var inflight, peak atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		inflight.Add(-1)
	})
	a := httptest.NewServer(handler)
	defer a.Close()
	b := httptest.NewServer(handler)
	defer b.Close()

	res := NewDispatcher([]string{a.URL, b.URL}, nil, nil, logging.New("error")).Dispatch(context.Background(), []byte(`{}`))

	require.NoError(t, res.Err())
	assert.Equal(t, int32(2), peak.Load())
}

func TestDispatchWaitsForSlowEndpointAfterFailure(t *testing.T) {
	var slowDone atomic.Bool
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(80 * time.Millisecond)
		slowDone.Store(true)
	}))
	defer slow.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	res := NewDispatcher([]string{deadURL, slow.URL}, nil, nil, logging.New("error")).Dispatch(context.Background(), []byte(`{}`))

	require.Error(t, res.Err())
	assert.True(t, slowDone.Load(), "dispatch must wait for the other request to settle")
	assert.False(t, res.Outcomes[0].OK())
	assert.True(t, res.Outcomes[1].OK())
}

func TestDispatchIgnoresErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := NewDispatcher([]string{srv.URL, srv.URL}, nil, nil, logging.New("error")).Dispatch(context.Background(), []byte(`{}`))

	require.NoError(t, res.Err())
	assert.Equal(t, http.StatusInternalServerError, res.Outcomes[0].StatusCode)
}

func TestDispatchWithoutEndpoints(t *testing.T) {
	res := NewDispatcher(nil, nil, nil, nil).Dispatch(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, res.Err(), ErrNoEndpoints)
}

func TestEndpointName(t *testing.T) {
	d := NewDispatcher([]string{"https://hooks.zapier.com/hooks/catch/1/abc/", "not a url"}, nil, nil, nil)
	eps := d.Endpoints()
	assert.Equal(t, "hooks.zapier.com", eps[0].Name)
	assert.Equal(t, "not a url", eps[1].Name)
}

func TestNewResultPicksFirstFailure(t *testing.T) {
	boom := assert.AnError
	res := NewResult(Outcome{StatusCode: 200}, Outcome{Err: boom})
	assert.ErrorIs(t, res.Err(), boom)
	assert.NoError(t, NewResult(Outcome{StatusCode: 204}).Err())
}
