package form

import (
	"sync"
	"time"
)

// Auto-advance delays used by the landing page.
const (
	SingleChoiceDelay = 400 * time.Millisecond
	MultiChoiceDelay  = 800 * time.Millisecond
)

// Delays configures auto-advance timing.
type Delays struct {
	Single time.Duration
	Multi  time.Duration
}

// DefaultDelays returns the stock auto-advance delays.
func DefaultDelays() Delays {
	return Delays{Single: SingleChoiceDelay, Multi: MultiChoiceDelay}
}

// AutoAdvance is the scheduling decision for a selection change.
type AutoAdvance struct {
	// CancelPending drops a previously scheduled advance for the step.
	CancelPending bool
	Schedule      bool
	Delay         time.Duration
}

// AutoAdvanceFor decides what a change on step should schedule. Single
// choice steps always schedule an independent advance; the multi choice
// step restarts its timer on every change and only schedules while at
// least one box is checked.
func AutoAdvanceFor(step int, in Input, d Delays) AutoAdvance {
	def, ok := Lookup(step)
	if !ok {
		return AutoAdvance{}
	}
	switch def.Kind {
	case KindMultiChoice:
		return AutoAdvance{
			CancelPending: true,
			Schedule:      len(in.Checked) > 0,
			Delay:         d.Multi,
		}
	case KindSingleChoice:
		return AutoAdvance{
			Schedule: len(in.Checked) > 0,
			Delay:    d.Single,
		}
	}
	return AutoAdvance{}
}

// Scheduler runs delayed callbacks. Keyed callbacks replace any pending
// callback under the same key; unkeyed ones run independently.
type Scheduler struct {
	mu      sync.Mutex
	keyed   map[string]*time.Timer
	loose   map[*time.Timer]struct{}
	stopped bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		keyed: make(map[string]*time.Timer),
		loose: make(map[*time.Timer]struct{}),
	}
}

// Debounce cancels the pending callback for key and schedules fn after d.
func (s *Scheduler) Debounce(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.keyed[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		current := s.keyed[key] == t
		if current {
			delete(s.keyed, key)
		}
		s.mu.Unlock()
		if current {
			fn()
		}
	})
	s.keyed[key] = t
}

// Cancel drops the pending callback for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.keyed[key]; ok {
		t.Stop()
		delete(s.keyed, key)
	}
}

// After schedules fn after d without replacing anything.
func (s *Scheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.loose[t]
		delete(s.loose, t)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	s.loose[t] = struct{}{}
}

// Pending returns the number of callbacks that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keyed) + len(s.loose)
}

// Stop cancels everything and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, t := range s.keyed {
		t.Stop()
		delete(s.keyed, key)
	}
	for t := range s.loose {
		t.Stop()
		delete(s.loose, t)
	}
}
