// Package session keeps per-visitor form state between requests.
package session

import (
	"errors"
	"time"

	"github.com/wolfman30/smp-leadform/internal/form"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-held state of one visitor's form.
type Session struct {
	ID          string           `json:"id"`
	Step        int              `json:"step"`
	Answers     form.Answers     `json:"answers"`
	Errors      map[int]string   `json:"errors,omitempty"`
	ErrorFields map[int][]string `json:"error_fields,omitempty"`
	// ScrollToTop is set by the last transition.
	ScrollToTop bool      `json:"scroll_to_top"`
	Submitting  bool      `json:"submitting"`
	Completed   bool      `json:"completed"`
	Variant     string    `json:"variant,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New returns a session positioned on the first step.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Step:      form.Start().Step,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State returns the navigator state of the session.
func (s *Session) State() form.State {
	return form.State{Step: s.Step}
}

// ShowError marks step as failed with message and the offending fields.
func (s *Session) ShowError(step int, message string, fields []string) {
	if s.Errors == nil {
		s.Errors = make(map[int]string)
	}
	if s.ErrorFields == nil {
		s.ErrorFields = make(map[int][]string)
	}
	s.Errors[step] = message
	if len(fields) > 0 {
		s.ErrorFields[step] = append([]string(nil), fields...)
	} else {
		delete(s.ErrorFields, step)
	}
}

// HideError clears any error state of step.
func (s *Session) HideError(step int) {
	delete(s.Errors, step)
	delete(s.ErrorFields, step)
}

// Clone returns a deep copy, so stores never share maps with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers.HairLossType = append([]string(nil), s.Answers.HairLossType...)
	if s.Errors != nil {
		out.Errors = make(map[int]string, len(s.Errors))
		for k, v := range s.Errors {
			out.Errors[k] = v
		}
	}
	if s.ErrorFields != nil {
		out.ErrorFields = make(map[int][]string, len(s.ErrorFields))
		for k, v := range s.ErrorFields {
			out.ErrorFields[k] = append([]string(nil), v...)
		}
	}
	return &out
}
