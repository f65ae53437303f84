package leads

import (
	"errors"
	"fmt"
	"strings"
)

// MsgSubmitFailed is shown on the contact step when the webhooks fail.
const MsgSubmitFailed = "There was an error submitting your form. Please try again."

var (
	// ErrSessionNotFound is returned when a session is unknown or expired
	ErrSessionNotFound = errors.New("leads: session not found")

	// ErrStepMismatch is returned when a request targets a step other than the visible one
	ErrStepMismatch = errors.New("leads: step is not the current step")

	ErrInvalidStep = errors.New("leads: invalid step")

	// ErrDispatchFailed is returned when at least one webhook request failed
	ErrDispatchFailed = errors.New("leads: lead dispatch failed")

	ErrAlreadySubmitted = errors.New("leads: form already submitted")

	// ErrIncompleteAnswers is returned when a submit reaches the contact step
	// without the answers of earlier required steps
	ErrIncompleteAnswers = errors.New("leads: required answers missing")
)

// ValidationError reports a step that did not pass validation.
type ValidationError struct {
	Step    int
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("leads: step %d invalid: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("leads: step %d invalid (%s): %s", e.Step, strings.Join(e.Fields, ", "), e.Message)
}
