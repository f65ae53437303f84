package form

import "math"

// State is the navigator position. Step is in [1, ConfirmationStep].
type State struct {
	Step int `json:"step"`
}

// Start is the initial navigator state.
func Start() State {
	return State{Step: 1}
}

// Transition describes a step change.
type Transition struct {
	From        int
	To          int
	ScrollToTop bool
	Progress    int
}

// Next moves forward one step. It reports false when already on the
// confirmation step.
func Next(s State) (State, Transition, bool) {
	if s.Step >= ConfirmationStep {
		return s, Transition{}, false
	}
	to := s.Step + 1
	return State{Step: to}, Transition{
		From:        s.Step,
		To:          to,
		ScrollToTop: to == 1 || to == ConfirmationStep,
		Progress:    Progress(to),
	}, true
}

// Back moves back one step without scrolling. It reports false on step 1.
func Back(s State) (State, Transition, bool) {
	if s.Step <= 1 {
		return s, Transition{}, false
	}
	to := s.Step - 1
	return State{Step: to}, Transition{
		From:     s.Step,
		To:       to,
		Progress: Progress(to),
	}, true
}

// Progress is the percentage shown by the progress bar for step.
func Progress(step int) int {
	return int(math.Round(float64(step-1) / float64(TotalSteps) * 100))
}

// HasContinue reports whether the step renders a continue control.
func HasContinue(step int) bool {
	return step >= 1 && step < ContactStep
}

// EnterAdvances reports whether an Enter keypress on an element of
// targetType should trigger the visible step's continue action.
func EnterAdvances(step int, key, targetType string) bool {
	if key != "Enter" {
		return false
	}
	switch targetType {
	case "text", "email", "tel", "textarea":
		return false
	}
	return HasContinue(step)
}
