package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(1))
	assert.Equal(t, 14, Progress(2))
	assert.Equal(t, 43, Progress(4))
	assert.Equal(t, 86, Progress(7))
	assert.Equal(t, 100, Progress(8))
}

func TestNextWalksToConfirmation(t *testing.T) {
	s := Start()
	for want := 2; want <= ConfirmationStep; want++ {
		var tr Transition
		var ok bool
		s, tr, ok = Next(s)
		require.True(t, ok)
		assert.Equal(t, want, s.Step)
		assert.Equal(t, want-1, tr.From)
		assert.Equal(t, Progress(want), tr.Progress)
		assert.Equal(t, want == ConfirmationStep, tr.ScrollToTop, "step %d", want)
	}

	same, _, ok := Next(s)
	assert.False(t, ok)
	assert.Equal(t, s, same)
}

func TestBackStopsAtFirstStep(t *testing.T) {
	s := State{Step: 3}

	s, tr, ok := Back(s)
	require.True(t, ok)
	assert.Equal(t, 2, s.Step)
	assert.False(t, tr.ScrollToTop)

	s, tr, ok = Back(s)
	require.True(t, ok)
	assert.Equal(t, 1, s.Step)
	assert.False(t, tr.ScrollToTop, "back navigation never scrolls")
	assert.Equal(t, 0, tr.Progress)

	_, _, ok = Back(s)
	assert.False(t, ok)
}

func TestEnterAdvances(t *testing.T) {
	assert.True(t, EnterAdvances(1, "Enter", "checkbox"))
	assert.True(t, EnterAdvances(3, "Enter", "radio"))
	assert.True(t, EnterAdvances(6, "Enter", ""))
	assert.False(t, EnterAdvances(6, "Enter", "text"))
	assert.False(t, EnterAdvances(2, "Enter", "email"))
	assert.False(t, EnterAdvances(2, "Enter", "tel"))
	assert.False(t, EnterAdvances(2, "Enter", "textarea"))
	assert.False(t, EnterAdvances(ContactStep, "Enter", "checkbox"))
	assert.False(t, EnterAdvances(ConfirmationStep, "Enter", "button"))
	assert.False(t, EnterAdvances(2, "Tab", "radio"))
}
