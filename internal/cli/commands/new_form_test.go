package commands

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestFragmentFormSubmitSetsDone(t *testing.T) {
	var m tea.Model = newFragmentForm()

	// Enter advances through the fields; on the last one it submits.
	for i := 0; i < fieldCount; i++ {
		assert.False(t, m.(newFormModel).done)
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	assert.True(t, m.(newFormModel).done)
}

func TestFragmentFormEscAbandons(t *testing.T) {
	m, _ := newFragmentForm().Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.(newFormModel).done)

	m, _ = newFragmentForm().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.False(t, m.(newFormModel).done)
}

func TestFragmentFormTabCyclesFocus(t *testing.T) {
	var m tea.Model = newFragmentForm()
	for i := 0; i < fieldCount; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	form := m.(newFormModel)
	assert.Equal(t, 0, form.focused, "tab wraps back to the first field")
	assert.False(t, form.done, "tab never submits")
}
