package commands

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// newFormModel is the interactive form shown by `relnote new`.
// Three fields, tab/enter to advance, esc to cancel. done is set only on
// submit; any other exit counts as a cancel.
type newFormModel struct {
	inputs  []textinput.Model
	focused int
	done    bool

	labelStyle lipgloss.Style
	helpStyle  lipgloss.Style
}

const (
	fieldTags = iota
	fieldTickets
	fieldBody
	fieldCount
)

func newFragmentForm() newFormModel {
	inputs := make([]textinput.Model, fieldCount)

	tags := textinput.New()
	tags.Placeholder = "bug, orm"
	tags.CharLimit = 120
	tags.Width = 50
	tags.Focus()
	inputs[fieldTags] = tags

	tickets := textinput.New()
	tickets.Placeholder = "4349"
	tickets.CharLimit = 60
	tickets.Width = 50
	inputs[fieldTickets] = tickets

	body := textinput.New()
	body.Placeholder = "Fixed regression where ..."
	body.CharLimit = 500
	body.Width = 70
	inputs[fieldBody] = body

	return newFormModel{
		inputs:     inputs,
		labelStyle: lipgloss.NewStyle().Bold(true),
		helpStyle:  lipgloss.NewStyle().Faint(true),
	}
}

func (m newFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m newFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter, tea.KeyTab:
			if m.focused == fieldCount-1 && msg.Type == tea.KeyEnter {
				m.done = true
				return m, tea.Quit
			}
			m.inputs[m.focused].Blur()
			m.focused = (m.focused + 1) % fieldCount
			m.inputs[m.focused].Focus()
			return m, nil
		case tea.KeyShiftTab:
			m.inputs[m.focused].Blur()
			m.focused = (m.focused + fieldCount - 1) % fieldCount
			m.inputs[m.focused].Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m newFormModel) View() string {
	var b strings.Builder

	b.WriteString(m.labelStyle.Render("New changelog fragment") + "\n\n")
	labels := [fieldCount]string{"Tags", "Tickets", "Summary"}
	for i, in := range m.inputs {
		b.WriteString(m.labelStyle.Render(labels[i]) + "\n")
		b.WriteString(in.View() + "\n\n")
	}
	b.WriteString(m.helpStyle.Render("enter: next field / submit · esc: cancel"))
	return b.String()
}

// runNewForm runs the interactive form and returns the final model.
func runNewForm(_ *NewOptions) (*newFormModel, error) {
	p := tea.NewProgram(newFragmentForm())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(newFormModel)
	return &m, nil
}

// applyFormValues copies form fields into the command options.
func applyFormValues(opts *NewOptions, m *newFormModel) {
	for _, raw := range strings.Split(m.inputs[fieldTags].Value(), ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			opts.Tags = append(opts.Tags, tag)
		}
	}
	for _, raw := range strings.Split(m.inputs[fieldTickets].Value(), ",") {
		raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Tickets = append(opts.Tickets, n)
		}
	}
	opts.Body = strings.TrimSpace(m.inputs[fieldBody].Value())
}
