package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Header1      lipgloss.Style
	Header2      lipgloss.Style
	Bold         lipgloss.Style
	Muted        lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	Info         lipgloss.Style
	FragmentPath lipgloss.Style
	Tag          lipgloss.Style
	Ticket       lipgloss.Style
}

func newStyles(profile termenv.Profile) *Styles {
	r := lipgloss.NewRenderer(nil)
	r.SetColorProfile(profile)

	return &Styles{
		Header1:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Underline(true),
		Header2:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:         r.NewStyle().Bold(true),
		Muted:        r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:      r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:      r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:        r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:         r.NewStyle().Foreground(lipgloss.Color("12")),
		FragmentPath: r.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		Tag:          r.NewStyle().Foreground(lipgloss.Color("14")),
		Ticket:       r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}
