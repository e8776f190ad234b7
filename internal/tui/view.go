package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	diagnosticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cwsplay"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render("ctrl+r run • ctrl+s share • pgup/pgdown scroll • esc quit"))
	b.WriteString("\n")
	b.WriteString(m.editor.view())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")
	b.WriteString(m.output.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())

	return b.String()
}

func (m Model) statusLine() string {
	if m.showing {
		if m.status.Level == playground.LevelError {
			return errorStyle.Render(m.status.Message)
		}
		return infoStyle.Render(m.status.Message)
	}
	if m.running {
		return helpStyle.Render("running...")
	}
	return ""
}

func renderEntries(entries []transcript.Entry, width int) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		text := e.Text
		if width > 0 {
			text = lipgloss.NewStyle().Width(width).Render(text)
		}
		if e.Channel == transcript.Diagnostic {
			text = diagnosticStyle.Render(text)
		}
		lines[i] = text
	}
	return strings.Join(lines, "\n")
}
