package notify

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var alertStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#DC2626")).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#EF4444")).
	Padding(0, 2)

// Render formats a notification the way the terminal surface shows it
func Render(n Notification) string {
	return alertStyle.Render("⚠ " + n.Message)
}

// TerminalRenderer returns an OnChange hook that prints shown notifications to w
func TerminalRenderer(w io.Writer) func(Notification, bool) {
	return func(n Notification, visible bool) {
		if !visible {
			return
		}
		fmt.Fprintln(w, Render(n))
	}
}
