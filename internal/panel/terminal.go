package panel

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// WriteText prints v as a plain-text panel. When styled is false no escape
// sequences are emitted.
func WriteText(w io.Writer, v *View, styled bool) error {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", style(headerStyle, fmt.Sprintf("Linked mentions of %s (%d)", v.Target.Basename, v.Count)))
	if v.Count == 0 {
		fmt.Fprintf(&b, "%s\n", style(mutedStyle, "  no backlinks"))
	}
	for _, e := range v.Entries {
		fmt.Fprintf(&b, "\n%s %s\n", style(sourceStyle, e.Basename), style(mutedStyle, e.Path))
		width := len(fmt.Sprint(e.Lines[len(e.Lines)-1].Line))
		for _, l := range e.Lines {
			num := fmt.Sprintf("%*d", width, l.Line)
			fmt.Fprintf(&b, "  %s  %s\n", style(mutedStyle, num), l.Content)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
