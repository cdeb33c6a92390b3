// Package checkbox rewrites task-list checkbox tokens in note text.
package checkbox

import (
	"fmt"
	"regexp"
	"strings"
)

// pattern matches a leading list marker followed by a checkbox token.
// Group 1 is everything up to and including "[", group 2 the state character.
var pattern = regexp.MustCompile(`^(\s*(?:[-*+]|\d+[.)])\s+\[)([ xX])\]`)

// Store reads and writes vault files. storage.Provider satisfies it.
type Store interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

// State reports whether line is a task item and, if so, whether it is checked.
func State(line string) (checked, ok bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return false, false
	}
	return m[2] != " ", true
}

// Toggle sets the checkbox on line to checked. Only the character between the
// brackets changes. Lines without a checkbox are returned unchanged with ok=false.
func Toggle(line string, checked bool) (out string, ok bool) {
	loc := pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, false
	}
	mark := " "
	if checked {
		mark = "x"
	}
	return line[:loc[4]] + mark + line[loc[5]:], true
}

// ToggleInText applies Toggle to the 1-based line n of text. changed is false
// when n is out of range, the line has no checkbox, or it already has the
// requested state.
func ToggleInText(text string, n int, checked bool) (out string, changed bool) {
	lines := strings.Split(text, "\n")
	if n < 1 || n > len(lines) {
		return text, false
	}
	line := lines[n-1]
	if current, ok := State(line); !ok || current == checked {
		return text, false
	}
	lines[n-1], _ = Toggle(line, checked)
	return strings.Join(lines, "\n"), true
}

// Apply toggles the checkbox on line n of the note at path and writes the
// note back when it changed. A line that no longer carries a checkbox is a
// silent no-op.
func Apply(store Store, path string, n int, checked bool) (bool, error) {
	data, err := store.Read(path)
	if err != nil {
		return false, err
	}
	out, changed := ToggleInText(string(data), n, checked)
	if !changed {
		return false, nil
	}
	if err := store.Write(path, []byte(out)); err != nil {
		return false, fmt.Errorf("checkbox: write %s: %w", path, err)
	}
	return true, nil
}
