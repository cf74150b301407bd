package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// reporter prints user-facing diagnostics. Styles are dropped automatically
// when the target writer is not a terminal.
type reporter struct {
	stdout  io.Writer
	stderr  io.Writer
	verbose bool

	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	mutedStyle   lipgloss.Style
}

func newReporter(stdout, stderr io.Writer) *reporter {
	out := lipgloss.NewRenderer(stdout)
	errOut := lipgloss.NewRenderer(stderr)

	return &reporter{
		stdout:       stdout,
		stderr:       stderr,
		successStyle: out.NewStyle().Foreground(lipgloss.Color("2")),
		errorStyle:   errOut.NewStyle().Foreground(lipgloss.Color("203")),
		warnStyle:    errOut.NewStyle().Foreground(lipgloss.Color("214")),
		mutedStyle:   errOut.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (r *reporter) Success(format string, args ...any) {
	fmt.Fprintln(r.stdout, renderLines(r.successStyle, fmt.Sprintf(format, args...)))
}

func (r *reporter) Error(err error) {
	fmt.Fprintln(r.stderr, renderLines(r.errorStyle, "Error: "+err.Error()))
}

func (r *reporter) Warn(format string, args ...any) {
	fmt.Fprintln(r.stderr, renderLines(r.warnStyle, "Warning: "+fmt.Sprintf(format, args...)))
}

// Debug only prints in verbose mode
func (r *reporter) Debug(format string, args ...any) {
	if !r.verbose {
		return
	}
	fmt.Fprintln(r.stderr, renderLines(r.mutedStyle, fmt.Sprintf(format, args...)))
}

// renderLines styles each line on its own; Render on multi-line text pads
// every line to the widest one
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}
