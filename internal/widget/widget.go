// Package widget paints self-contained pieces of a frame. A widget never
// positions itself: it writes from wherever the cursor is and ends with a
// newline, and the caller moves the cursor first.
package widget

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Widget paints one widget onto w.
type Widget interface {
	Draw(w io.Writer) error
}

// 16-color palette. Numbers are ANSI indexes so output stays within the
// basic foreground set on every terminal.
const (
	ColorHealthy  = lipgloss.Color("2") // green
	ColorWarning  = lipgloss.Color("3") // yellow
	ColorCritical = lipgloss.Color("1") // red
	ColorMuted    = lipgloss.Color("8") // dark grey
	ColorBorder   = lipgloss.Color("4") // blue
	ColorAccent   = lipgloss.Color("6") // cyan
	ColorText     = lipgloss.Color("7") // white
)

// Thresholds for metric severity levels.
const (
	WarningThreshold  = 50.0
	CriticalThreshold = 80.0
)

// ThresholdColor picks red above 80%, yellow above 50%, green otherwise.
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent > CriticalThreshold:
		return ColorCritical
	case percent > WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// Paint renders s in the given foreground color using the active profile.
func Paint(c lipgloss.Color, s string) string {
	if s == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

// PadRight pads s with spaces to exactly width display columns, cutting it
// with an ellipsis when it is wider.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// Truncate shortens s to at most n display columns, marking the cut with "…".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
