package widget

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TextBlock is a run of lines sharing one optional color.
type TextBlock struct {
	lines []string
	color *lipgloss.Color
}

// NewTextBlock splits text on newlines.
func NewTextBlock(text string) TextBlock {
	return TextBlock{lines: strings.Split(text, "\n")}
}

// NewTextLines wraps already-split lines.
func NewTextLines(lines ...string) TextBlock {
	return TextBlock{lines: lines}
}

// WithColor returns a copy painted in c.
func (t TextBlock) WithColor(c lipgloss.Color) TextBlock {
	t.color = &c
	return t
}

func (t TextBlock) Lines() []string { return t.lines }

func (t TextBlock) Draw(w io.Writer) error {
	var sb strings.Builder
	for _, line := range t.lines {
		if t.color != nil {
			line = Paint(*t.color, line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
