package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/ezstats/internal/widget"
)

// Info box geometry: two padded columns between single-line borders.
const (
	tableLabelWidth = 18
	tableValueWidth = 25
	tableInnerWidth = tableLabelWidth + tableValueWidth + 5
)

// infoTable is a boxed label/value listing with an optional centered
// heading row.
type infoTable struct {
	lines []string
}

func newInfoTable() *infoTable { return &infoTable{} }

func (t *infoTable) heading(text string) {
	b := lipgloss.NormalBorder()
	w := tableInnerWidth - 2
	text = lipgloss.PlaceHorizontal(w, lipgloss.Center, widget.Truncate(text, w))
	t.lines = append(t.lines, b.Left+" "+text+" "+b.Right)
}

func (t *infoTable) row(label, value string) {
	b := lipgloss.NormalBorder()
	t.lines = append(t.lines, b.Left+" "+widget.PadRight(label, tableLabelWidth)+" "+b.Left+" "+
		widget.PadRight(value, tableValueWidth)+" "+b.Right)
}

func (t *infoTable) block() widget.TextBlock {
	b := lipgloss.NormalBorder()
	edge := strings.Repeat(b.Top, tableInnerWidth)
	lines := make([]string, 0, len(t.lines)+2)
	lines = append(lines, b.TopLeft+edge+b.TopRight)
	lines = append(lines, t.lines...)
	lines = append(lines, b.BottomLeft+strings.Repeat(b.Bottom, tableInnerWidth)+b.BottomRight)
	return widget.NewTextLines(lines...)
}
