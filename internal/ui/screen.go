package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/Dicklesworthstone/ezstats/internal/widget"
)

// sink is shared by every region of one frame. The first write error sticks
// and later writes are dropped.
type sink struct {
	w   io.Writer
	err error
}

func (k *sink) write(s string) {
	if k.err != nil {
		return
	}
	_, k.err = io.WriteString(k.w, s)
}

func (k *sink) fail(err error) {
	if k.err == nil {
		k.err = err
	}
}

// screen paints at absolute cell positions. Cells at or past width/height
// are clipped.
type screen struct {
	out    *sink
	width  int
	height int
}

func (s screen) clear() {
	s.out.write(termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 2))
}

func (s screen) moveTo(x, y int) {
	s.out.write(termenv.CSI + fmt.Sprintf(termenv.CursorPositionSeq, y+1, x+1))
}

// put writes text starting at (x, y).
func (s screen) put(x, y int, text string) {
	if text == "" || y < 0 || y >= s.height {
		return
	}
	x = max(x, 0)
	if x >= s.width {
		return
	}
	s.moveTo(x, y)
	s.out.write(ansi.Truncate(text, s.width-x, ""))
}

func (s screen) paint(x, y int, c lipgloss.Color, text string) {
	s.put(x, y, widget.Paint(c, text))
}

// draw renders w and places its lines downward from (x, y). It returns the
// number of rows the widget occupies, painted or clipped.
func (s screen) draw(x, y int, w widget.Widget) int {
	var buf bytes.Buffer
	if err := w.Draw(&buf); err != nil {
		s.out.fail(err)
		return 0
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		s.put(x, y+i, line)
	}
	return len(lines)
}

// region narrows painting to rows above bottom and columns left of right.
func (s screen) region(right, bottom int) screen {
	s.width = min(s.width, right)
	s.height = min(s.height, bottom)
	return s
}
