package widget

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/ezstats/internal/model"
)

const (
	// TitleWidth is the fixed title column so bars line up across rows.
	TitleWidth = 15

	MinBarWidth = 10
	MaxBarWidth = 200

	gaugeFill  = "█"
	gaugeEmpty = "░"
)

// BarChart is a titled horizontal gauge for a percentage.
type BarChart struct {
	title string
	value float64
	width int
}

// NewBarChart clamps value into [0, 100] and width into [10, 200].
func NewBarChart(title string, value float64, width int) BarChart {
	return BarChart{
		title: title,
		value: model.Clamp(value, 0, 100),
		width: min(max(width, MinBarWidth), MaxBarWidth),
	}
}

func (b BarChart) Title() string  { return b.title }
func (b BarChart) Value() float64 { return b.value }
func (b BarChart) Width() int     { return b.width }

// Color is the threshold color for the chart's value.
func (b BarChart) Color() lipgloss.Color { return ThresholdColor(b.value) }

// Filled is the number of fill glyphs, rounded half away from zero.
func (b BarChart) Filled() int {
	return int(math.Round(b.value * float64(b.width) / 100))
}

// Draw writes: 15-column title, filled cells, empty cells, then " %6s" value.
func (b BarChart) Draw(w io.Writer) error {
	filled := b.Filled()
	empty := b.width - filled
	color := b.Color()

	var sb strings.Builder
	sb.WriteString(Paint(ColorText, PadRight(b.title, TitleWidth)))
	if filled > 0 {
		sb.WriteString(Paint(color, strings.Repeat(gaugeFill, filled)))
	}
	if empty > 0 {
		sb.WriteString(Paint(ColorMuted, strings.Repeat(gaugeEmpty, empty)))
	}
	sb.WriteString(Paint(color, fmt.Sprintf(" %6s", fmt.Sprintf("%.1f%%", b.value))))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
