package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/ezstats/internal/model"
	"github.com/Dicklesworthstone/ezstats/internal/widget"
)

// Fallback dimensions when the terminal cannot be queried.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

const (
	frameTop    = 2
	contentX    = 2
	contentY    = 3
	labelMargin = 25 // title column + value column + padding around a bar

	helpLine = " [?] Help | [Tab] Next view | [1-4] Switch view | [p] Pause/resume | [r] Refresh | [q] Quit "
)

// SizeFunc reports the terminal size in cells.
type SizeFunc func() (width, height int, err error)

// Renderer paints complete frames. Dimensions are read on every frame.
type Renderer struct {
	size SizeFunc
}

func NewRenderer(size SizeFunc) *Renderer {
	return &Renderer{size: size}
}

// Dimensions returns the current terminal size, or 80x24 when unknown.
func (r *Renderer) Dimensions() (int, int) {
	if r.size == nil {
		return DefaultWidth, DefaultHeight
	}
	w, h, err := r.size()
	if err != nil || w <= 0 || h <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return w, h
}

// Render paints the frame and the current view from snap. It returns the
// first error from the sink.
func (r *Renderer) Render(w io.Writer, st *State, snap model.Snapshot) error {
	width, height := r.Dimensions()
	out := &sink{w: w}
	s := screen{out: out, width: width, height: height}

	s.clear()
	view := st.Views.Current()
	drawTitleBar(s, view, st.AutomaticRefresh)
	drawFrame(s, view.Title(), frameTop, height-3)
	if st.ShowHelpLine {
		s.paint(0, height-1, widget.ColorMuted, helpLine)
	}

	c := s.region(width-1, height-3)
	barWidth := max(width-4-labelMargin, 0)

	switch view {
	case Overview:
		drawOverview(c, snap, barWidth)
	case CPUDetailed:
		drawCPU(c, snap.CPU, barWidth)
	case MemoryDetailed:
		drawMemory(c, snap.Memory, barWidth)
	case GPUDetailed:
		if len(snap.GPUs) == 0 {
			drawNoGPU(c)
		} else {
			drawGPUs(c, snap.GPUs, barWidth)
		}
	case Help:
		drawHelp(s, c, st.HelpGroups())
	}
	return out.err
}

func drawTitleBar(s screen, view ViewType, active bool) {
	s.paint(0, 0, widget.ColorBorder, strings.Repeat("═", s.width))
	s.paint(2, 0, widget.ColorText, " ezstats ")

	name := " " + view.String() + " "
	s.paint((s.width-lipgloss.Width(name))/2, 0, widget.ColorText, name)

	status, color := " ACTIVE ", widget.ColorHealthy
	if !active {
		status, color = " PAUSED ", widget.ColorWarning
	}
	s.paint(s.width-len(status)-2, 0, color, status)
}

// drawFrame draws a single-line box spanning the full width from row top to
// row bottom, with title set into the top border.
func drawFrame(s screen, title string, top, bottom int) {
	b := lipgloss.NormalBorder()
	inner := max(s.width-2, 0)

	s.paint(0, top, widget.ColorBorder, b.TopLeft+strings.Repeat(b.Top, inner)+b.TopRight)
	s.paint(2, top, widget.ColorAccent, " "+title+" ")
	for y := top + 1; y < bottom; y++ {
		s.paint(0, y, widget.ColorBorder, b.Left)
		s.paint(s.width-1, y, widget.ColorBorder, b.Right)
	}
	if bottom > top {
		s.paint(0, bottom, widget.ColorBorder, b.BottomLeft+strings.Repeat(b.Bottom, inner)+b.BottomRight)
	}
}

func drawOverview(s screen, snap model.Snapshot, barWidth int) {
	row := contentY
	s.draw(contentX, row, widget.NewBarChart("CPU Usage", snap.CPU.Total, barWidth))
	row += 2
	s.draw(contentX, row, widget.NewBarChart("Memory Usage", snap.Memory.UsagePercent(), barWidth))
	row += 2

	if len(snap.GPUs) == 0 {
		return
	}
	g := snap.GPUs[0]
	row += s.draw(contentX, row, widget.NewBarChart("GPU #0 Usage", g.Utilization, barWidth))
	s.draw(contentX, row, widget.NewBarChart("GPU #0 Memory", g.MemoryPercent, barWidth))
}

func drawCPU(s screen, cpu model.CPU, barWidth int) {
	row := contentY
	s.draw(contentX, row, widget.NewBarChart("Overall CPU", cpu.Total, barWidth))
	row += 2
	for i, usage := range cpu.PerCore {
		if row >= s.height {
			return
		}
		row += s.draw(contentX, row, widget.NewBarChart(fmt.Sprintf("Core #%d", i), usage, barWidth))
	}
}

func drawMemory(s screen, m model.Memory, barWidth int) {
	row := contentY
	s.paint(contentX, row, widget.ColorText, "Memory Statistics:")
	row++

	t := newInfoTable()
	t.row("Total Memory:", fmt.Sprintf("%d MB", m.TotalMB))
	t.row("Used Memory:", fmt.Sprintf("%d MB", m.UsedMB))
	t.row("Free Memory:", fmt.Sprintf("%d MB", m.FreeMB()))
	t.row("Usage Percentage:", fmt.Sprintf("%.1f%%", m.UsagePercent()))
	row += s.draw(contentX, row, t.block())
	row++

	s.draw(contentX, row, widget.NewBarChart("Memory Usage", m.UsagePercent(), barWidth))
}

func drawGPUs(s screen, gpus []model.GPUInfo, barWidth int) {
	row := contentY
	for i, g := range gpus {
		if row >= s.height {
			return
		}
		s.paint(contentX, row, widget.ColorHealthy, fmt.Sprintf("=== %s #%d ===", g.Vendor.Label(), i))
		row++

		t := newInfoTable()
		t.heading(fmt.Sprintf("GPU #%d: %s", i, g.Name))
		if g.Vendor == model.VendorNVIDIA {
			t.row("Temperature:", fmt.Sprintf("%d°C", g.TemperatureC))
		}
		if g.Vendor == model.VendorApple {
			t.row("Type:", appleType(g))
		}
		t.row("Memory:", fmt.Sprintf("%d MB", g.TotalMemoryMB))
		if g.Vendor == model.VendorNVIDIA {
			t.row("Memory Usage:", fmt.Sprintf("%d / %d MB", g.UsedMemoryMB, g.TotalMemoryMB))
		}
		row += s.draw(contentX, row, t.block())
		row++

		row += s.draw(contentX, row, widget.NewBarChart("GPU Utilization", g.Utilization, barWidth))
		if g.Vendor == model.VendorNVIDIA {
			row += s.draw(contentX, row, widget.NewBarChart("GPU Memory", g.MemoryPercent, barWidth))
		}
		row++
	}
}

// appleType ranks headless over low power over discrete.
func appleType(g model.GPUInfo) string {
	switch {
	case g.Headless:
		return "Headless"
	case g.LowPower:
		return "Integrated/Low Power"
	default:
		return "Discrete/High Performance"
	}
}

func drawNoGPU(s screen) {
	s.draw(contentX, contentY, widget.NewTextLines(
		"No GPU monitoring available.",
		"",
		"Supported GPU backends:",
		"  NVIDIA  via NVML or nvidia-smi",
		"  Apple   via Metal device enumeration (system_profiler)",
	))
}

var helpFooter = []string{
	"ezstats is a lightweight terminal-based system monitor",
	"designed for minimal resource usage while providing",
	"real-time monitoring of system resources.",
}

// drawHelp lists bindings inside the frame and sets the footer over the
// bottom rows, which the content region does not reach.
func drawHelp(full, s screen, groups []HelpGroup) {
	row := contentY
	for i, g := range groups {
		if i > 0 {
			row++
		}
		s.paint(contentX, row, widget.ColorHealthy, "» "+g.Name)
		row++
		for _, b := range g.Bindings {
			h := b.Help()
			s.put(contentX+2, row, widget.Paint(widget.ColorWarning, widget.PadRight(h.Key, 12))+" → "+h.Desc)
			row++
		}
	}

	top := full.height - 5
	for i, line := range helpFooter {
		full.paint(contentX+2, top+i, widget.ColorMuted, line)
	}
}
