// Package app drives the dashboard: one goroutine polls keys, samples on a
// timer, paints frames, and owns the terminal from entry to restoration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/ezstats/internal/config"
	"github.com/Dicklesworthstone/ezstats/internal/model"
	"github.com/Dicklesworthstone/ezstats/internal/ui"
)

// Terminal is the screen and keyboard the loop runs on.
type Terminal interface {
	io.Writer
	Enter() error
	Restore() error
	PollKey(timeout time.Duration) (tea.KeyMsg, bool, error)
	Size() (width, height int, err error)
	Flush() error
}

// HostSampler supplies CPU and memory readings.
type HostSampler interface {
	Refresh() error
	CPU() model.CPU
	Memory() model.Memory
}

// GPUSource supplies cached GPU snapshots.
type GPUSource interface {
	HasGPUs() bool
	GetGPUInfo() []model.GPUInfo
}

// Loop is the event/refresh loop. It is not safe for concurrent use.
type Loop struct {
	cfg      config.Config
	term     Terminal
	host     HostSampler
	gpus     GPUSource
	state    *ui.State
	renderer *ui.Renderer
	logger   *slog.Logger

	lastHostErr   string
	width, height int
}

// NewLoop wires the loop. The GPU view is registered only if gpus reports
// devices now. A nil clock means time.Now.
func NewLoop(cfg config.Config, t Terminal, host HostSampler, gpus GPUSource, logger *slog.Logger, now func() time.Time) *Loop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		cfg:      cfg,
		term:     t,
		host:     host,
		gpus:     gpus,
		state:    ui.NewState(gpus.HasGPUs(), cfg.ShowHelpLine, now),
		renderer: ui.NewRenderer(t.Size),
		logger:   logger,
	}
}

// State exposes the UI state for inspection.
func (l *Loop) State() *ui.State { return l.state }

// Run enters the terminal, loops until quit or ctx is done, and restores
// the terminal on every path, panics included. A restore failure is
// reported only when nothing failed before it.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if rerr := l.term.Restore(); rerr != nil {
			l.logger.Error("terminal restore failed", "error", rerr)
			if err == nil {
				err = fmt.Errorf("restore terminal: %w", rerr)
			}
		}
	}()

	if err := l.term.Enter(); err != nil {
		return fmt.Errorf("enter terminal: %w", err)
	}
	return l.loop(ctx)
}

func (l *Loop) loop(ctx context.Context) error {
	l.refresh()
	l.state.MarkUpdated()
	if err := l.render(); err != nil {
		return err
	}

	for l.state.Running {
		if ctx.Err() != nil {
			return nil
		}

		msg, ok, err := l.term.PollKey(l.cfg.PollInterval)
		if err != nil {
			return err
		}
		if ok {
			repaint := l.state.HandleKey(msg)
			if !l.state.Running {
				return nil
			}
			if l.state.TakeRefreshRequest() {
				l.refresh()
			}
			if repaint {
				if err := l.render(); err != nil {
					return err
				}
			}
		}

		switch {
		case l.state.ShouldUpdate(l.cfg.RefreshRate):
			l.refresh()
			l.state.MarkUpdated()
			if err := l.render(); err != nil {
				return err
			}
		case l.resized():
			if err := l.render(); err != nil {
				return err
			}
		}
	}
	return nil
}

// refresh re-samples the host. Failures keep the previous readings; each
// distinct failure is logged once.
func (l *Loop) refresh() {
	err := l.host.Refresh()
	if err == nil {
		l.lastHostErr = ""
		return
	}
	if msg := err.Error(); msg != l.lastHostErr {
		l.lastHostErr = msg
		l.logger.Warn("host sampling failed", "error", err)
	}
}

// render paints one frame. The host readings and the GPU cache are read
// before the frame is composed.
func (l *Loop) render() error {
	snap := model.Snapshot{
		CPU:    l.host.CPU(),
		Memory: l.host.Memory(),
		GPUs:   l.gpus.GetGPUInfo(),
	}
	l.width, l.height = l.renderer.Dimensions()
	if err := l.renderer.Render(l.term, l.state, snap); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := l.term.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

func (l *Loop) resized() bool {
	w, h := l.renderer.Dimensions()
	return w != l.width || h != l.height
}
