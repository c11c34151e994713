// Package gpu enumerates GPUs across whichever vendor backends initialize at
// runtime and caches the combined snapshot for a short TTL.
//
// A backend is attempted only when enabled in config; one that fails to open
// is logged and left out for the whole session. With zero backends the probe
// still works and simply reports no devices.
package gpu

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Dicklesworthstone/ezstats/internal/config"
	"github.com/Dicklesworthstone/ezstats/internal/model"
)

// Backend is one vendor source of GPU telemetry. Devices returns an error only
// when the whole backend failed; per-device problems are absorbed inside.
type Backend interface {
	Name() string
	Devices() ([]model.GPUInfo, error)
}

// candidate is a backend whose construction may fail.
type candidate struct {
	name string
	open func() (Backend, error)
}

// Probe serves GPU snapshots from a cache that is either fresh (served as a
// copy) or stale (re-probed on the next read). The mutex is held across a
// re-probe so readers never see a half-written cache.
type Probe struct {
	mu          sync.Mutex
	backends    []Backend
	ttl         time.Duration
	lastRefresh time.Time
	cached      []model.GPUInfo
	lastErr     map[string]string

	now    func() time.Time
	logger *slog.Logger
}

// New opens every enabled backend, keeps those that initialize, and performs
// the initial probe. It never fails.
func New(cfg config.Config, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var cands []candidate
	if cfg.EnableNVIDIA {
		cands = append(cands, candidate{name: "NVIDIA", open: func() (Backend, error) {
			return openNVIDIA(cfg.SMITimeout, logger)
		}})
	}
	if cfg.EnableApple {
		cands = append(cands, candidate{name: "Apple", open: func() (Backend, error) {
			return openApple(logger)
		}})
	}
	return newProbe(cands, cfg.GPUCacheTTL, logger, time.Now)
}

func newProbe(cands []candidate, ttl time.Duration, logger *slog.Logger, now func() time.Time) *Probe {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Probe{
		ttl:     ttl,
		lastErr: make(map[string]string),
		now:     now,
		logger:  logger,
	}
	for _, c := range cands {
		b, err := c.open()
		if err != nil {
			logger.Info("GPU backend unavailable", "backend", c.name, "error", err)
			continue
		}
		logger.Info("GPU backend initialized", "backend", b.Name())
		p.backends = append(p.backends, b)
	}

	p.mu.Lock()
	p.refreshLocked()
	p.mu.Unlock()
	return p
}

// HasGPUs reports whether the last probe found at least one device.
func (p *Probe) HasGPUs() bool {
	return p.DeviceCount() > 0
}

// DeviceCount is the size of the cached snapshot.
func (p *Probe) DeviceCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cached)
}

// Backends lists the names of the backends that initialized.
func (p *Probe) Backends() []string {
	names := make([]string, len(p.backends))
	for i, b := range p.backends {
		names[i] = b.Name()
	}
	return names
}

// GetGPUInfo returns a copy of the cached snapshot while it is fresh and
// non-empty; otherwise it re-probes every backend first.
func (p *Probe) GetGPUInfo() []model.GPUInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.cached) > 0 && p.now().Sub(p.lastRefresh) < p.ttl {
		return slices.Clone(p.cached)
	}
	p.refreshLocked()
	return slices.Clone(p.cached)
}

func (p *Probe) refreshLocked() {
	var all []model.GPUInfo
	for _, b := range p.backends {
		devs, err := b.Devices()
		if err != nil {
			p.noteFailure(b.Name(), err)
			continue
		}
		delete(p.lastErr, b.Name())
		for _, d := range devs {
			all = append(all, d.Normalized())
		}
	}
	p.cached = all
	p.lastRefresh = p.now()
}

// noteFailure logs a whole-backend failure once per distinct message.
func (p *Probe) noteFailure(name string, err error) {
	msg := err.Error()
	if p.lastErr[name] == msg {
		return
	}
	p.lastErr[name] = msg
	p.logger.Warn("GPU backend probe failed", "backend", name, "error", err)
}

// Close releases backends that hold native handles.
func (p *Probe) Close() error {
	var errs []error
	for _, b := range p.backends {
		if c, ok := b.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
