package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Dicklesworthstone/ezstats/internal/config"
	"github.com/Dicklesworthstone/ezstats/internal/diag"
	"github.com/Dicklesworthstone/ezstats/internal/gpu"
	"github.com/Dicklesworthstone/ezstats/internal/sampler"
	"github.com/Dicklesworthstone/ezstats/internal/term"
)

// Run starts the dashboard on the process's terminal. Startup diagnostics
// go to stdout; anything logged while the dashboard is up is held and
// written after the terminal is restored.
func Run(ctx context.Context, cfg config.Config) (err error) {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := diag.NewWriter(os.Stdout)
	logger := diag.NewLogger(out, slog.LevelInfo)

	if n, err := sampler.CoreCount(); err != nil {
		logger.Warn("CPU core count unavailable", "error", err)
	} else {
		logger.Info("detected CPU cores", "count", n)
	}

	probe := gpu.New(cfg, logger)
	defer func() {
		if cerr := probe.Close(); cerr != nil {
			logger.Warn("GPU backend shutdown failed", "error", cerr)
		}
	}()
	logger.Info("detected GPUs", "count", probe.DeviceCount())

	host := sampler.New(logger)
	loop := NewLoop(cfg, term.New(os.Stdin, os.Stdout), host, probe, logger, nil)

	out.Hold()
	defer func() {
		if rerr := out.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("flush diagnostics: %w", rerr)
		}
	}()
	return loop.Run(ctx)
}
