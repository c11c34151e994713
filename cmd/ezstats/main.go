package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/ezstats/internal/app"
	"github.com/Dicklesworthstone/ezstats/internal/config"
)

// Set via ldflags: go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func newRootCmd(run func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   "ezstats",
		Short: "Terminal dashboard for CPU, memory and GPU usage",
		Long: `ezstats shows live CPU, memory and GPU utilization in the terminal.

Keys:
  Tab / Shift+Tab  cycle views
  1-4              overview, CPU, memory, GPU
  ? or h           help
  p                pause or resume updates
  r                refresh now
  q, Esc, Ctrl+c   quit`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func main() {
	// Frames use the 16-color palette whatever the terminal advertises.
	lipgloss.SetColorProfile(termenv.ANSI)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	cmd := newRootCmd(func(ctx context.Context) error {
		return app.Run(ctx, config.Default())
	})
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
