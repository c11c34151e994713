package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config carries runtime options for ezstats.
type Config struct {
	RefreshRate  time.Duration // sampling cadence while not paused
	PollInterval time.Duration // key poll window per loop iteration
	GPUCacheTTL  time.Duration
	SMITimeout   time.Duration // per nvidia-smi invocation
	EnableNVIDIA bool
	EnableApple  bool
	ShowHelpLine bool
}

func Default() Config {
	return Config{
		RefreshRate:  time.Second,
		PollInterval: 50 * time.Millisecond,
		GPUCacheTTL:  500 * time.Millisecond,
		SMITimeout:   400 * time.Millisecond,
		EnableNVIDIA: true,
		EnableApple:  runtime.GOOS == "darwin",
		ShowHelpLine: true,
	}
}

// Validate reports the first setting that would stall or spin the loop.
func (c Config) Validate() error {
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"refresh rate", c.RefreshRate},
		{"poll interval", c.PollInterval},
		{"GPU cache TTL", c.GPUCacheTTL},
		{"nvidia-smi timeout", c.SMITimeout},
	}
	for _, chk := range checks {
		if chk.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", chk.name, chk.d)
		}
	}
	if c.PollInterval > c.RefreshRate {
		return fmt.Errorf("poll interval %s exceeds refresh rate %s", c.PollInterval, c.RefreshRate)
	}
	return nil
}
