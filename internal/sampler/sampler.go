package sampler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Dicklesworthstone/ezstats/internal/model"
)

// Sampler holds the latest CPU and memory readings. Refresh re-samples;
// the getters return what the last Refresh saw.
type Sampler struct {
	logger *slog.Logger

	prevTotal float64
	prevIdle  float64
	prevCore  []cpu.TimesStat

	cpu    model.CPU
	memory model.Memory

	// Overridable for testing.
	cpuTimes      func(perCPU bool) ([]cpu.TimesStat, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// New creates a Sampler and seeds the CPU counters so the first Refresh
// reports a real delta. A nil logger discards.
func New(logger *slog.Logger) *Sampler {
	s := newSampler(logger, cpu.Times, mem.VirtualMemory)
	s.prime()
	return s
}

func newSampler(logger *slog.Logger, times func(bool) ([]cpu.TimesStat, error), vm func() (*mem.VirtualMemoryStat, error)) *Sampler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sampler{logger: logger, cpuTimes: times, virtualMemory: vm}
}

func (s *Sampler) prime() {
	if _, _, err := s.cpuPercents(); err != nil {
		s.logger.Debug("priming CPU counters failed", "error", err)
	}
}

// Refresh re-samples CPU and memory. On failure the previous value of the
// failing metric is kept and the error is returned.
func (s *Sampler) Refresh() error {
	var errs []error

	total, perCore, err := s.cpuPercents()
	if err != nil {
		errs = append(errs, err)
	} else {
		s.cpu = model.CPU{Total: total, PerCore: perCore}
	}

	memStat, err := s.virtualMemory()
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("read memory: %w", err))
	case memStat != nil:
		s.memory = model.Memory{
			TotalMB: model.BytesToMiB(memStat.Total),
			UsedMB:  model.BytesToMiB(memStat.Used),
		}
	}

	return errors.Join(errs...)
}

// CPU returns the last sampled CPU usage. The per-core slice is a copy.
func (s *Sampler) CPU() model.CPU {
	out := s.cpu
	out.PerCore = append([]float64(nil), s.cpu.PerCore...)
	return out
}

// Memory returns the last sampled memory usage.
func (s *Sampler) Memory() model.Memory { return s.memory }

// CPU percentages from times delta.
func (s *Sampler) cpuPercents() (total float64, perCore []float64, err error) {
	times, err := s.cpuTimes(false)
	if err != nil {
		return 0, nil, fmt.Errorf("read cpu times: %w", err)
	}
	if len(times) == 0 {
		return 0, nil, errors.New("read cpu times: no data")
	}
	cur := times[0]
	curTotal := cur.Total()
	curIdle := cur.Idle + cur.Iowait
	if s.prevTotal > 0 {
		dt := curTotal - s.prevTotal
		di := curIdle - s.prevIdle
		if dt > 0 {
			total = model.Clamp(100*(1-di/dt), 0, 100)
		}
	}
	s.prevTotal, s.prevIdle = curTotal, curIdle

	coreTimes, err := s.cpuTimes(true)
	if err != nil {
		return total, nil, fmt.Errorf("read per-core cpu times: %w", err)
	}
	perCore = make([]float64, len(coreTimes))
	for i, c := range coreTimes {
		if i >= len(s.prevCore) {
			continue
		}
		prev := s.prevCore[i]
		dt := c.Total() - prev.Total()
		di := (c.Idle + c.Iowait) - (prev.Idle + prev.Iowait)
		if dt > 0 {
			perCore[i] = model.Clamp(100*(1-di/dt), 0, 100)
		}
	}
	s.prevCore = coreTimes
	return total, perCore, nil
}

// CoreCount reports logical CPUs for the startup diagnostic.
func CoreCount() (int, error) {
	return cpu.Counts(true)
}
