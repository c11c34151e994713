package gpu

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/ezstats/internal/model"
)

// nvmlLib is the NVML-shaped surface both NVIDIA sources provide.
type nvmlLib interface {
	DeviceCount() (int, error)
	Device(index int) (nvmlDevice, error)
	Close() error
}

type nvmlDevice interface {
	Name() (string, error)
	Utilization() (uint32, error)
	Memory() (totalBytes, usedBytes uint64, err error)
	Temperature() (uint32, error)
}

type nvidiaBackend struct {
	name   string
	lib    nvmlLib
	logger *slog.Logger
}

// openNVIDIA prefers NVML and falls back to nvidia-smi.
func openNVIDIA(smiTimeout time.Duration, logger *slog.Logger) (Backend, error) {
	lib, nvmlErr := openNVML()
	if nvmlErr == nil {
		return newNVIDIABackend("NVIDIA (NVML)", lib, logger), nil
	}
	logger.Info("NVML unavailable, trying nvidia-smi", "error", nvmlErr)

	lib, smiErr := openSMI(smiTimeout)
	if smiErr != nil {
		return nil, fmt.Errorf("nvml: %v; nvidia-smi: %w", nvmlErr, smiErr)
	}
	return newNVIDIABackend("NVIDIA (nvidia-smi)", lib, logger), nil
}

func newNVIDIABackend(name string, lib nvmlLib, logger *slog.Logger) *nvidiaBackend {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &nvidiaBackend{name: name, lib: lib, logger: logger}
}

func (b *nvidiaBackend) Name() string { return b.name }

func (b *nvidiaBackend) Close() error { return b.lib.Close() }

// Devices reads every device independently: a device that cannot be opened
// is skipped, and a metric that cannot be read falls back to its zero value.
func (b *nvidiaBackend) Devices() ([]model.GPUInfo, error) {
	count, err := b.lib.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("device count: %w", err)
	}

	out := make([]model.GPUInfo, 0, count)
	for i := 0; i < count; i++ {
		dev, err := b.lib.Device(i)
		if err != nil {
			b.logger.Debug("skipping GPU", "backend", b.name, "index", i, "error", err)
			continue
		}
		out = append(out, b.read(i, dev))
	}
	return out, nil
}

func (b *nvidiaBackend) read(index int, dev nvmlDevice) model.GPUInfo {
	info := model.GPUInfo{
		Name:   model.UnknownNameFor(model.VendorNVIDIA),
		Vendor: model.VendorNVIDIA,
	}

	if name, err := dev.Name(); err != nil {
		b.fieldFailed(index, "name", err)
	} else if name != "" {
		info.Name = name
	}

	if util, err := dev.Utilization(); err != nil {
		b.fieldFailed(index, "utilization", err)
	} else {
		info.Utilization = float64(util)
	}

	if total, used, err := dev.Memory(); err != nil {
		b.fieldFailed(index, "memory", err)
	} else {
		info.TotalMemoryMB = model.BytesToMiB(total)
		info.UsedMemoryMB = model.BytesToMiB(used)
		info.MemoryPercent = model.Percent(info.UsedMemoryMB, info.TotalMemoryMB)
	}

	if temp, err := dev.Temperature(); err != nil {
		b.fieldFailed(index, "temperature", err)
	} else {
		info.TemperatureC = temp
	}

	return info
}

func (b *nvidiaBackend) fieldFailed(index int, field string, err error) {
	b.logger.Debug("GPU metric unavailable", "backend", b.name, "index", index, "field", field, "error", err)
}
