//go:build linux && cgo

package gpu

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

type nvmlNative struct{}

func openNVML() (lib nvmlLib, err error) {
	// Init dlopens libnvidia-ml; a broken install has been seen to panic there.
	defer func() {
		if r := recover(); r != nil {
			lib, err = nil, fmt.Errorf("nvml init: %v", r)
		}
	}()
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, nvmlError("init", ret)
	}
	return nvmlNative{}, nil
}

func nvmlError(op string, ret nvml.Return) error {
	return fmt.Errorf("nvml %s: %s", op, nvml.ErrorString(ret))
}

func (nvmlNative) DeviceCount() (int, error) {
	n, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("device count", ret)
	}
	return n, nil
}

func (nvmlNative) Device(index int) (nvmlDevice, error) {
	d, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, nvmlError(fmt.Sprintf("device %d", index), ret)
	}
	return nvmlHandle{d: d}, nil
}

func (nvmlNative) Close() error {
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return nvmlError("shutdown", ret)
	}
	return nil
}

type nvmlHandle struct {
	d nvml.Device
}

func (h nvmlHandle) Name() (string, error) {
	name, ret := h.d.GetName()
	if ret != nvml.SUCCESS {
		return "", nvmlError("name", ret)
	}
	return name, nil
}

func (h nvmlHandle) Utilization() (uint32, error) {
	u, ret := h.d.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("utilization", ret)
	}
	return u.Gpu, nil
}

func (h nvmlHandle) Memory() (uint64, uint64, error) {
	m, ret := h.d.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return 0, 0, nvmlError("memory", ret)
	}
	return m.Total, m.Used, nil
}

func (h nvmlHandle) Temperature() (uint32, error) {
	t, ret := h.d.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return 0, nvmlError("temperature", ret)
	}
	return t, nil
}
