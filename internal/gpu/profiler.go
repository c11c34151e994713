package gpu

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"howett.net/plist"
)

const profilerTimeout = 10 * time.Second

// profilerReport is one data type section of `system_profiler -xml`.
type profilerReport struct {
	Items []profilerGPU `plist:"_items"`
}

type profilerGPU struct {
	Name       string           `plist:"_name"`
	Model      string           `plist:"sppci_model"`
	Bus        string           `plist:"sppci_bus"`
	VRAM       string           `plist:"spdisplays_vram"`
	VRAMShared string           `plist:"spdisplays_vram_shared"`
	Displays   []map[string]any `plist:"spdisplays_ndrvs"`
}

// profilerSource lists Metal-class devices from system_profiler.
type profilerSource struct {
	run          func(timeout time.Duration, name string, args ...string) (string, error)
	systemMemory func() (uint64, error)
}

func newProfilerSource() *profilerSource {
	return &profilerSource{
		run: runCmd,
		systemMemory: func() (uint64, error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vm.Total, nil
		},
	}
}

func (s *profilerSource) devices() ([]metalDevice, error) {
	out, err := s.run(profilerTimeout, "system_profiler", "-xml", "-detailLevel", "mini", "SPDisplaysDataType")
	if err != nil {
		return nil, fmt.Errorf("system_profiler: %w", err)
	}
	var reports []profilerReport
	if _, err := plist.Unmarshal([]byte(out), &reports); err != nil {
		return nil, fmt.Errorf("decode system_profiler output: %w", err)
	}

	var devs []metalDevice
	for _, r := range reports {
		for _, item := range r.Items {
			devs = append(devs, s.toMetal(item))
		}
	}
	return devs, nil
}

func (s *profilerSource) toMetal(item profilerGPU) metalDevice {
	name := item.Model
	if name == "" {
		name = item.Name
	}
	return metalDevice{
		Name:                         name,
		RecommendedMaxWorkingSetSize: s.workingSet(item),
		LowPower:                     item.VRAMShared != "",
		Headless:                     len(item.Displays) == 0,
	}
}

// workingSet uses dedicated or shared VRAM when reported. Unified-memory parts
// report neither; Metal recommends about three quarters of system RAM there.
func (s *profilerSource) workingSet(item profilerGPU) uint64 {
	for _, v := range []string{item.VRAM, item.VRAMShared} {
		if b, ok := parseSize(v); ok {
			return b
		}
	}
	total, err := s.systemMemory()
	if err != nil {
		return 0
	}
	return total / 4 * 3
}

// parseSize reads "1536 MB" or "16 GB".
func parseSize(s string) (uint64, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, false
	}
	n, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(fields[1]) {
	case "MB":
		return n * 1024 * 1024, true
	case "GB":
		return n * 1024 * 1024 * 1024, true
	default:
		return 0, false
	}
}
