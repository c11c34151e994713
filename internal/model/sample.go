package model

// GPUVendor identifies which backend produced a device snapshot.
type GPUVendor int

const (
	VendorNone GPUVendor = iota
	VendorNVIDIA
	VendorApple
	VendorOther
)

func (v GPUVendor) String() string {
	switch v {
	case VendorNVIDIA:
		return "NVIDIA"
	case VendorApple:
		return "Apple"
	case VendorOther:
		return "Other"
	default:
		return "None"
	}
}

// Label is the heading used for a device section, e.g. "NVIDIA GPU".
func (v GPUVendor) Label() string {
	switch v {
	case VendorNVIDIA, VendorApple:
		return v.String() + " GPU"
	default:
		return "GPU"
	}
}

// UnknownName is the device name used when the vendor is not known either.
const UnknownName = "Unknown GPU"

// UnknownNameFor is the fallback device name when a backend cannot read one.
func UnknownNameFor(v GPUVendor) string {
	switch v {
	case VendorNVIDIA, VendorApple:
		return "Unknown " + v.String() + " GPU"
	default:
		return UnknownName
	}
}

// GPUInfo holds a single device snapshot. Memory is in MiB.
type GPUInfo struct {
	Name          string
	Utilization   float64 // percent 0-100
	TemperatureC  uint32  // 0 when unknown
	TotalMemoryMB uint64
	UsedMemoryMB  uint64
	MemoryPercent float64 // percent 0-100, 0 when total is 0
	Vendor        GPUVendor
	LowPower      bool // Apple only
	Headless      bool // Apple only
}

// Normalized enforces the record invariants: used never exceeds total, the
// memory percentage is derived from the MiB counts, and both percentages lie
// in [0, 100].
func (g GPUInfo) Normalized() GPUInfo {
	if g.Name == "" {
		g.Name = UnknownNameFor(g.Vendor)
	}
	if g.UsedMemoryMB > g.TotalMemoryMB {
		g.UsedMemoryMB = g.TotalMemoryMB
	}
	g.MemoryPercent = Percent(g.UsedMemoryMB, g.TotalMemoryMB)
	g.Utilization = Clamp(g.Utilization, 0, 100)
	return g
}

// CPU aggregates instantaneous CPU usage.
type CPU struct {
	Total   float64   // percent 0-100
	PerCore []float64 // per-core percent
}

// Memory captures main-memory usage in MiB.
type Memory struct {
	TotalMB uint64
	UsedMB  uint64
}

// FreeMB is total minus used, never negative.
func (m Memory) FreeMB() uint64 {
	if m.UsedMB > m.TotalMB {
		return 0
	}
	return m.TotalMB - m.UsedMB
}

// UsagePercent is 0 when the total is unknown.
func (m Memory) UsagePercent() float64 { return Percent(m.UsedMB, m.TotalMB) }

// Snapshot is what one frame is painted from. Sampling happens before the
// snapshot is assembled, so a frame never mixes two samples.
type Snapshot struct {
	CPU    CPU
	Memory Memory
	GPUs   []GPUInfo
}

// Percent returns used/total as a percentage in [0, 100], or 0 when total is 0.
func Percent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return Clamp(float64(used)*100/float64(total), 0, 100)
}

// Clamp bounds v into [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BytesToMiB converts a byte count to whole MiB.
func BytesToMiB(b uint64) uint64 { return b / (1024 * 1024) }
