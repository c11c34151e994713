package ui

// ViewType names one screen of the dashboard.
type ViewType int

const (
	Overview ViewType = iota
	CPUDetailed
	MemoryDetailed
	GPUDetailed
	Help
)

// String is the name shown centered in the title bar.
func (v ViewType) String() string {
	switch v {
	case Overview:
		return "Overview"
	case CPUDetailed:
		return "CPU Details"
	case MemoryDetailed:
		return "Memory Details"
	case GPUDetailed:
		return "GPU Details"
	case Help:
		return "Help"
	default:
		return "Unknown"
	}
}

// Title is the heading drawn into the content frame's top border.
func (v ViewType) Title() string {
	switch v {
	case Overview:
		return "System Overview"
	case Help:
		return "Keyboard Controls"
	default:
		return v.String()
	}
}

// Views is the ordered registry of enabled views plus the current one.
// The current index always points into the registry.
type Views struct {
	available []ViewType
	current   int
}

// NewViews registers the GPU view only when a GPU was detected.
func NewViews(hasGPU bool) *Views {
	list := []ViewType{Overview, CPUDetailed, MemoryDetailed}
	if hasGPU {
		list = append(list, GPUDetailed)
	}
	return newViews(append(list, Help)...)
}

func newViews(list ...ViewType) *Views {
	if len(list) == 0 {
		list = []ViewType{Overview}
	}
	return &Views{available: list}
}

func (v *Views) Current() ViewType { return v.available[v.current] }

func (v *Views) Next() { v.current = (v.current + 1) % len(v.available) }

func (v *Views) Prev() { v.current = (v.current - 1 + len(v.available)) % len(v.available) }

// GoTo switches to t and reports whether t is registered. Unregistered
// views leave the current one unchanged.
func (v *Views) GoTo(t ViewType) bool {
	for i, have := range v.available {
		if have == t {
			v.current = i
			return true
		}
	}
	return false
}

func (v *Views) Has(t ViewType) bool {
	for _, have := range v.available {
		if have == t {
			return true
		}
	}
	return false
}

// Available returns a copy of the registry in navigation order.
func (v *Views) Available() []ViewType {
	out := make([]ViewType, len(v.available))
	copy(out, v.available)
	return out
}
