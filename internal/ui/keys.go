package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the dashboard reacts to. Help text on each
// binding is what the help view prints.
type keyMap struct {
	NextView  key.Binding
	PrevView  key.Binding
	Overview  key.Binding
	CPU       key.Binding
	Memory    key.Binding
	GPU       key.Binding
	Help      key.Binding
	Pause     key.Binding
	Refresh   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// HelpGroup is one titled section of the help view.
type HelpGroup struct {
	Name     string
	Bindings []key.Binding
}

func newKeyMap(hasGPU bool) keyMap {
	k := keyMap{
		NextView:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Next view")),
		PrevView:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("Shift+Tab", "Previous view")),
		Overview:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "Overview")),
		CPU:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "CPU details")),
		Memory:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "Memory details")),
		GPU:       key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "GPU details")),
		Help:      key.NewBinding(key.WithKeys("?", "h"), key.WithHelp("? or h", "Show this help")),
		Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "Pause/resume automatic updates")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Force refresh now")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q or Esc", "Quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("Ctrl+c", "Quit")),
	}
	k.GPU.SetEnabled(hasGPU)
	return k
}

// FullHelp groups bindings the way the help view lists them.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextView, k.PrevView, k.Overview, k.CPU, k.Memory, k.GPU, k.Help},
		{k.Pause, k.Refresh},
		{k.Quit, k.ForceQuit},
	}
}

var helpGroupNames = []string{"Navigation", "Controls", "Exit"}

// groups drops disabled bindings so the help view only lists live keys.
func (k keyMap) groups() []HelpGroup {
	full := k.FullHelp()
	out := make([]HelpGroup, 0, len(full))
	for i, bindings := range full {
		g := HelpGroup{Name: helpGroupNames[i]}
		for _, b := range bindings {
			if b.Enabled() {
				g.Bindings = append(g.Bindings, b)
			}
		}
		out = append(out, g)
	}
	return out
}
