package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// State is the dashboard's mutable UI record. It is owned by the loop and
// never shared across goroutines.
type State struct {
	Views            *Views
	Running          bool
	AutomaticRefresh bool
	LastUpdate       time.Time
	ShowHelpLine     bool

	keys             keyMap
	now              func() time.Time
	refreshRequested bool
}

// NewState starts on the overview, running and sampling. A nil clock means
// time.Now.
func NewState(hasGPU, showHelpLine bool, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		Views:            NewViews(hasGPU),
		Running:          true,
		AutomaticRefresh: true,
		LastUpdate:       now(),
		ShowHelpLine:     showHelpLine,
		keys:             newKeyMap(hasGPU),
		now:              now,
	}
}

// ShouldUpdate reports whether a periodic sample is due. Paused state never
// samples on its own.
func (s *State) ShouldUpdate(rate time.Duration) bool {
	return s.AutomaticRefresh && s.now().Sub(s.LastUpdate) >= rate
}

func (s *State) MarkUpdated() { s.LastUpdate = s.now() }

func (s *State) TogglePause() { s.AutomaticRefresh = !s.AutomaticRefresh }

// TakeRefreshRequest reports and clears a pending forced refresh.
func (s *State) TakeRefreshRequest() bool {
	r := s.refreshRequested
	s.refreshRequested = false
	return r
}

// HelpGroups lists the enabled bindings by section.
func (s *State) HelpGroups() []HelpGroup { return s.keys.groups() }

// HandleKey applies the intent bound to msg and reports whether the screen
// must be repainted. Unbound keys change nothing.
func (s *State) HandleKey(msg tea.KeyMsg) bool {
	k := s.keys
	switch {
	case key.Matches(msg, k.Quit, k.ForceQuit):
		s.Running = false
	case key.Matches(msg, k.NextView):
		s.Views.Next()
	case key.Matches(msg, k.PrevView):
		s.Views.Prev()
	case key.Matches(msg, k.Overview):
		s.Views.GoTo(Overview)
	case key.Matches(msg, k.CPU):
		s.Views.GoTo(CPUDetailed)
	case key.Matches(msg, k.Memory):
		s.Views.GoTo(MemoryDetailed)
	case key.Matches(msg, k.GPU):
		s.Views.GoTo(GPUDetailed)
	case key.Matches(msg, k.Help):
		s.Views.GoTo(Help)
	case key.Matches(msg, k.Pause):
		s.TogglePause()
	case key.Matches(msg, k.Refresh):
		s.MarkUpdated()
		s.refreshRequested = true
	default:
		return false
	}
	return true
}
