package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewType_Names(t *testing.T) {
	tests := []struct {
		view  ViewType
		name  string
		title string
	}{
		{Overview, "Overview", "System Overview"},
		{CPUDetailed, "CPU Details", "CPU Details"},
		{MemoryDetailed, "Memory Details", "Memory Details"},
		{GPUDetailed, "GPU Details", "GPU Details"},
		{Help, "Help", "Keyboard Controls"},
		{ViewType(42), "Unknown", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.view.String())
			assert.Equal(t, tt.title, tt.view.Title())
		})
	}
}

func TestNewViews_Registry(t *testing.T) {
	assert.Equal(t,
		[]ViewType{Overview, CPUDetailed, MemoryDetailed, Help},
		NewViews(false).Available())
	assert.Equal(t,
		[]ViewType{Overview, CPUDetailed, MemoryDetailed, GPUDetailed, Help},
		NewViews(true).Available())
	assert.Equal(t, Overview, NewViews(true).Current())
}

func TestViews_WrapsAfterFullCycle(t *testing.T) {
	all := []ViewType{Overview, CPUDetailed, MemoryDetailed, GPUDetailed, Help}

	for n := 1; n <= len(all); n++ {
		for start := 0; start < n; start++ {
			v := newViews(all[:n]...)
			v.GoTo(all[start])

			for i := 0; i < n; i++ {
				v.Next()
			}
			assert.Equal(t, all[start], v.Current(), "next x%d", n)

			for i := 0; i < n; i++ {
				v.Prev()
			}
			assert.Equal(t, all[start], v.Current(), "prev x%d", n)
		}
	}
}

func TestViews_PrevFromFirstWrapsToLast(t *testing.T) {
	v := NewViews(false)
	v.Prev()
	assert.Equal(t, Help, v.Current())
}

func TestViews_GoToUnregistered(t *testing.T) {
	v := NewViews(false)
	v.GoTo(MemoryDetailed)

	assert.False(t, v.GoTo(GPUDetailed))
	assert.Equal(t, MemoryDetailed, v.Current())
	assert.False(t, v.Has(GPUDetailed))
	assert.True(t, v.Has(Help))
}

func TestViews_AvailableIsACopy(t *testing.T) {
	v := NewViews(true)
	got := v.Available()
	got[0] = Help
	assert.Equal(t, Overview, v.Available()[0])
}

func TestNewViews_EmptyFallsBackToOverview(t *testing.T) {
	v := newViews()
	assert.Equal(t, Overview, v.Current())
	v.Next()
	assert.Equal(t, Overview, v.Current())
}
