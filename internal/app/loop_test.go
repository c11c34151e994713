package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/ezstats/internal/config"
	"github.com/Dicklesworthstone/ezstats/internal/diag"
	"github.com/Dicklesworthstone/ezstats/internal/model"
	"github.com/Dicklesworthstone/ezstats/internal/ui"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) now() time.Time { return c.t }

// key is a keystroke scheduled at an offset from the start of the run.
type key struct {
	at  time.Duration
	msg tea.KeyMsg
}

func runeKey(at time.Duration, r rune) key {
	return key{at: at, msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}}
}

// fakeTerm plays scripted keys against a fake clock. Each poll either
// delivers the next key due within the window, jumping the clock to it, or
// advances the clock by the whole window.
type fakeTerm struct {
	clock *fakeClock
	start time.Time
	keys  []key

	width, height int
	sizeAt        map[time.Duration][2]int

	rawMode, altScreen, cursorHidden bool
	enterErr, restoreErr, pollErr    error
	failAfterFrames                  int

	out      bytes.Buffer
	frames   int
	polls    int
	restores int
	onPoll   func(elapsed time.Duration)
}

func newFakeTerm(clock *fakeClock, keys ...key) *fakeTerm {
	return &fakeTerm{clock: clock, start: clock.t, keys: keys, width: 80, height: 24}
}

func (f *fakeTerm) elapsed() time.Duration { return f.clock.t.Sub(f.start) }

func (f *fakeTerm) Enter() error {
	if f.enterErr != nil {
		return f.enterErr
	}
	f.rawMode, f.altScreen, f.cursorHidden = true, true, true
	return nil
}

func (f *fakeTerm) Restore() error {
	f.restores++
	f.rawMode, f.altScreen, f.cursorHidden = false, false, false
	return f.restoreErr
}

func (f *fakeTerm) PollKey(timeout time.Duration) (tea.KeyMsg, bool, error) {
	f.polls++
	if f.polls > 100_000 {
		return tea.KeyMsg{}, false, errors.New("script ran away")
	}
	if f.onPoll != nil {
		f.onPoll(f.elapsed())
	}
	if f.pollErr != nil {
		return tea.KeyMsg{}, false, f.pollErr
	}
	if len(f.keys) > 0 && f.keys[0].at <= f.elapsed()+timeout {
		k := f.keys[0]
		f.keys = f.keys[1:]
		if k.at > f.elapsed() {
			f.clock.t = f.start.Add(k.at)
		}
		return k.msg, true, nil
	}
	f.clock.t = f.clock.t.Add(timeout)
	return tea.KeyMsg{}, false, nil
}

func (f *fakeTerm) Size() (int, int, error) {
	w, h := f.width, f.height
	var latest time.Duration = -1
	for at, size := range f.sizeAt {
		if at <= f.elapsed() && at > latest {
			latest, w, h = at, size[0], size[1]
		}
	}
	return w, h, nil
}

func (f *fakeTerm) Write(p []byte) (int, error) {
	if f.failAfterFrames > 0 && f.frames >= f.failAfterFrames {
		return 0, errors.New("input/output error")
	}
	return f.out.Write(p)
}

func (f *fakeTerm) Flush() error {
	f.frames++
	return nil
}

type fakeHost struct {
	clock     *fakeClock
	refreshes []time.Time
	err       error
	panicOn   int
}

func (h *fakeHost) Refresh() error {
	h.refreshes = append(h.refreshes, h.clock.now())
	if h.panicOn > 0 && len(h.refreshes) == h.panicOn {
		panic("sampler exploded")
	}
	return h.err
}

func (h *fakeHost) CPU() model.CPU       { return model.CPU{Total: 10, PerCore: []float64{10}} }
func (h *fakeHost) Memory() model.Memory { return model.Memory{TotalMB: 1000, UsedMB: 250} }

type fakeGPUs struct {
	devices []model.GPUInfo
	reads   int
}

func (g *fakeGPUs) HasGPUs() bool { return len(g.devices) > 0 }

func (g *fakeGPUs) GetGPUInfo() []model.GPUInfo {
	g.reads++
	return append([]model.GPUInfo(nil), g.devices...)
}

type harness struct {
	clock *fakeClock
	term  *fakeTerm
	host  *fakeHost
	gpus  *fakeGPUs
	logs  *bytes.Buffer
	loop  *Loop
}

func newHarness(t *testing.T, keys ...key) *harness {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)

	clock := newFakeClock()
	h := &harness{
		clock: clock,
		term:  newFakeTerm(clock, keys...),
		host:  &fakeHost{clock: clock},
		gpus:  &fakeGPUs{},
		logs:  &bytes.Buffer{},
	}
	return h
}

func (h *harness) run(t *testing.T) error {
	t.Helper()
	logger := diag.NewLogger(h.logs, slog.LevelDebug)
	h.loop = NewLoop(config.Default(), h.term, h.host, h.gpus, logger, h.clock.now)
	return h.loop.Run(context.Background())
}

func (h *harness) refreshOffsets() []time.Duration {
	out := make([]time.Duration, 0, len(h.host.refreshes))
	for _, r := range h.host.refreshes {
		out = append(out, r.Sub(h.term.start))
	}
	return out
}

func assertRestored(t *testing.T, f *fakeTerm) {
	t.Helper()
	assert.Equal(t, 1, f.restores)
	assert.False(t, f.rawMode, "raw mode left on")
	assert.False(t, f.altScreen, "alternate screen left on")
	assert.False(t, f.cursorHidden, "cursor left hidden")
}

func TestLoop_FirstFrameThenQuit(t *testing.T) {
	h := newHarness(t, runeKey(0, 'q'))

	require.NoError(t, h.run(t))
	assert.Equal(t, 1, h.term.frames)
	assert.Len(t, h.host.refreshes, 1)
	assert.Contains(t, h.term.out.String(), "System Overview")
	assert.False(t, h.loop.State().Running)
	assertRestored(t, h.term)
}

func TestLoop_QuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		t.Run(k.String(), func(t *testing.T) {
			h := newHarness(t, key{at: 120 * time.Millisecond, msg: k})
			require.NoError(t, h.run(t))
			assert.Equal(t, 120*time.Millisecond, h.term.elapsed())
			assert.Equal(t, 1, h.term.frames, "quit does not repaint")
			assertRestored(t, h.term)
		})
	}
}

func TestLoop_QuitLatency(t *testing.T) {
	h := newHarness(t, runeKey(0, 'q'))

	start := time.Now()
	require.NoError(t, h.run(t))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 1, h.term.polls)
}

func TestLoop_PeriodicRefresh(t *testing.T) {
	h := newHarness(t, runeKey(3500*time.Millisecond, 'q'))

	require.NoError(t, h.run(t))
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second, 3 * time.Second}, h.refreshOffsets())
	assert.Equal(t, 4, h.term.frames)
}

func TestLoop_PauseThenForceRefresh(t *testing.T) {
	var atTwoSeconds int
	h := newHarness(t,
		runeKey(100*time.Millisecond, 'p'),
		runeKey(2100*time.Millisecond, 'r'),
		runeKey(2500*time.Millisecond, 'q'),
	)
	h.term.onPoll = func(elapsed time.Duration) {
		if elapsed == 2*time.Second {
			atTwoSeconds = len(h.host.refreshes)
		}
	}

	require.NoError(t, h.run(t))
	assert.Equal(t, 1, atTwoSeconds, "only the initial refresh while paused")
	assert.Equal(t, []time.Duration{0, 2100 * time.Millisecond}, h.refreshOffsets())
	// initial frame, repaint for p, repaint for r
	assert.Equal(t, 3, h.term.frames)
	assert.Contains(t, h.term.out.String(), "PAUSED")
}

func TestLoop_PausedNeverSamples(t *testing.T) {
	h := newHarness(t, runeKey(0, 'p'), runeKey(30*time.Second, 'q'))

	require.NoError(t, h.run(t))
	assert.Len(t, h.host.refreshes, 1)
	assert.Greater(t, h.term.polls, 500)
}

func TestLoop_ResumeAfterPause(t *testing.T) {
	h := newHarness(t,
		runeKey(0, 'p'),
		runeKey(5*time.Second, 'p'),
		runeKey(5200*time.Millisecond, 'q'),
	)

	require.NoError(t, h.run(t))
	// Resuming finds the last update 5s old, so the very next check samples.
	assert.Equal(t, []time.Duration{0, 5 * time.Second}, h.refreshOffsets())
}

func TestLoop_NavigationRepaints(t *testing.T) {
	h := newHarness(t,
		key{at: 100 * time.Millisecond, msg: tea.KeyMsg{Type: tea.KeyTab}},
		runeKey(200*time.Millisecond, 'x'),
		runeKey(300*time.Millisecond, 'q'),
	)

	require.NoError(t, h.run(t))
	assert.Equal(t, 2, h.term.frames, "unbound key does not repaint")
	assert.Equal(t, ui.CPUDetailed, h.loop.State().Views.Current())
	assert.Contains(t, h.term.out.String(), "Overall CPU")
}

func TestLoop_GPUViewRegisteredFromProbe(t *testing.T) {
	h := newHarness(t, runeKey(100*time.Millisecond, '4'), runeKey(200*time.Millisecond, 'q'))
	h.gpus.devices = []model.GPUInfo{{Name: "Test", Vendor: model.VendorNVIDIA, TotalMemoryMB: 8192}}

	require.NoError(t, h.run(t))
	assert.Equal(t, ui.GPUDetailed, h.loop.State().Views.Current())
	assert.Contains(t, h.term.out.String(), "=== NVIDIA GPU #0 ===")
	assert.Equal(t, h.term.frames, h.gpus.reads, "every frame reads the GPU cache")
}

func TestLoop_ResizeRepaints(t *testing.T) {
	h := newHarness(t, runeKey(400*time.Millisecond, 'q'))
	h.term.sizeAt = map[time.Duration][2]int{300 * time.Millisecond: {100, 30}}

	require.NoError(t, h.run(t))
	assert.Equal(t, 2, h.term.frames)
	assert.Len(t, h.host.refreshes, 1)
}

func TestLoop_RenderErrorRestoresTerminal(t *testing.T) {
	h := newHarness(t, key{at: 100 * time.Millisecond, msg: tea.KeyMsg{Type: tea.KeyTab}})
	h.term.failAfterFrames = 1

	err := h.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input/output error")
	assert.True(t, strings.HasPrefix(err.Error(), "render: "))
	assertRestored(t, h.term)
}

func TestLoop_PanicRestoresTerminal(t *testing.T) {
	h := newHarness(t, runeKey(100*time.Millisecond, 'r'))
	h.host.panicOn = 2

	err := h.run(t)
	require.EqualError(t, err, "panic: sampler exploded")
	assertRestored(t, h.term)
}

func TestLoop_EnterFailure(t *testing.T) {
	h := newHarness(t)
	h.term.enterErr = errors.New("not a terminal")

	err := h.run(t)
	require.EqualError(t, err, "enter terminal: not a terminal")
	assert.Equal(t, 0, h.term.frames)
	assertRestored(t, h.term)
}

func TestLoop_RestoreFailure(t *testing.T) {
	t.Run("reported when the loop succeeded", func(t *testing.T) {
		h := newHarness(t, runeKey(0, 'q'))
		h.term.restoreErr = errors.New("tcsetattr: bad file descriptor")

		err := h.run(t)
		require.EqualError(t, err, "restore terminal: tcsetattr: bad file descriptor")
		assert.Contains(t, h.logs.String(), "terminal restore failed")
	})

	t.Run("does not mask the loop error", func(t *testing.T) {
		h := newHarness(t)
		h.term.pollErr = errors.New("read input: EOF")
		h.term.restoreErr = errors.New("tcsetattr: bad file descriptor")

		err := h.run(t)
		require.EqualError(t, err, "read input: EOF")
		assert.Contains(t, h.logs.String(), "tcsetattr")
	})
}

func TestLoop_ContextCancelExitsCleanly(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.term.onPoll = func(elapsed time.Duration) {
		if elapsed >= 500*time.Millisecond {
			cancel()
		}
	}

	logger := diag.NewLogger(h.logs, slog.LevelDebug)
	loop := NewLoop(config.Default(), h.term, h.host, h.gpus, logger, h.clock.now)
	require.NoError(t, loop.Run(ctx))
	assert.Equal(t, 550*time.Millisecond, h.term.elapsed())
	assertRestored(t, h.term)
}

func TestLoop_HostFailureLoggedOnce(t *testing.T) {
	h := newHarness(t, runeKey(3500*time.Millisecond, 'q'))
	h.host.err = errors.New("read memory: permission denied")

	require.NoError(t, h.run(t))
	assert.Len(t, h.host.refreshes, 4)
	assert.Equal(t, 4, h.term.frames, "frames keep coming with stale readings")
	assert.Equal(t, 1, strings.Count(h.logs.String(), "host sampling failed"))
}
