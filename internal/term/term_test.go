package term

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/cancelreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"letter", "q", []string{"q"}},
		{"several letters", "p1?", []string{"p", "1", "?"}},
		{"tab", "\t", []string{"tab"}},
		{"shift tab", "\x1b[Z", []string{"shift+tab"}},
		{"lone escape", "\x1b", []string{"esc"}},
		{"double escape", "\x1b\x1b", []string{"esc", "esc"}},
		{"ctrl c", "\x03", []string{"ctrl+c"}},
		{"enter", "\r", []string{"enter"}},
		{"backspace", "\x7f", []string{"backspace"}},
		{"arrow", "\x1b[A", []string{"up"}},
		{"ss3 arrow", "\x1bOB", []string{"down"}},
		{"alt letter", "\x1bq", []string{"alt+q"}},
		{"unknown csi dropped", "\x1b[15~r", []string{"r"}},
		{"modified arrow dropped", "\x1b[1;5Ah", []string{"h"}},
		{"truncated csi dropped", "\x1b[1;", nil},
		{"utf8", "°→", []string{"°", "→"}},
		{"invalid utf8 skipped", "\xffq", []string{"q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, k := range DecodeKeys([]byte(tt.in)) {
				got = append(got, k.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeKeys_Types(t *testing.T) {
	keys := DecodeKeys([]byte("\t\x1b[Z\x03\x1b"))
	require.Len(t, keys, 4)
	assert.Equal(t, tea.KeyTab, keys[0].Type)
	assert.Equal(t, tea.KeyShiftTab, keys[1].Type)
	assert.Equal(t, tea.KeyCtrlC, keys[2].Type)
	assert.Equal(t, tea.KeyEsc, keys[3].Type)
}

func pollDriver() *Driver {
	return &Driver{
		input:   make(chan []byte, 4),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func TestPollKey_Timeout(t *testing.T) {
	d := pollDriver()

	start := time.Now()
	_, ok, err := d.PollKey(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPollKey_ServesKeysOneAtATime(t *testing.T) {
	d := pollDriver()
	d.input <- []byte("\tq")

	k, ok, err := d.PollKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tab", k.String())

	k, ok, err = d.PollKey(time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "q", k.String())

	_, ok, err = d.PollKey(time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPollKey_DroppedSequenceIsNotAKey(t *testing.T) {
	d := pollDriver()
	d.input <- []byte("\x1b[15~")

	_, ok, err := d.PollKey(time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPollKey_ReadErrorSticks(t *testing.T) {
	d := pollDriver()
	d.readErr <- io.EOF

	_, _, err := d.PollKey(time.Second)
	require.ErrorIs(t, err, io.EOF)

	_, _, err = d.PollKey(time.Second)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPollKey_CanceledIsQuiet(t *testing.T) {
	d := pollDriver()
	d.readErr <- cancelreader.ErrCanceled

	_, ok, err := d.PollKey(time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadLoop_ForwardsChunksAndError(t *testing.T) {
	d := pollDriver()
	r, w := io.Pipe()
	go d.readLoop(r)

	go func() {
		_, _ = w.Write([]byte("p"))
		_ = w.CloseWithError(errors.New("gone"))
	}()

	k, ok, err := d.PollKey(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p", k.String())

	_, _, err = d.PollKey(time.Second)
	assert.EqualError(t, err, "read input: gone")
}

func TestDriver_NotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	d := New(f, f)
	assert.ErrorIs(t, d.Enter(), ErrNotTerminal)
	assert.NoError(t, d.Restore(), "restore after a failed enter is a no-op")
	assert.NoError(t, d.Restore())
}

func TestDriver_WriteIsBuffered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	d := New(f, f)
	_, err = d.Write([]byte("frame"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, d.Flush())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(data))

	_, _, err = d.Size()
	assert.Error(t, err)
}
