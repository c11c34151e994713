// Package term owns the controlling terminal: raw mode, the alternate
// screen, cursor visibility, size queries and non-blocking key polling.
package term

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"
	xterm "golang.org/x/term"
)

// ErrNotTerminal is returned by Enter when stdin or stdout is not a TTY.
var ErrNotTerminal = errors.New("not a terminal")

// Driver is the real terminal. Frames are buffered and reach the TTY on
// Flush.
type Driver struct {
	in  *os.File
	out *os.File
	buf *bufio.Writer
	seq *termenv.Output

	raw       *xterm.State
	restoreVT func() error
	reader    cancelreader.CancelReader
	alt       bool

	input   chan []byte
	readErr chan error
	done    chan struct{}
	err     error
	pending []tea.KeyMsg
}

// New prepares a driver for the given streams without touching them.
func New(in, out *os.File) *Driver {
	buf := bufio.NewWriterSize(out, 64*1024)
	return &Driver{
		in:      in,
		out:     out,
		buf:     buf,
		seq:     termenv.NewOutput(buf, termenv.WithProfile(termenv.ANSI)),
		input:   make(chan []byte, 16),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// Enter switches to raw mode and the alternate screen and hides the cursor.
// On failure the caller still calls Restore, which undoes whatever was done.
func (d *Driver) Enter() error {
	if !xterm.IsTerminal(int(d.in.Fd())) || !xterm.IsTerminal(int(d.out.Fd())) {
		return ErrNotTerminal
	}

	raw, err := xterm.MakeRaw(int(d.in.Fd()))
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	d.raw = raw

	restoreVT, err := termenv.EnableVirtualTerminalProcessing(termenv.NewOutput(d.out))
	if err != nil {
		return fmt.Errorf("enable virtual terminal processing: %w", err)
	}
	d.restoreVT = restoreVT

	reader, err := cancelreader.NewReader(d.in)
	if err != nil {
		return fmt.Errorf("open input reader: %w", err)
	}
	d.reader = reader
	go d.readLoop(reader)

	d.seq.AltScreen()
	d.alt = true
	d.seq.HideCursor()
	d.seq.ClearScreen()
	return d.Flush()
}

func (d *Driver) readLoop(r io.Reader) {
	b := make([]byte, 256)
	for {
		n, err := r.Read(b)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, b[:n])
			select {
			case d.input <- chunk:
			case <-d.done:
				return
			}
		}
		if err != nil {
			d.readErr <- err
			return
		}
	}
}

// Restore shows the cursor, leaves the alternate screen and disables raw
// mode, in that order. Every step is attempted; the errors are joined.
func (d *Driver) Restore() error {
	var errs []error
	if d.reader != nil {
		d.reader.Cancel()
		close(d.done)
	}
	if d.alt {
		d.seq.ShowCursor()
		d.seq.ExitAltScreen()
		d.alt = false
	}
	if err := d.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("write restore sequences: %w", err))
	}
	if d.restoreVT != nil {
		if err := d.restoreVT(); err != nil {
			errs = append(errs, fmt.Errorf("restore console mode: %w", err))
		}
		d.restoreVT = nil
	}
	if d.raw != nil {
		if err := xterm.Restore(int(d.in.Fd()), d.raw); err != nil {
			errs = append(errs, fmt.Errorf("disable raw mode: %w", err))
		}
		d.raw = nil
	}
	if d.reader != nil {
		if err := d.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input reader: %w", err))
		}
		d.reader = nil
	}
	return errors.Join(errs...)
}

// PollKey waits up to timeout for one key and reports false when the
// window passes without input. Keys decoded from one read are served one
// per call. A read error is sticky.
func (d *Driver) PollKey(timeout time.Duration) (tea.KeyMsg, bool, error) {
	if k, ok := d.next(); ok {
		return k, true, nil
	}
	if d.err != nil {
		return tea.KeyMsg{}, false, d.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case chunk := <-d.input:
		d.pending = append(d.pending, DecodeKeys(chunk)...)
		k, ok := d.next()
		return k, ok, nil
	case err := <-d.readErr:
		if !errors.Is(err, cancelreader.ErrCanceled) {
			d.err = fmt.Errorf("read input: %w", err)
		}
		// Input read before the error is still delivered first.
		d.drain()
		if k, ok := d.next(); ok {
			return k, true, nil
		}
		return tea.KeyMsg{}, false, d.err
	case <-timer.C:
		return tea.KeyMsg{}, false, nil
	}
}

// Size reports the output terminal's width and height in cells.
func (d *Driver) Size() (int, int, error) {
	return xterm.GetSize(int(d.out.Fd()))
}

func (d *Driver) Write(p []byte) (int, error) { return d.buf.Write(p) }

func (d *Driver) Flush() error { return d.buf.Flush() }

func (d *Driver) drain() {
	for {
		select {
		case chunk := <-d.input:
			d.pending = append(d.pending, DecodeKeys(chunk)...)
		default:
			return
		}
	}
}

func (d *Driver) next() (tea.KeyMsg, bool) {
	if len(d.pending) == 0 {
		return tea.KeyMsg{}, false
	}
	k := d.pending[0]
	d.pending = d.pending[1:]
	return k, true
}
