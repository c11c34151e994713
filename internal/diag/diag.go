// Package diag routes diagnostics so they never interleave with a frame.
// Output passes straight through until Hold; after that it is buffered and
// Release replays it once the terminal is back to normal.
package diag

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
)

// Writer is an io.Writer that can be paused. It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	out  io.Writer
	held bool
	buf  bytes.Buffer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.held {
		return w.buf.Write(p)
	}
	return w.out.Write(p)
}

// Hold starts buffering.
func (w *Writer) Hold() {
	w.mu.Lock()
	w.held = true
	w.mu.Unlock()
}

// Release stops buffering and flushes what was held.
func (w *Writer) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.held = false
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.buf.WriteTo(w.out)
	w.buf.Reset()
	return err
}

// Held reports whether output is currently buffered.
func (w *Writer) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard is the logger used when a component is handed nil.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
