// Package view renders counter state to the terminal and translates typed
// commands into program inputs. It is the only package that touches the
// user-facing terminal; the engine never prints.
package view

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/tallyhq/tally/internal/counter"
)

// StatusLine formats a single-line snapshot of the state. The counter shows
// "--" until the initial value has arrived, so a failed or slow load stays
// visible instead of masquerading as zero.
func StatusLine(st counter.State) string {
	line := "counter: --"
	if st.Loaded {
		line = fmt.Sprintf("counter: %d", st.Counter)
	} else {
		line += " (loading)"
	}
	if st.HasClock {
		line += fmt.Sprintf("  clock: %s", formatClock(st.ClockMs))
	}
	return line
}

// formatClock renders a server tick (Unix milliseconds) as a UTC time of day.
func formatClock(atMs int64) string {
	return time.UnixMilli(atMs).UTC().Format("15:04:05")
}

// Renderer writes status lines to a terminal or plain writer. On a TTY the
// line is repainted in place; otherwise each snapshot gets its own line.
type Renderer struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	lastLen int
}

// NewRenderer creates a renderer for w, probing it for TTY support.
func NewRenderer(w io.Writer) *Renderer {
	r := &Renderer{w: w}
	if f, ok := w.(*os.File); ok {
		r.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return r
}

// Render writes the status line for st.
func (r *Renderer) Render(st counter.State) {
	line := StatusLine(st)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.tty {
		fmt.Fprintln(r.w, line)
		return
	}

	pad := ""
	if n := r.lastLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(r.w, "\r%s%s", line, pad)
	r.lastLen = len(line)
}

// Notef prints a message on its own line. On a TTY the current status line
// is cleared first; the next Render repaints it.
func (r *Renderer) Notef(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tty && r.lastLen > 0 {
		fmt.Fprintf(r.w, "\r%s\r", strings.Repeat(" ", r.lastLen))
		r.lastLen = 0
	}
	fmt.Fprintf(r.w, format+"\n", args...)
}

// Close finishes the in-place status line so the shell prompt starts on a
// fresh line.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tty && r.lastLen > 0 {
		fmt.Fprintln(r.w)
		r.lastLen = 0
	}
}
