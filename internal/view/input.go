package view

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/counter"
	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// Dispatcher accepts inputs for the running program. counter.Program
// satisfies it.
type Dispatcher interface {
	Dispatch(in actor.Input) bool
}

const helpText = `commands:
  +, inc     increment the counter
  -, dec     decrement the counter
  start      start the server clock
  pause      pause the server clock
  h, help    show this help
  q, quit    exit`

// Run reads commands from in line by line and dispatches them until the
// context is cancelled, the input hits EOF, or the user quits.
func Run(ctx context.Context, in io.Reader, d Dispatcher, r *Renderer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line := <-lines:
			if quit := handleLine(line, d, r); quit {
				return nil
			}
		}
	}
}

// handleLine executes one typed command. It reports true when the user asked
// to quit.
func handleLine(line string, d Dispatcher, r *Renderer) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
	case "+", "inc", "increment":
		send(d, counter.Increment())
	case "-", "dec", "decrement":
		send(d, counter.Decrement())
	case "start":
		send(d, counter.Control(wire.ControlStart))
	case "pause":
		send(d, counter.Control(wire.ControlPause))
	case "h", "help", "?":
		r.Notef("%s", helpText)
	case "q", "quit", "exit":
		return true
	default:
		r.Notef("unknown command %q (h for help)", strings.TrimSpace(line))
	}
	return false
}

func send(d Dispatcher, in actor.Input) {
	if !d.Dispatch(in) {
		logger.Debugf("Dropped input %T: program not accepting inputs", in)
	}
}
