package counter

import (
	"testing"

	"github.com/tallyhq/tally/internal/actor"
)

type captureTicks struct {
	fn func(atMs int64)
}

func (c *captureTicks) OnClockTick(fn func(atMs int64)) { c.fn = fn }

type captureDispatch struct {
	inputs []actor.Input
	ok     bool
}

func (c *captureDispatch) Dispatch(in actor.Input) bool {
	c.inputs = append(c.inputs, in)
	return c.ok
}

func TestWireClockTicks(t *testing.T) {
	t.Parallel()

	src := &captureTicks{}
	d := &captureDispatch{ok: true}

	WireClockTicks(d, src)
	if src.fn == nil {
		t.Fatal("tick handler not registered")
	}

	src.fn(1234)
	if len(d.inputs) != 1 {
		t.Fatalf("dispatched=%d, want 1", len(d.inputs))
	}
	ev, ok := d.inputs[0].(evClockTick)
	if !ok {
		t.Fatalf("input=%T, want evClockTick", d.inputs[0])
	}
	if ev.AtMs != 1234 {
		t.Fatalf("AtMs=%d, want 1234", ev.AtMs)
	}
}

func TestWireClockTicksNilSafe(t *testing.T) {
	t.Parallel()

	WireClockTicks(nil, nil)
	WireClockTicks(&captureDispatch{}, nil)
	WireClockTicks(nil, &captureTicks{})
}
