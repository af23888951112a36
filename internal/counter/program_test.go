package counter

import (
	"fmt"
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/actor/actortest"
	"github.com/tallyhq/tally/internal/wire"
)

func collectRenders() (func(State), <-chan State) {
	ch := make(chan State, 64)
	return func(s State) { ch <- s }, ch
}

func waitState(t *testing.T, ch <-chan State, want func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if want(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestProgramSyncMode_LoadThenCount(t *testing.T) {
	t.Parallel()

	render, states := collectRenders()
	p := NewProgram(&fakeSource{value: 0}, nil, Options{OnRender: render})
	p.Start()
	defer p.Stop()

	// Initial render happens before anything has loaded.
	s := waitState(t, states, func(State) bool { return true })
	if s.Loaded {
		t.Fatalf("initial render already loaded: %+v", s)
	}

	waitState(t, states, func(s State) bool { return s.Loaded && s.Counter == 0 })

	for i := 0; i < 3; i++ {
		if !p.Dispatch(Increment()) {
			t.Fatal("dispatch failed")
		}
	}
	waitState(t, states, func(s State) bool { return s.Counter == 3 })

	if !p.Dispatch(Decrement()) {
		t.Fatal("dispatch failed")
	}
	waitState(t, states, func(s State) bool { return s.Counter == 2 })
}

func TestProgramSyncMode_BridgeControlAndTicks(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	render, states := collectRenders()
	p := NewProgram(&fakeSource{value: 5}, sender, Options{OnRender: render})
	p.Start()
	defer p.Stop()

	waitState(t, states, func(s State) bool { return s.Loaded && s.Counter == 5 })

	if !p.Dispatch(Control(wire.ControlStart)) {
		t.Fatal("dispatch failed")
	}

	// Control leaves state untouched and records exactly one outbound send.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sender.Sent()) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	sent := sender.Sent()
	if len(sent) != 1 || sent[0] != wire.ControlStart {
		t.Fatalf("sent=%v, want [start]", sent)
	}
	s := p.State()
	if s.Counter != 5 || s.HasClock {
		t.Fatalf("state=%+v, want counter 5 and no clock", s)
	}

	const tick = int64(1724400000000)
	if !p.Dispatch(ClockTick(tick)) {
		t.Fatal("dispatch failed")
	}
	s = waitState(t, states, func(s State) bool { return s.HasClock })
	if s.ClockMs != tick || s.Counter != 5 {
		t.Fatalf("state=%+v, want clock %d and counter 5", s, tick)
	}
}

func TestProgramSyncMode_PreLoadCommandsAreNoOps(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	render, states := collectRenders()
	p := NewProgram(&fakeSource{value: 10, gate: gate}, nil, Options{OnRender: render})
	p.Start()
	defer p.Stop()

	// Increments before the load reduce to identity.
	if !p.Dispatch(Increment()) {
		t.Fatal("dispatch failed")
	}

	close(gate)
	waitState(t, states, func(s State) bool { return s.Loaded })

	// The counter must reflect only the load, never the early increment.
	if got := p.State().Counter; got != 10 {
		t.Fatalf("Counter=%d, want 10", got)
	}
}

func TestProgramReactiveMode_PreLoadInputsNotObservable(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	source := &fakeSource{value: 42, gate: gate}
	render, states := collectRenders()
	p := NewProgram(source, nil, Options{Reactive: true, OnRender: render})
	p.Start()
	defer p.Stop()

	// Consume the initial render so later waits only see transitions.
	waitState(t, states, func(s State) bool { return !s.Loaded })

	if !p.Dispatch(Increment()) {
		t.Fatal("dispatch failed")
	}

	close(gate)
	s := waitState(t, states, func(s State) bool { return s.Loaded })
	if s.Counter != 42 {
		t.Fatalf("Counter=%d after load, want 42", s.Counter)
	}

	// Events after the switch flow normally.
	if !p.Dispatch(Increment()) {
		t.Fatal("dispatch failed")
	}
	waitState(t, states, func(s State) bool { return s.Counter == 43 })

	if calls := source.Calls(); calls != 1 {
		t.Fatalf("source consulted %d times, want 1", calls)
	}
}

func TestProgramReactiveMode_ControlAfterLoad(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	render, states := collectRenders()
	p := NewProgram(&fakeSource{value: 1}, sender, Options{Reactive: true, OnRender: render})
	p.Start()
	defer p.Stop()

	waitState(t, states, func(s State) bool { return s.Loaded })

	if !p.Dispatch(Control(wire.ControlPause)) {
		t.Fatal("dispatch failed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sender.Sent()) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	sent := sender.Sent()
	if len(sent) != 1 || sent[0] != wire.ControlPause {
		t.Fatalf("sent=%v, want [pause]", sent)
	}
}

func TestProgramLoadFailure_StaysLoading(t *testing.T) {
	t.Parallel()

	render, states := collectRenders()
	p := NewProgram(&fakeSource{err: fmt.Errorf("dial tcp: refused")}, nil, Options{OnRender: render})
	p.Start()
	defer p.Stop()

	// Exactly two renders are expected: the initial snapshot and the
	// identity transition for the failure event. The counter must still be
	// absent in both.
	first := waitState(t, states, func(State) bool { return true })
	second := waitState(t, states, func(State) bool { return true })
	if first.Loaded || second.Loaded {
		t.Fatalf("renders %s / %s, want counter absent after failed load",
			actortest.Pretty(first), actortest.Pretty(second))
	}
	if s := p.State(); s.Loaded {
		t.Fatalf("state=%s, want counter absent", actortest.Pretty(s))
	}
}
