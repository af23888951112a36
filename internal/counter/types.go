// Package counter implements the tally model: the state, the closed input
// vocabulary, the pure reducer, and the effect runtime that binds the loop
// to its collaborators (initial value source, bridge).
package counter

import (
	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/wire"
)

// State is the loop-owned model for the tally program.
//
// Both optional fields start absent. Absence is a separate, inspectable
// flag, never a sentinel value; consumers must branch on it before use. The
// reducer replaces State wholesale on every transition.
type State struct {
	// Counter is the shared tally value. Valid only when Loaded is true.
	Counter int64
	// Loaded reports whether the initial counter value has arrived.
	Loaded bool

	// ClockMs is the last server clock tick in Unix milliseconds. Valid
	// only when HasClock is true.
	ClockMs int64
	// HasClock reports whether any clock tick has arrived.
	HasClock bool
}

// Inputs

// Event is a marker interface for events consumed by the counter reducer.
type Event interface {
	actor.Input
	isCounterEvent()
}

// Command is a marker interface for commands consumed by the counter reducer.
type Command interface {
	actor.Input
	isCounterCommand()
}

// cmdIncrement adds one to the counter. No-op until the value has loaded.
type cmdIncrement struct {
	actor.InputBase
}

func (cmdIncrement) isCounterCommand() {}

// cmdDecrement subtracts one from the counter. No-op until the value has
// loaded.
type cmdDecrement struct {
	actor.InputBase
}

func (cmdDecrement) isCounterCommand() {}

// cmdControl requests sending a clock control command over the bridge. It
// never folds into state.
type cmdControl struct {
	actor.InputBase
	Command wire.ControlCommand
}

func (cmdControl) isCounterCommand() {}

// Events emitted by the runtime and the bridge back into the reducer.

// evCounterLoaded carries the initial counter value.
type evCounterLoaded struct {
	actor.InputBase
	Value int64
}

func (evCounterLoaded) isCounterEvent() {}

// evCounterLoadFailed records a failed initial fetch. The counter stays
// absent; whoever owns the source decides whether to retry.
type evCounterLoadFailed struct {
	actor.InputBase
	Err error
}

func (evCounterLoadFailed) isCounterEvent() {}

// evClockTick carries a server wall-clock timestamp from the bridge.
type evClockTick struct {
	actor.InputBase
	AtMs int64
}

func (evClockTick) isCounterEvent() {}

// Effects

// Effect is a marker interface for effects emitted by the counter reducer.
type Effect interface {
	actor.Effect
	isCounterEffect()
}

// effFetchInitial schedules the one-shot initial counter fetch.
type effFetchInitial struct {
	actor.EffectBase
}

func (effFetchInitial) isCounterEffect() {}

// effSendControl delivers a clock control command over the bridge.
type effSendControl struct {
	actor.EffectBase
	Command wire.ControlCommand
}

func (effSendControl) isCounterEffect() {}
