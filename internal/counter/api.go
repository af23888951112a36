package counter

import (
	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/wire"
)

// Increment returns a command input that adds one to the counter. It is a
// no-op while the initial value has not loaded.
func Increment() actor.Input {
	return cmdIncrement{}
}

// Decrement returns a command input that subtracts one from the counter. It
// is a no-op while the initial value has not loaded.
func Decrement() actor.Input {
	return cmdDecrement{}
}

// Control returns a command input that sends a clock control command over
// the bridge. The state is left unchanged; the send happens as an effect.
func Control(cmd wire.ControlCommand) actor.Input {
	return cmdControl{Command: cmd}
}

// CounterLoaded returns the event input carrying the initial counter value.
func CounterLoaded(value int64) actor.Input {
	return evCounterLoaded{Value: value}
}

// CounterLoadFailed returns the event input recording a failed initial
// fetch.
func CounterLoadFailed(err error) actor.Input {
	return evCounterLoadFailed{Err: err}
}

// ClockTick returns the event input carrying a server clock timestamp in
// Unix milliseconds.
func ClockTick(atMs int64) actor.Input {
	return evClockTick{AtMs: atMs}
}
