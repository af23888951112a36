package counter

import (
	"github.com/tallyhq/tally/internal/actor"
)

// Init returns the starting model (all optional fields absent) and the
// single effect that asynchronously requests the initial counter value.
// The program wires it exactly once per session.
func Init() (State, []actor.Effect) {
	return State{}, []actor.Effect{effFetchInitial{}}
}

// Reduce is the counter reducer: one exhaustive match over the input
// vocabulary, independent of which collaborators are wired in.
//
// Commands that do not apply to the current state reduce to identity, and
// unknown inputs fall through to the catch-all. That arm is deliberate
// behavior, not an error path: the reducer is total.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	switch in := input.(type) {
	case cmdIncrement:
		if !state.Loaded {
			return state, nil
		}
		state.Counter++
		return state, nil

	case cmdDecrement:
		if !state.Loaded {
			return state, nil
		}
		state.Counter--
		return state, nil

	case cmdControl:
		// Control never folds into state; it only produces the outbound send.
		return state, []actor.Effect{effSendControl{Command: in.Command}}

	case evCounterLoaded:
		// Applied unconditionally: a late completion still wins.
		state.Counter = in.Value
		state.Loaded = true
		return state, nil

	case evCounterLoadFailed:
		// The counter stays absent so the failure remains observable.
		return state, nil

	case evClockTick:
		state.ClockMs = in.AtMs
		state.HasClock = true
		return state, nil

	default:
		return state, nil
	}
}
