// Package actor provides the model-view-update event loop that drives the
// tally client.
//
// The moving parts are:
//   - A single goroutine ("the loop") owns all mutable state.
//   - A pure reducer maps (state, input) to the next state plus effects.
//   - A runtime interprets effects asynchronously and emits the results
//     back into the loop as new inputs.
//
// Exactly one input is processed at a time, so the reducer never sees
// concurrent mutation and every run of the same input sequence produces the
// same states. Two interchangeable drivers exist: Actor (mailbox loop) and
// StreamDriver (two-phase source selection, see stream.go).
package actor

import (
	"context"
	"sync"
)

// defaultMailboxSize is the inbox buffer used when no option overrides it.
const defaultMailboxSize = 256

// Input is an item delivered to the loop.
//
// Inputs can be events (observations fed back by the runtime or a transport)
// or commands (user intents from the view). The loop does not distinguish the
// two; it only requires that inputs are serialized through a single consumer.
type Input interface {
	isActorInput()
}

// Effect is a declarative side-effect produced by a reducer.
//
// Effects are data, not execution. The Runtime interprets them and emits
// resulting events back to the loop; the reducer never inspects an effect's
// internals after producing it.
type Effect interface {
	isActorEffect()
}

// ReducerFunc is a pure state transition function.
//
// Reducers must be side-effect free:
//   - no I/O
//   - no goroutine spawning
//   - no time.Now / random IDs (inject via inputs instead)
//
// A reducer must be total over its input vocabulary: unknown inputs return
// the state unchanged with no effects.
type ReducerFunc[S any] func(state S, input Input) (next S, effects []Effect)

// Runtime interprets effects and emits follow-up inputs back to the loop.
//
// Implementations must not mutate loop state directly; completions re-enter
// through the provided emitter, which preserves the one-at-a-time invariant.
type Runtime interface {
	// HandleEffects executes effects. It should return quickly; long-running
	// or blocking work must run asynchronously. Implementations must stop
	// emitting once the context is canceled.
	HandleEffects(ctx context.Context, effects []Effect, emit func(Input))

	// Stop requests that the runtime stop any background work. It may be
	// called multiple times.
	Stop()
}

// Hooks provide optional observability into a driver's execution.
type Hooks[S any] struct {
	// OnInput is called after an input is dequeued, before reducing.
	OnInput func(input Input)
	// OnTransition is called after reducing, when the next state is applied.
	OnTransition func(prev S, next S, input Input)
	// OnEffects is called after reducing, before effects reach the Runtime.
	OnEffects func(effects []Effect)
	// OnPanic is called when the loop panics. If nil, panics propagate.
	OnPanic func(recovered any)
}

// Actor runs a single-threaded event loop that owns state of type S.
type Actor[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	hooks   Hooks[S]
	initial []Effect

	mu     sync.Mutex
	state  S
	inbox  chan Input
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates an actor with initial state, reducer, and runtime.
func New[S any](initial S, reducer ReducerFunc[S], runtime Runtime, opts ...Option[S]) *Actor[S] {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor[S]{
		reduce:  reducer,
		runtime: runtime,
		state:   initial,
		inbox:   make(chan Input, defaultMailboxSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option configures an Actor.
type Option[S any] func(*Actor[S])

// WithHooks attaches hooks for observability.
func WithHooks[S any](hooks Hooks[S]) Option[S] {
	return func(a *Actor[S]) { a.hooks = hooks }
}

// WithMailboxSize sets the inbox buffer size.
func WithMailboxSize[S any](n int) Option[S] {
	return func(a *Actor[S]) {
		if n <= 0 {
			return
		}
		a.inbox = make(chan Input, n)
	}
}

// WithInitialEffects schedules effects that run through the runtime inside
// the loop goroutine, before the first input is consumed. This is how a
// program's startup effect (for tally, the one-shot initial counter fetch)
// enters the system exactly once per session.
func WithInitialEffects[S any](effects []Effect) Option[S] {
	return func(a *Actor[S]) { a.initial = effects }
}

// Start launches the loop in its own goroutine.
//
// Start is idempotent; calling Start multiple times has no effect.
func (a *Actor[S]) Start() {
	a.once.Do(func() { go a.loop() })
}

// Stop cancels the loop context and stops the runtime.
//
// Stop is safe to call multiple times.
func (a *Actor[S]) Stop() {
	a.cancel()
	if a.runtime != nil {
		a.runtime.Stop()
	}
}

// Done returns a channel that closes when the loop exits.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Enqueue delivers an input to the mailbox.
//
// Enqueue never blocks: it returns false when the actor is stopped or the
// mailbox is full. Callers that need backpressure should use a larger
// mailbox or explicit flow control.
func (a *Actor[S]) Enqueue(input Input) bool {
	if input == nil {
		return false
	}
	select {
	case <-a.ctx.Done():
		return false
	default:
	}
	select {
	case a.inbox <- input:
		return true
	default:
		return false
	}
}

// State returns a snapshot of the current state.
//
// This is intended for observability and tests. Production code should
// derive behavior from reducer outputs rather than reading state concurrently.
func (a *Actor[S]) State() S {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// loop runs the event loop.
func (a *Actor[S]) loop() {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			if a.hooks.OnPanic != nil {
				a.hooks.OnPanic(r)
				return
			}
			panic(r)
		}
	}()

	emit := func(in Input) {
		_ = a.Enqueue(in)
	}

	if a.runtime != nil && len(a.initial) > 0 {
		if a.hooks.OnEffects != nil {
			a.hooks.OnEffects(a.initial)
		}
		a.runtime.HandleEffects(a.ctx, a.initial, emit)
	}

	for {
		select {
		case <-a.ctx.Done():
			return
		case in := <-a.inbox:
			if in == nil {
				continue
			}
			if a.hooks.OnInput != nil {
				a.hooks.OnInput(in)
			}

			a.mu.Lock()
			prev := a.state
			a.mu.Unlock()

			next, effects := a.reduce(prev, in)

			a.mu.Lock()
			a.state = next
			a.mu.Unlock()

			if a.hooks.OnTransition != nil {
				a.hooks.OnTransition(prev, next, in)
			}
			if len(effects) > 0 && a.hooks.OnEffects != nil {
				a.hooks.OnEffects(effects)
			}

			if a.runtime != nil && len(effects) > 0 {
				a.runtime.HandleEffects(a.ctx, effects, emit)
			}
		}
	}
}
