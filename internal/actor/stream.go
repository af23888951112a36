package actor

import (
	"context"
	"sync"
)

// Phase names which event source feeds a StreamDriver.
type Phase int

const (
	// PhaseLoading draws exclusively from the one-shot loader.
	PhaseLoading Phase = iota
	// PhaseLive draws exclusively from the live feed.
	PhaseLive
)

// PhaseFunc selects the event source for a state. It is re-evaluated after
// every transition, so the switch from loading to live happens the instant
// the state first satisfies it.
type PhaseFunc[S any] func(state S) Phase

// LoadFunc produces the single input of the loading phase. It runs once, in
// its own goroutine, and must map both success and failure of the underlying
// fetch into a non-nil Input.
type LoadFunc func(ctx context.Context) Input

// StreamDriver drives a reducer from one of two sources chosen by the
// current state: a one-shot loader while the phase is PhaseLoading, the
// live feed once the phase is PhaseLive.
//
// Inputs enqueued during the loading phase are not observable: the driver
// discards them as they arrive, and any backlog still buffered when the
// loader delivers is dropped before the loader input is applied, matching a
// live source that has no subscriber yet. The phase only moves forward;
// after the first transition into PhaseLive the loader is never consulted
// again.
//
// StreamDriver presents the same surface as Actor so the two drivers are
// interchangeable behind a program.
type StreamDriver[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	phase   PhaseFunc[S]
	load    LoadFunc
	hooks   Hooks[S]

	mu     sync.Mutex
	state  S
	loader chan Input
	feed   chan Input
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewStream creates a stream driver with initial state, reducer, runtime,
// phase selector, and one-shot loader.
func NewStream[S any](initial S, reducer ReducerFunc[S], runtime Runtime, phase PhaseFunc[S], load LoadFunc, opts ...StreamOption[S]) *StreamDriver[S] {
	ctx, cancel := context.WithCancel(context.Background())
	d := &StreamDriver[S]{
		reduce:  reducer,
		runtime: runtime,
		phase:   phase,
		load:    load,
		state:   initial,
		loader:  make(chan Input, 1),
		feed:    make(chan Input, defaultMailboxSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// StreamOption configures a StreamDriver.
type StreamOption[S any] func(*StreamDriver[S])

// WithStreamHooks attaches hooks for observability.
func WithStreamHooks[S any](hooks Hooks[S]) StreamOption[S] {
	return func(d *StreamDriver[S]) { d.hooks = hooks }
}

// WithFeedSize sets the live feed buffer size.
func WithFeedSize[S any](n int) StreamOption[S] {
	return func(d *StreamDriver[S]) {
		if n <= 0 {
			return
		}
		d.feed = make(chan Input, n)
	}
}

// Start launches the driver. The loader runs only when the initial state is
// still loading; a state that is live from the start never consults it.
//
// Start is idempotent.
func (d *StreamDriver[S]) Start() {
	d.once.Do(func() {
		if d.load != nil && d.phase(d.State()) == PhaseLoading {
			go d.loadOnce()
		}
		go d.loop()
	})
}

// Stop cancels the driver context and stops the runtime.
//
// Stop is safe to call multiple times.
func (d *StreamDriver[S]) Stop() {
	d.cancel()
	if d.runtime != nil {
		d.runtime.Stop()
	}
}

// Done returns a channel that closes when the loop exits.
func (d *StreamDriver[S]) Done() <-chan struct{} { return d.done }

// Enqueue delivers an input to the live feed.
//
// Enqueue never blocks: it returns false when the driver is stopped or the
// feed is full. Whether the input becomes observable depends on the phase
// at the time the loop reaches it.
func (d *StreamDriver[S]) Enqueue(input Input) bool {
	if input == nil {
		return false
	}
	select {
	case <-d.ctx.Done():
		return false
	default:
	}
	select {
	case d.feed <- input:
		return true
	default:
		return false
	}
}

// State returns a snapshot of the current state.
func (d *StreamDriver[S]) State() S {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// loadOnce runs the one-shot loader and delivers its input.
func (d *StreamDriver[S]) loadOnce() {
	in := d.load(d.ctx)
	if in == nil {
		return
	}
	select {
	case d.loader <- in:
	case <-d.ctx.Done():
	}
}

// loop selects the source for the current phase, one input at a time.
func (d *StreamDriver[S]) loop() {
	defer close(d.done)
	defer func() {
		if r := recover(); r != nil {
			if d.hooks.OnPanic != nil {
				d.hooks.OnPanic(r)
				return
			}
			panic(r)
		}
	}()

	emit := func(in Input) {
		_ = d.Enqueue(in)
	}

	for {
		if d.phase(d.State()) == PhaseLive {
			select {
			case <-d.ctx.Done():
				return
			case in := <-d.feed:
				d.apply(in, emit)
			}
			continue
		}

		select {
		case <-d.ctx.Done():
			return
		case in := <-d.loader:
			// Anything already buffered arrived before the switch could be
			// observed, so it is dropped along with the rest of the backlog.
			d.drainFeed()
			d.apply(in, emit)
		case <-d.feed:
			// The live feed has no subscriber while loading.
		}
	}
}

// apply runs one reducer step and hands effects to the runtime.
func (d *StreamDriver[S]) apply(in Input, emit func(Input)) {
	if in == nil {
		return
	}
	if d.hooks.OnInput != nil {
		d.hooks.OnInput(in)
	}

	d.mu.Lock()
	prev := d.state
	d.mu.Unlock()

	next, effects := d.reduce(prev, in)

	d.mu.Lock()
	d.state = next
	d.mu.Unlock()

	if d.hooks.OnTransition != nil {
		d.hooks.OnTransition(prev, next, in)
	}
	if len(effects) > 0 && d.hooks.OnEffects != nil {
		d.hooks.OnEffects(effects)
	}

	if d.runtime != nil && len(effects) > 0 {
		d.runtime.HandleEffects(d.ctx, effects, emit)
	}
}

// drainFeed discards inputs buffered while the feed had no subscriber.
func (d *StreamDriver[S]) drainFeed() {
	for {
		select {
		case <-d.feed:
		default:
			return
		}
	}
}
