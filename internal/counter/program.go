package counter

import (
	"context"
	"fmt"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/pkg/logger"
)

// Options configure a Program.
type Options struct {
	// Reactive selects the stream driver (two-phase source selection)
	// instead of the mailbox actor. The states reachable for the counter
	// vocabulary are the same in both modes; the drivers differ in whether
	// live inputs arriving before the load are dropped (stream) or reduced
	// to no-ops (mailbox).
	Reactive bool
	// MailboxSize overrides the driver buffer size when positive.
	MailboxSize int
	// OnRender, when non-nil, receives every state snapshot: once at
	// startup and again after every transition.
	OnRender func(State)
}

// driver is the surface shared by the two engine loops.
type driver interface {
	Start()
	Stop()
	Done() <-chan struct{}
	Enqueue(actor.Input) bool
	State() State
}

// Program is the composition root for the counter engine: it builds the
// driver and the runtime, owns their lifetimes, and exposes the single
// dispatch entry point the view and the bridge feed into.
type Program struct {
	drv    driver
	render func(State)
}

// NewProgram builds a program over the given collaborators. The sender may
// be nil when the bridge is disabled.
func NewProgram(source InitialSource, sender ControlSender, opts Options) *Program {
	rt := NewRuntime(source, sender)
	p := &Program{render: opts.OnRender}

	hooks := actor.Hooks[State]{
		OnTransition: func(prev, next State, in actor.Input) {
			if next != prev {
				logger.Tracef("counter: %+v -> %+v on %T", prev, next, in)
			}
			if p.render != nil {
				p.render(next)
			}
		},
		OnPanic: func(recovered any) {
			logger.Errorf("Counter loop panic: %v", recovered)
		},
	}

	state, effects := Init()
	if opts.Reactive {
		sopts := []actor.StreamOption[State]{actor.WithStreamHooks(hooks)}
		if opts.MailboxSize > 0 {
			sopts = append(sopts, actor.WithFeedSize[State](opts.MailboxSize))
		}
		p.drv = actor.NewStream(state, Reduce, rt, phaseOf, loadOnce(source), sopts...)
	} else {
		aopts := []actor.Option[State]{
			actor.WithHooks(hooks),
			actor.WithInitialEffects[State](effects),
		}
		if opts.MailboxSize > 0 {
			aopts = append(aopts, actor.WithMailboxSize[State](opts.MailboxSize))
		}
		p.drv = actor.New(state, Reduce, rt, aopts...)
	}
	return p
}

// phaseOf selects the stream source for a state: the one-shot loader until
// the counter is present, the live feed from then on.
func phaseOf(s State) actor.Phase {
	if s.Loaded {
		return actor.PhaseLive
	}
	return actor.PhaseLoading
}

// loadOnce wraps the initial fetch as the stream driver's one-shot loader,
// mapping success and failure into the same events the mailbox runtime
// emits.
func loadOnce(source InitialSource) actor.LoadFunc {
	return func(ctx context.Context) actor.Input {
		if source == nil {
			return CounterLoadFailed(fmt.Errorf("no initial value source configured"))
		}
		value, err := source.FetchInitial(ctx)
		if err != nil {
			logger.Warnf("Initial counter fetch failed: %v", err)
			return CounterLoadFailed(err)
		}
		return CounterLoaded(value)
	}
}

// Start renders the initial snapshot and launches the engine.
func (p *Program) Start() {
	if p.render != nil {
		p.render(p.drv.State())
	}
	p.drv.Start()
}

// Stop shuts the engine down. Safe to call multiple times.
func (p *Program) Stop() {
	p.drv.Stop()
}

// Done returns a channel that closes when the engine loop exits.
func (p *Program) Done() <-chan struct{} {
	return p.drv.Done()
}

// Dispatch feeds one input into the engine's single entry point. It never
// blocks; false means the input was dropped (engine stopped or saturated).
func (p *Program) Dispatch(in actor.Input) bool {
	return p.drv.Enqueue(in)
}

// State returns a snapshot of the current model.
func (p *Program) State() State {
	return p.drv.State()
}
