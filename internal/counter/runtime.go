package counter

import (
	"context"
	"fmt"

	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// InitialSource asynchronously provides the counter's starting value.
//
// Implementations own transport, timeout, and retry policy; the engine
// invokes the source exactly once per session and performs no retries.
type InitialSource interface {
	FetchInitial(ctx context.Context) (int64, error)
}

// ControlSender delivers clock control commands over the push channel.
type ControlSender interface {
	SendControl(ctx context.Context, cmd wire.ControlCommand) error
}

// Runtime interprets counter effects against the two collaborators.
//
// IMPORTANT: Runtime must never mutate program state directly. Completions
// re-enter the loop as events through the provided emit function.
type Runtime struct {
	source InitialSource
	sender ControlSender
}

// NewRuntime returns a Runtime over the given collaborators. The sender may
// be nil when the bridge is disabled; control effects are then dropped with
// a warning.
func NewRuntime(source InitialSource, sender ControlSender) *Runtime {
	return &Runtime{source: source, sender: sender}
}

// HandleEffects implements actor.Runtime.
func (r *Runtime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	for _, eff := range effects {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch e := eff.(type) {
		case effFetchInitial:
			r.fetchInitial(ctx, emit)
		case effSendControl:
			r.sendControl(ctx, e)
		default:
			// Unknown effect: ignore.
		}
	}
}

// Stop implements actor.Runtime.
func (r *Runtime) Stop() {}

func (r *Runtime) fetchInitial(ctx context.Context, emit func(actor.Input)) {
	if r.source == nil {
		emit(CounterLoadFailed(fmt.Errorf("no initial value source configured")))
		return
	}
	go func() {
		value, err := r.source.FetchInitial(ctx)
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err != nil {
			logger.Warnf("Initial counter fetch failed: %v", err)
			emit(CounterLoadFailed(err))
			return
		}
		emit(CounterLoaded(value))
	}()
}

func (r *Runtime) sendControl(ctx context.Context, eff effSendControl) {
	if r.sender == nil {
		logger.Warnf("Dropping %q control: bridge not configured", eff.Command)
		return
	}
	go func() {
		if err := r.sender.SendControl(ctx, eff.Command); err != nil {
			logger.Warnf("Failed to send %q control: %v", eff.Command, err)
		}
	}()
}
