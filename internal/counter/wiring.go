package counter

import (
	"github.com/tallyhq/tally/internal/actor"
	"github.com/tallyhq/tally/pkg/logger"
)

// tickSource is the subset of the bridge client used for inbound wiring.
type tickSource interface {
	OnClockTick(fn func(atMs int64))
}

// dispatcher is the minimal engine API wiring helpers need.
type dispatcher interface {
	Dispatch(in actor.Input) bool
}

// WireClockTicks registers a bridge callback that forwards inbound clock
// timestamps into the engine as events, serialized through the single
// dispatch entry point like every other input.
func WireClockTicks(d dispatcher, src tickSource) {
	if d == nil || src == nil {
		return
	}

	src.OnClockTick(func(atMs int64) {
		if !d.Dispatch(ClockTick(atMs)) {
			logger.Debugf("Dropped clock tick at %d: engine unavailable", atMs)
		}
	})
}
