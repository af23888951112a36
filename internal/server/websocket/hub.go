package websocket

import (
	"sync"
	"time"

	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// ClockHub broadcasts wall-clock ticks to every bridge client and carries
// the shared start/pause switch. It starts running; Pause and Resume are
// idempotent and apply to all clients at once.
type ClockHub struct {
	interval time.Duration
	now      func() time.Time
	emit     func(event string, payload any)

	mu      sync.Mutex
	running bool
	started bool

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewClockHub creates a hub that emits a clock-tick every interval. The
// clock source is injectable for tests.
func NewClockHub(interval time.Duration, now func() time.Time, emit func(event string, payload any)) *ClockHub {
	return &ClockHub{
		interval: interval,
		now:      now,
		emit:     emit,
		running:  true,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the broadcast loop.
func (h *ClockHub) Run() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.loop()
}

func (h *ClockHub) loop() {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			if !h.Running() {
				continue
			}
			h.emit("clock-tick", wire.ClockTickPayload{T: h.now().UnixMilli()})
		}
	}
}

// Resume starts tick emission.
func (h *ClockHub) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		logger.Debugf("Clock resumed")
	}
	h.running = true
}

// Pause stops tick emission. The loop keeps running so Resume is instant.
func (h *ClockHub) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		logger.Debugf("Clock paused")
	}
	h.running = false
}

// Running reports whether ticks are being emitted.
func (h *ClockHub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Stop terminates the broadcast loop. Safe to call multiple times.
func (h *ClockHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})

	h.mu.Lock()
	started := h.started
	h.mu.Unlock()
	if started {
		<-h.done
	}
}
