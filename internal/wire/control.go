// Package wire defines the typed payloads exchanged between the tally
// client and the tallyd server over HTTP and the socket bridge.
package wire

// ControlCommand is a clock control command sent over the bridge.
type ControlCommand string

const (
	// ControlStart resumes the server clock broadcast.
	ControlStart ControlCommand = "start"
	// ControlPause suspends the server clock broadcast.
	ControlPause ControlCommand = "pause"
)

// Valid reports whether the command is one of the declared values.
func (c ControlCommand) Valid() bool {
	return c == ControlStart || c == ControlPause
}

// ControlPayload is the "counter-control" event payload (client -> server).
type ControlPayload struct {
	// Command is the clock control command ("start" or "pause").
	Command ControlCommand `json:"command"`
}

// ClockTickPayload is the "clock-tick" event payload (server -> client).
type ClockTickPayload struct {
	// T is the server wall-clock timestamp in Unix milliseconds.
	T int64 `json:"t"`
}

// ClockStatePayload is the "clock-state" event payload (server -> client),
// broadcast whenever a control command changes the hub state.
type ClockStatePayload struct {
	// Running indicates whether the clock broadcast is active.
	Running bool `json:"running"`
}
