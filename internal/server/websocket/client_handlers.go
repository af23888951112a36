package websocket

import (
	"context"
	"fmt"

	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

func (s *SocketIOServer) registerClientHandlers(client *socket.Socket, socketID string) {
	// Clock control - applies to the shared clock, so every client sees the
	// resulting state.
	client.On("counter-control", func(data ...any) {
		sd := s.getSocketData(socketID)
		raw, _ := getFirstAnyWithAck(data)

		cmd, err := controlFromPayload(raw)
		if err != nil {
			logger.Warnf("counter-control rejected (account %s): %v", sd.AccountID, err)
			return
		}

		switch cmd {
		case wire.ControlStart:
			s.hub.Resume()
		case wire.ControlPause:
			s.hub.Pause()
		}
		logger.Debugf("Clock control %q from account %s", cmd, sd.AccountID)

		s.Broadcast("clock-state", wire.ClockStatePayload{Running: s.hub.Running()})
	})

	// RPC call - served directly by the registry.
	client.On("rpc-call", func(data ...any) {
		sd := s.getSocketData(socketID)
		raw, ack := getFirstAnyWithAck(data)

		var req wire.RPCCallPayload
		if err := decodeAny(raw, &req); err != nil {
			if ack != nil {
				ack(wire.RPCAck{OK: false, Error: "invalid parameters"})
			}
			return
		}

		result := s.rpc.Dispatch(context.Background(), sd.AccountID, req)
		if ack != nil {
			ack(result)
		}
	})

	// Disconnection handler
	client.On("disconnect", func(data ...any) {
		sd := s.getSocketData(socketID)
		reason := ""
		if len(data) > 0 {
			if r, ok := data[0].(string); ok {
				reason = r
			}
		}
		logger.Infof("Bridge client disconnected: %s (socket %s, reason: %s)",
			sd.AccountID, socketID, reason)

		s.socketData.Delete(socketID)
	})
}

// controlFromPayload decodes and validates a counter-control payload.
func controlFromPayload(raw any) (wire.ControlCommand, error) {
	var payload wire.ControlPayload
	if err := decodeAny(raw, &payload); err != nil {
		return "", err
	}
	if !payload.Command.Valid() {
		return "", fmt.Errorf("invalid control command: %q", payload.Command)
	}
	return payload.Command, nil
}
