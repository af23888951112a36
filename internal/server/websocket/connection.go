package websocket

import (
	"errors"
	"fmt"

	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// socketHandshake is the validated handshake auth payload.
type socketHandshake struct {
	Token      string
	ClientType string
}

// validateSocketAuth validates the handshake auth payload and applies the
// default client type.
func validateSocketAuth(auth wire.SocketAuthPayload) (socketHandshake, error) {
	if auth.Token == "" {
		return socketHandshake{}, errors.New("Missing authentication token")
	}

	clientType := auth.ClientType
	if clientType == "" {
		clientType = "terminal"
	}
	switch clientType {
	case "terminal", "web":
	default:
		return socketHandshake{}, fmt.Errorf("Invalid client type: %s", clientType)
	}

	return socketHandshake{
		Token:      auth.Token,
		ClientType: clientType,
	}, nil
}

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())

	logger.Infof("Bridge connection attempt (socket ID: %s)", socketID)

	handshake := client.Handshake()

	authMap := handshake.Auth
	if len(authMap) == 0 {
		logger.Warnf("Bridge missing auth data (socket %s)", socketID)
		client.Emit("error", map[string]string{"message": "Missing authentication data"})
		client.Disconnect(true)
		return
	}

	var authPayload wire.SocketAuthPayload
	if err := decodeAny(authMap, &authPayload); err != nil {
		logger.Warnf("Bridge invalid auth data (socket %s): %v", socketID, err)
		client.Emit("error", map[string]string{"message": "Invalid authentication data"})
		client.Disconnect(true)
		return
	}

	handshakeAuth, err := validateSocketAuth(authPayload)
	if err != nil {
		logger.Warnf("Bridge handshake rejected (socket %s): %v", socketID, err)
		client.Emit("error", map[string]string{"message": err.Error()})
		client.Disconnect(true)
		return
	}

	claims, err := s.jwtManager.VerifyToken(handshakeAuth.Token)
	if err != nil {
		logger.Warnf("Bridge invalid token (socket %s): %v", socketID, err)
		client.Emit("error", map[string]string{"message": "Invalid authentication token"})
		client.Disconnect(true)
		return
	}

	accountID := claims.Subject
	s.socketData.Store(socketID, &SocketData{
		AccountID:  accountID,
		ClientType: handshakeAuth.ClientType,
		Socket:     client,
	})

	logger.Infof("Bridge client ready (account: %s, clientType: %s)", accountID, handshakeAuth.ClientType)

	// Late joiners learn the clock state immediately; the next tick arrives
	// within one interval.
	client.Emit("clock-state", wire.ClockStatePayload{Running: s.hub.Running()})

	s.registerClientHandlers(client, socketID)
}
