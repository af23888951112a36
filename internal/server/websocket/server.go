// Package websocket implements the tallyd side of the bridge: the socket.io
// endpoint, the clock hub, and the RPC methods served to clients.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/tallyhq/tally/internal/server/crypto"
	"github.com/tallyhq/tally/internal/server/database"
	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// SocketIOServer wraps the Socket.IO server for tallyd.
type SocketIOServer struct {
	db         *database.DB
	jwtManager *crypto.JWTManager
	server     *socket.Server
	socketData sync.Map // socket ID -> *SocketData
	rpc        *RPCRegistry
	hub        *ClockHub
}

// SocketData stores connection metadata for each socket.
type SocketData struct {
	AccountID  string
	ClientType string
	Socket     *socket.Socket
}

// NewSocketIOServer creates the bridge endpoint and starts the clock hub.
func NewSocketIOServer(db *database.DB, jwtManager *crypto.JWTManager, tickInterval time.Duration) *SocketIOServer {
	opts := socket.DefaultServerOptions()

	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})

	// Ping settings bound how long a vanished client keeps receiving
	// broadcasts.
	opts.SetPingInterval(5 * time.Second)
	opts.SetPingTimeout(15 * time.Second)

	opts.SetPath("/v1/bridge")

	server := socket.NewServer(nil, opts)

	s := &SocketIOServer{
		db:         db,
		jwtManager: jwtManager,
		server:     server,
		rpc:        NewRPCRegistry(),
	}
	s.hub = NewClockHub(tickInterval, time.Now, s.Broadcast)
	s.registerRPCMethods()

	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})

	s.hub.Run()
	return s
}

// registerRPCMethods wires the typed procedures served to bridge clients.
func (s *SocketIOServer) registerRPCMethods() {
	s.rpc.Register("counter.init", s.rpcCounterInit)
}

// rpcCounterInit serves the typed initial-load call.
func (s *SocketIOServer) rpcCounterInit(ctx context.Context, accountID, params string) (any, error) {
	counter, err := s.db.GetCounter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read counter: %w", err)
	}
	logger.Tracef("counter.init -> %d (account %s)", counter.Value, accountID)
	return wire.InitResult{Value: counter.Value}, nil
}

// Hub exposes the clock hub.
func (s *SocketIOServer) Hub() *ClockHub {
	return s.hub
}

// Broadcast emits an event to every connected bridge client.
func (s *SocketIOServer) Broadcast(event string, payload any) {
	s.socketData.Range(func(key, value any) bool {
		sd, ok := value.(*SocketData)
		if !ok || sd.Socket == nil {
			return true
		}
		sd.Socket.Emit(event, payload)
		return true
	})
}

func decodeAny(input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// getSocketData retrieves socket metadata by socket ID.
func (s *SocketIOServer) getSocketData(socketID string) *SocketData {
	if data, ok := s.socketData.Load(socketID); ok {
		if sd, ok := data.(*SocketData); ok {
			return sd
		}
	}
	return &SocketData{} // Return empty struct if not found
}

func getFirstAnyWithAck(data []any) (any, func(...any)) {
	var ack func(...any)
	if len(data) == 0 {
		return nil, nil
	}
	if cb, ok := data[len(data)-1].(func(...any)); ok {
		ack = cb
		data = data[:len(data)-1]
	} else if cb, ok := data[len(data)-1].(socket.Ack); ok {
		ack = func(args ...any) {
			cb(args, nil)
		}
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ack
	}
	return data[0], ack
}

// HandleSocketIO creates a Gin handler for the bridge endpoint.
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")

		if c.Request.Method == "OPTIONS" {
			c.Status(http.StatusOK)
			return
		}

		logger.Tracef("Bridge request: %s %s", c.Request.Method, c.Request.URL.Path)
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts down the hub and the Socket.IO server.
func (s *SocketIOServer) Close() error {
	s.hub.Stop()
	s.server.Close(nil)
	return nil
}
