// Package bridge implements the socket.io push channel between the tally
// client and tallyd: clock ticks and state flow in, control commands and
// RPC calls flow out.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// ErrNotConnected is returned when an operation needs a live socket.
var ErrNotConnected = errors.New("not connected")

// rpcTimeout bounds how long an rpc-call waits for its ack.
const rpcTimeout = 10 * time.Second

// Client is the bridge socket connection.
type Client struct {
	serverURL string
	token     string

	mu           sync.RWMutex
	socket       *socket.Socket
	connected    bool
	onTick       func(atMs int64)
	onConnect    func()
	onDisconnect func(reason string)

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a bridge client for the given server and token. Connect
// must be called before any sends.
func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL: serverURL,
		token:     token,
		done:      make(chan struct{}),
	}
}

// OnClockTick registers the handler for inbound clock timestamps.
func (c *Client) OnClockTick(fn func(atMs int64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}

// OnConnect registers a handler fired each time the socket connects.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

// OnDisconnect registers a handler fired each time the socket disconnects.
func (c *Client) OnDisconnect(fn func(reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// Connect establishes the socket.io connection to {server}/v1/bridge.
//
// Reconnects are handled by the socket.io client; registered handlers stay
// attached across them.
func (c *Client) Connect() error {
	logger.Debugf("Connecting to bridge: %s (path: /v1/bridge)", c.serverURL)

	opts := socket.DefaultOptions()
	opts.SetPath("/v1/bridge")
	opts.SetTransports(types.NewSet(socket.Polling, socket.WebSocket))
	opts.SetAuth(map[string]interface{}{
		"token":      c.token,
		"clientType": "terminal",
	})

	sock, err := socket.Connect(c.serverURL, opts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()

	sock.On(types.EventName("connect"), func(args ...any) {
		c.mu.Lock()
		c.connected = true
		fn := c.onConnect
		c.mu.Unlock()

		logger.Debugf("Bridge connected (socket %s)", sock.Id())
		if fn != nil {
			go fn()
		}
	})

	sock.On(types.EventName("disconnect"), func(args ...any) {
		c.mu.Lock()
		c.connected = false
		fn := c.onDisconnect
		c.mu.Unlock()

		reason := ""
		if len(args) > 0 {
			if r, ok := args[0].(string); ok {
				reason = r
			}
		}
		logger.Debugf("Bridge disconnected: %s", reason)
		if fn != nil {
			go fn(reason)
		}
	})

	sock.On(types.EventName("connect_error"), func(args ...any) {
		if len(args) > 0 {
			logger.Warnf("Bridge connection error: %v", args[0])
		}
	})

	sock.On(types.EventName("clock-tick"), func(args ...any) {
		atMs, ok := tickFromArgs(args)
		if !ok {
			logger.Tracef("Ignoring malformed clock-tick: %v", args)
			return
		}

		c.mu.RLock()
		fn := c.onTick
		c.mu.RUnlock()

		if fn != nil {
			go fn(atMs)
		}
	})

	return nil
}

// WaitForConnect waits for the socket to report connected or times out.
func (c *Client) WaitForConnect(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.IsConnected() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return c.IsConnected()
}

// SendControl emits a clock control command. It implements
// counter.ControlSender.
func (c *Client) SendControl(_ context.Context, cmd wire.ControlCommand) error {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return ErrNotConnected
	}

	logger.Tracef("Sending counter-control: %s", cmd)
	sock.Emit("counter-control", map[string]interface{}{
		"command": string(cmd),
	})
	return nil
}

// CallInit invokes the typed "counter.init" procedure and returns the
// acknowledged counter value. It implements transport.InitCaller.
func (c *Client) CallInit(ctx context.Context) (int64, error) {
	resp, err := c.emitWithAck(ctx, "rpc-call", map[string]interface{}{
		"method": "counter.init",
	})
	if err != nil {
		return 0, err
	}
	return initFromAck(resp)
}

// emitWithAck sends an event and waits for its ack payload.
func (c *Client) emitWithAck(ctx context.Context, event string, data map[string]interface{}) (map[string]interface{}, error) {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return nil, ErrNotConnected
	}

	resultCh := make(chan map[string]interface{}, 1)
	errCh := make(chan error, 1)

	sock.Emit(event, data, func(args []any, err error) {
		if err != nil {
			errCh <- err
			return
		}
		if len(args) == 0 {
			resultCh <- nil
			return
		}
		if payload, ok := args[0].(map[string]interface{}); ok {
			resultCh <- payload
			return
		}
		resultCh <- nil
	})

	select {
	case res := <-resultCh:
		return res, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(rpcTimeout):
		return nil, fmt.Errorf("ack timeout")
	}
}

// Close tears the connection down. Safe to call multiple times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.socket != nil {
		c.socket.Disconnect()
		c.socket = nil
	}
	c.connected = false
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	sock := c.socket
	connected := c.connected
	c.mu.RUnlock()

	if connected {
		return true
	}

	if sock != nil && sock.Connected() {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		return true
	}

	return false
}

// tickFromArgs extracts the timestamp from a clock-tick payload.
func tickFromArgs(args []any) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	payload, ok := args[0].(map[string]interface{})
	if !ok {
		return 0, false
	}
	raw, ok := payload["t"]
	if !ok {
		return 0, false
	}
	return getInt64(raw), true
}

// initFromAck parses the counter.init ack into the counter value.
func initFromAck(resp map[string]interface{}) (int64, error) {
	if resp == nil {
		return 0, fmt.Errorf("missing ack")
	}
	if ok, _ := resp["ok"].(bool); !ok {
		msg, _ := resp["error"].(string)
		if msg == "" {
			msg = "unknown error"
		}
		return 0, fmt.Errorf("counter.init failed: %s", msg)
	}

	raw, _ := resp["result"].(string)
	if raw == "" {
		return 0, fmt.Errorf("counter.init returned no result")
	}
	var result wire.InitResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return 0, fmt.Errorf("failed to parse counter.init result: %w", err)
	}
	return result.Value, nil
}

func getInt64(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}
