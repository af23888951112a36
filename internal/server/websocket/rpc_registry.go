package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// RPCHandler serves one bridge RPC method. params is the raw JSON-encoded
// parameter string from the request; the result is JSON-encoded into the ack.
type RPCHandler func(ctx context.Context, accountID string, params string) (any, error)

// RPCRegistry maps method names to server-side handlers in a
// concurrency-safe way.
type RPCRegistry struct {
	mu      sync.RWMutex
	methods map[string]RPCHandler
}

func NewRPCRegistry() *RPCRegistry {
	return &RPCRegistry{
		methods: make(map[string]RPCHandler),
	}
}

func (r *RPCRegistry) Register(method string, handler RPCHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[method] = handler
}

func (r *RPCRegistry) Lookup(method string) (RPCHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.methods[method]
	return handler, ok && handler != nil
}

// Dispatch runs the handler for a call and wraps the outcome in an ack.
// Every failure mode becomes an error ack; Dispatch never panics the socket
// loop.
func (r *RPCRegistry) Dispatch(ctx context.Context, accountID string, req wire.RPCCallPayload) wire.RPCAck {
	handler, ok := r.Lookup(req.Method)
	if !ok {
		return wire.RPCAck{OK: false, Error: "unknown method: " + req.Method}
	}

	result, err := handler(ctx, accountID, req.Params)
	if err != nil {
		logger.Warnf("RPC %s failed for %s: %v", req.Method, accountID, err)
		return wire.RPCAck{OK: false, Error: err.Error()}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		logger.Errorf("RPC %s result marshal failed: %v", req.Method, err)
		return wire.RPCAck{OK: false, Error: "internal error"}
	}
	return wire.RPCAck{OK: true, Result: string(raw)}
}
