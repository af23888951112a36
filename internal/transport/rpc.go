package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/counter"
)

// ErrBridgeDisabled is returned when the RPC binding is used without a
// bridge client behind it.
var ErrBridgeDisabled = errors.New("rpc transport requires a connected bridge")

// InitCaller is the subset of the bridge client the RPC binding needs.
type InitCaller interface {
	CallInit(ctx context.Context) (int64, error)
}

// RPCSource binds the initial counter value to the bridge's typed
// "counter.init" procedure.
type RPCSource struct {
	caller InitCaller
}

var _ counter.InitialSource = (*RPCSource)(nil)

// NewRPCSource returns a source that calls through the given bridge client.
func NewRPCSource(caller InitCaller) *RPCSource {
	return &RPCSource{caller: caller}
}

// FetchInitial implements counter.InitialSource.
func (s *RPCSource) FetchInitial(ctx context.Context) (int64, error) {
	if s.caller == nil {
		return 0, ErrBridgeDisabled
	}
	value, err := s.caller.CallInit(ctx)
	if err != nil {
		return 0, fmt.Errorf("counter.init call failed: %w", err)
	}
	return value, nil
}
