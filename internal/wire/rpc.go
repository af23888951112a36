package wire

// RPCCallPayload is the "rpc-call" event payload (client -> server).
//
// Params carries the method arguments as a JSON-encoded string so the
// payload shape stays stable across methods.
type RPCCallPayload struct {
	// Method is the remote procedure name (for example "counter.init").
	Method string `json:"method"`
	// Params is the JSON-encoded argument object, empty when the method
	// takes none.
	Params string `json:"params,omitempty"`
}

// RPCAck is the ACK response shape for "rpc-call".
type RPCAck struct {
	// OK indicates whether the call succeeded.
	OK bool `json:"ok"`
	// Error contains an error message when OK is false.
	Error string `json:"error,omitempty"`
	// Result is the JSON-encoded result value when OK is true.
	Result string `json:"result,omitempty"`
}

// InitResult is the result object of the "counter.init" procedure.
type InitResult struct {
	// Value is the current counter value.
	Value int64 `json:"value"`
}
