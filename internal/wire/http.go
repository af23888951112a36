package wire

// AuthRequest is the HTTP POST /v1/auth request body.
type AuthRequest struct {
	// Name is an optional human-readable label for the client.
	Name string `json:"name,omitempty"`
}

// AuthResponse is the HTTP POST /v1/auth response body.
type AuthResponse struct {
	// Success indicates whether the operation succeeded.
	Success bool `json:"success"`
	// AccountID is the server-assigned account id.
	AccountID string `json:"accountId"`
	// Token is the bearer token for subsequent requests and the bridge
	// handshake.
	Token string `json:"token"`
}

// CounterResponse is the HTTP GET /v1/counter response body.
type CounterResponse struct {
	// Value is the current counter value.
	Value int64 `json:"value"`
	// Version is the optimistic-concurrency version of the value.
	Version int64 `json:"version"`
}

// SetCounterRequest is the HTTP PUT /v1/counter request body.
type SetCounterRequest struct {
	// Value is the counter value to store.
	Value int64 `json:"value"`
	// ExpectedVersion is the version the caller last observed. The write is
	// rejected with a version-mismatch when it is stale.
	ExpectedVersion int64 `json:"expectedVersion"`
}

// ErrorResponse is the generic HTTP error body.
type ErrorResponse struct {
	// Success is always false.
	Success bool `json:"success"`
	// Error contains an error message.
	Error string `json:"error"`
}

// SocketAuthPayload is the handshake auth payload for the bridge socket.
type SocketAuthPayload struct {
	// Token is the bearer token issued by POST /v1/auth.
	Token string `json:"token"`
	// ClientType identifies the connecting client ("terminal", "web").
	ClientType string `json:"clientType,omitempty"`
}
