// Package transport provides the interchangeable initial-value bindings:
// a plain HTTP fetch against the server and a typed RPC call over the
// bridge. Both satisfy counter.InitialSource, so the engine never knows
// which one is wired in.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/counter"
)

// HTTPSource fetches the initial counter value with GET {server}/api/init.
// The response body is a bare JSON number.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

var _ counter.InitialSource = (*HTTPSource)(nil)

// NewHTTPSource returns a source for the given server base URL.
func NewHTTPSource(serverURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(serverURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchInitial implements counter.InitialSource.
func (s *HTTPSource) FetchInitial(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/init", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch initial value: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("initial value request failed: %s - %s", resp.Status, string(body))
	}

	var value int64
	if err := json.Unmarshal(bytes.TrimSpace(body), &value); err != nil {
		return 0, fmt.Errorf("failed to parse initial value: %w", err)
	}
	return value, nil
}
