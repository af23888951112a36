// Package cli implements the tally client commands and their supporting
// plumbing: anonymous authentication, the cached access token, and pairing.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// Authenticate creates an anonymous account on the server and returns its
// access token. The device hostname is sent as the account name so the
// server logs stay readable.
func Authenticate(cfg *config.Config) (string, error) {
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "tally-client"
	}

	body, err := json.Marshal(wire.AuthRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	authURL := fmt.Sprintf("%s/v1/auth", cfg.ServerURL)
	req, err := http.NewRequest("POST", authURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("auth failed: %s - %s", resp.Status, string(respBody))
	}

	var result wire.AuthResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if !result.Success || result.Token == "" {
		return "", fmt.Errorf("auth failed: server returned no token")
	}

	logger.Debugf("Authenticated as account %s", result.AccountID)
	return result.Token, nil
}
