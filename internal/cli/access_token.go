package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/pkg/logger"
)

// tokenRefreshWindow is how soon before expiry the token is replaced.
const tokenRefreshWindow = 10 * time.Minute

type jwtPayload struct {
	Exp float64 `json:"exp"`
}

// jwtExpiresAt extracts the expiry claim without verifying the signature.
// Verification happens on the server; the client only needs to know when to
// re-authenticate.
func jwtExpiresAt(token string) (time.Time, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return time.Time{}, false
		}
	}

	var payload jwtPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return time.Time{}, false
	}
	if payload.Exp == 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(payload.Exp), 0), true
}

func isTokenExpiringSoon(token string, window time.Duration) bool {
	exp, ok := jwtExpiresAt(token)
	if !ok {
		// No exp claim; nothing to refresh against.
		return false
	}
	return time.Until(exp) <= window
}

// EnsureAccessToken returns a usable access token, authenticating anonymously
// when none is cached or the cached one is expired or near expiry. The token
// is cached at cfg.AccessKey with owner-only permissions.
func EnsureAccessToken(cfg *config.Config) (string, error) {
	if data, err := os.ReadFile(cfg.AccessKey); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" && !isTokenExpiringSoon(token, tokenRefreshWindow) {
			return token, nil
		}
		logger.Debugf("Cached access token missing or near expiry; re-authenticating")
	}

	token, err := Authenticate(cfg)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("auth returned empty token")
	}

	if err := os.WriteFile(cfg.AccessKey, []byte(token), 0o600); err != nil {
		return "", fmt.Errorf("failed to write access token: %w", err)
	}
	return token, nil
}
