package cli

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/wire"
)

// makeToken builds an unsigned JWT carrying only an exp claim. The client
// never verifies signatures, so "sig" is enough.
func makeToken(exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"EdDSA","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]any{"exp": exp.Unix()})
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	home := t.TempDir()
	return &config.Config{
		ServerURL: serverURL,
		TallyHome: home,
		AccessKey: filepath.Join(home, "access.key"),
	}
}

func authServer(t *testing.T, hits *atomic.Int64, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/v1/auth", r.URL.Path)

		var req wire.AuthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Name)

		json.NewEncoder(w).Encode(wire.AuthResponse{
			Success:   true,
			AccountID: "acc-1",
			Token:     token,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJWTExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := jwtExpiresAt(makeToken(exp))
	if !ok {
		t.Fatal("expected exp claim to parse")
	}
	if !got.Equal(exp) {
		t.Fatalf("exp = %v, want %v", got, exp)
	}

	if _, ok := jwtExpiresAt("not-a-jwt"); ok {
		t.Fatal("malformed token should not parse")
	}
	if _, ok := jwtExpiresAt("a.b.c"); ok {
		t.Fatal("undecodable payload should not parse")
	}
}

func TestIsTokenExpiringSoon(t *testing.T) {
	t.Parallel()

	soon := makeToken(time.Now().Add(5 * time.Minute))
	later := makeToken(time.Now().Add(time.Hour))

	if !isTokenExpiringSoon(soon, tokenRefreshWindow) {
		t.Fatal("token expiring in 5m should be inside the 10m window")
	}
	if isTokenExpiringSoon(later, tokenRefreshWindow) {
		t.Fatal("token expiring in 1h should be outside the 10m window")
	}
	if isTokenExpiringSoon("garbage", tokenRefreshWindow) {
		t.Fatal("unparseable token should not trigger refresh")
	}
}

func TestEnsureAccessTokenCachesToken(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	fresh := makeToken(time.Now().Add(time.Hour))
	srv := authServer(t, &hits, fresh)
	cfg := testConfig(t, srv.URL)

	token, err := EnsureAccessToken(cfg)
	require.NoError(t, err)
	require.Equal(t, fresh, token)
	require.Equal(t, int64(1), hits.Load())

	info, err := os.Stat(cfg.AccessKey)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Second call is served from the cache.
	token, err = EnsureAccessToken(cfg)
	require.NoError(t, err)
	require.Equal(t, fresh, token)
	require.Equal(t, int64(1), hits.Load())
}

func TestEnsureAccessTokenRefreshesNearExpiry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	fresh := makeToken(time.Now().Add(time.Hour))
	srv := authServer(t, &hits, fresh)
	cfg := testConfig(t, srv.URL)

	stale := makeToken(time.Now().Add(time.Minute))
	require.NoError(t, os.WriteFile(cfg.AccessKey, []byte(stale), 0o600))

	token, err := EnsureAccessToken(cfg)
	require.NoError(t, err)
	require.Equal(t, fresh, token)
	require.Equal(t, int64(1), hits.Load())

	data, err := os.ReadFile(cfg.AccessKey)
	require.NoError(t, err)
	require.Equal(t, fresh, string(data))
}

func TestAuthenticateServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := Authenticate(testConfig(t, srv.URL))
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}
