package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/internal/transport"
)

func TestHTTPSourceFetchInitial(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/init", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("42\n"))
	}))
	defer srv.Close()

	// Trailing slash on the base URL must not produce a double slash.
	source := transport.NewHTTPSource(srv.URL + "/")

	value, err := source.FetchInitial(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), value)
}

func TestHTTPSourceNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	source := transport.NewHTTPSource(srv.URL)

	_, err := source.FetchInitial(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "database unavailable")
}

func TestHTTPSourceMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	source := transport.NewHTTPSource(srv.URL)

	_, err := source.FetchInitial(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse initial value")
}

func TestHTTPSourceConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	source := transport.NewHTTPSource(srv.URL)

	_, err := source.FetchInitial(context.Background())
	require.Error(t, err)
}
