package cli

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJoinURL(t *testing.T) {
	t.Parallel()

	server := "http://tally.example:8080"
	joinURL := fmt.Sprintf("tally://join?s=%s",
		base64.RawURLEncoding.EncodeToString([]byte(server)))

	got, err := DecodeJoinURL(joinURL)
	require.NoError(t, err)
	require.Equal(t, server, got)

	_, err = DecodeJoinURL("https://example.com")
	require.ErrorContains(t, err, "not a tally join URL")

	_, err = DecodeJoinURL("tally://join?s=!!notbase64!!")
	require.ErrorContains(t, err, "malformed")
}
