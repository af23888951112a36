package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	mgr, err := NewJWTManager("test-secret")
	require.NoError(t, err)

	token, err := mgr.CreateToken("acc-123")
	require.NoError(t, err)

	claims, err := mgr.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "acc-123", claims.Subject)
	require.Equal(t, "tallyd", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	require.True(t, claims.ExpiresAt.After(time.Now().Add(24*time.Hour)))
}

func TestJWTDeterministicKey(t *testing.T) {
	t.Parallel()

	// Same secret, fresh manager: tokens issued before a restart still verify.
	first, err := NewJWTManager("stable-secret")
	require.NoError(t, err)
	token, err := first.CreateToken("acc-1")
	require.NoError(t, err)

	second, err := NewJWTManager("stable-secret")
	require.NoError(t, err)
	claims, err := second.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.Subject)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewJWTManager("secret-a")
	require.NoError(t, err)
	verifier, err := NewJWTManager("secret-b")
	require.NoError(t, err)

	token, err := issuer.CreateToken("acc-1")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.Error(t, err)
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	mgr, err := NewJWTManager("test-secret")
	require.NoError(t, err)

	token, err := mgr.CreateToken("acc-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = mgr.VerifyToken(tampered)
	require.Error(t, err)
}

func TestJWTRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTManager("")
	require.Error(t, err)
}
