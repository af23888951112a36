package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "DATABASE_PATH", "TALLYD_MASTER_SECRET", "TALLYD_TICK_INTERVAL", "DEBUG",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadRequiresMasterSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load(Overrides{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "TALLYD_MASTER_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYD_MASTER_SECRET", "test-secret")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "./tally.db", cfg.DatabasePath)
	require.Equal(t, time.Second, cfg.TickInterval)
	require.False(t, cfg.Debug)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYD_MASTER_SECRET", "test-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("TALLYD_TICK_INTERVAL", "250ms")
	t.Setenv("DEBUG", "1")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	require.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	require.True(t, cfg.Debug)
}

func TestLoadRejectsBadTickInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYD_MASTER_SECRET", "test-secret")
	t.Setenv("TALLYD_TICK_INTERVAL", "soon")

	_, err := Load(Overrides{})
	require.Error(t, err)

	t.Setenv("TALLYD_TICK_INTERVAL", "-1s")
	_, err = Load(Overrides{})
	require.Error(t, err)
}

func TestLoadOverridesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYD_MASTER_SECRET", "env-secret")
	t.Setenv("PORT", "9000")

	addr := ":0"
	secret := "override-secret"
	interval := 50 * time.Millisecond
	debug := true

	cfg, err := Load(Overrides{
		Addr:         &addr,
		MasterSecret: &secret,
		TickInterval: &interval,
		Debug:        &debug,
	})
	require.NoError(t, err)
	require.Equal(t, ":0", cfg.Addr)
	require.Equal(t, "override-secret", cfg.MasterSecret)
	require.Equal(t, interval, cfg.TickInterval)
	require.True(t, cfg.Debug)
}
