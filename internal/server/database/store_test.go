package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "tally-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tally-test.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Second open must not re-run the initial migration.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	c, err := db.GetCounter(context.Background())
	require.NoError(t, err)
	require.Equal(t, Counter{Value: 0, Version: 0}, c)
}

func TestCounterStartsAtZero(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	c, err := db.GetCounter(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), c.Value)
	require.Equal(t, int64(0), c.Version)
}

func TestSetCounterBumpsVersion(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	c, err := db.SetCounter(ctx, 5, 0)
	require.NoError(t, err)
	require.Equal(t, Counter{Value: 5, Version: 1}, c)

	c, err = db.SetCounter(ctx, -2, 1)
	require.NoError(t, err)
	require.Equal(t, Counter{Value: -2, Version: 2}, c)

	c, err = db.GetCounter(ctx)
	require.NoError(t, err)
	require.Equal(t, Counter{Value: -2, Version: 2}, c)
}

func TestSetCounterStaleVersion(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.SetCounter(ctx, 5, 0)
	require.NoError(t, err)

	// A writer still holding version 0 loses.
	_, err = db.SetCounter(ctx, 9, 0)
	require.ErrorIs(t, err, ErrVersionMismatch)

	c, err := db.GetCounter(ctx)
	require.NoError(t, err)
	require.Equal(t, Counter{Value: 5, Version: 1}, c)
}

func TestAccountRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateAccount(ctx, "acc-1", "workstation")
	require.NoError(t, err)
	require.Equal(t, "acc-1", created.ID)
	require.Equal(t, "workstation", created.Name)
	require.False(t, created.CreatedAt.IsZero())

	got, err := db.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = db.GetAccount(ctx, "nope")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
