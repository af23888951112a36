package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrVersionMismatch is returned when a counter write carries a stale
// expected version.
var ErrVersionMismatch = errors.New("version mismatch")

// Counter is the shared counter row.
type Counter struct {
	Value   int64
	Version int64
}

// Account is a registered client identity.
type Account struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// GetCounter returns the current counter value and version.
func (db *DB) GetCounter(ctx context.Context) (Counter, error) {
	var c Counter
	err := db.QueryRowContext(ctx,
		"SELECT value, version FROM counter WHERE id = 1").Scan(&c.Value, &c.Version)
	if err != nil {
		return Counter{}, fmt.Errorf("failed to read counter: %w", err)
	}
	return c, nil
}

// SetCounter writes a new counter value guarded by the expected version.
// A stale expectedVersion returns ErrVersionMismatch and leaves the row
// untouched.
func (db *DB) SetCounter(ctx context.Context, value, expectedVersion int64) (Counter, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE counter
		SET value = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1 AND version = ?`,
		value, expectedVersion)
	if err != nil {
		return Counter{}, fmt.Errorf("failed to update counter: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Counter{}, fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return Counter{}, ErrVersionMismatch
	}

	return Counter{Value: value, Version: expectedVersion + 1}, nil
}

// CreateAccount inserts a new account.
func (db *DB) CreateAccount(ctx context.Context, id, name string) (Account, error) {
	_, err := db.ExecContext(ctx,
		"INSERT INTO accounts (id, name) VALUES (?, ?)", id, name)
	if err != nil {
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return db.GetAccount(ctx, id)
}

// GetAccount returns an account by id. sql.ErrNoRows passes through so
// callers can distinguish "unknown account" from real failures.
func (db *DB) GetAccount(ctx context.Context, id string) (Account, error) {
	var a Account
	err := db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM accounts WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return Account{}, err
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read account: %w", err)
	}
	return a, nil
}
