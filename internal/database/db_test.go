package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "market.db"),
		Name: "market",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func priceRowCount(t *testing.T, db *DB) int {
	t.Helper()
	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM prices").Scan(&count))
	return count
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Migrate())
}

func TestWithTransaction_Commit(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO prices (ticker, date, adj_close) VALUES (?, ?, ?)",
			"AAPL", "2024-01-02", 184.0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, priceRowCount(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO prices (ticker, date, adj_close) VALUES (?, ?, ?)",
			"AAPL", "2024-01-02", 184.0)
		require.NoError(t, err)
		return fmt.Errorf("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 0, priceRowCount(t, db), "failed transaction must not persist rows")
}

func TestWithTransaction_PanicRecovery(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec("INSERT INTO prices (ticker, date, adj_close) VALUES (?, ?, ?)",
			"AAPL", "2024-01-02", 184.0)
		require.NoError(t, execErr)
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
	assert.Equal(t, 0, priceRowCount(t, db), "panicked transaction must not persist rows")
}

func TestWithTransaction_NilDB(t *testing.T) {
	assert.Error(t, WithTransaction(nil, func(tx *sql.Tx) error { return nil }))
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestWALCheckpoint(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO prices (ticker, date, adj_close) VALUES (?, ?, ?)",
		"AAPL", "2024-01-02", 184.0)
	require.NoError(t, err)

	assert.NoError(t, db.WALCheckpoint(""))
	assert.NoError(t, db.WALCheckpoint("FULL"))
}
