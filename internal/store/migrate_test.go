// ABOUTME: Tests for schema versioning and the v1 to v2 upgrade path
// ABOUTME: Exercises the pure record-upgrade function and a real old database file

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeReceipt(t *testing.T) {
	r := Receipt{
		ID:              "rcpt-1",
		Number:          "RCT-0001",
		CustomerName:    "Juan",
		CustomerAddress: "should be cleared",
		UnitPrice:       8.5,
		GrossWeight:     100,
		DeductionWeight: 10,
		TransportFee:    99,
		Total:           765,
	}

	up := upgradeReceipt(r, 1)
	assert.Empty(t, up.CustomerAddress, "v1 records have no address; backfill with empty string")
	assert.Zero(t, up.TransportFee, "v1 records have no fee; backfill with zero")
	assert.Equal(t, 765.0, up.Total, "stored total is never recomputed")
	assert.Equal(t, "RCT-0001", up.Number)
	assert.Equal(t, "Juan", up.CustomerName)
	assert.Equal(t, 8.5, up.UnitPrice)
}

func TestUpgradeReceipt_CurrentVersionUnchanged(t *testing.T) {
	r := Receipt{
		Number:          "RCT-0002",
		CustomerAddress: "Sitio Looc",
		TransportFee:    100,
		Total:           8175,
	}

	up := upgradeReceipt(r, schemaVersion)
	assert.Equal(t, r, up)
}

// createV1Database builds a database file the way the schema looked at
// version 1: receipts without customer_address and transport_fee.
func createV1Database(t *testing.T, path string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE operators (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE receipts (
			id TEXT PRIMARY KEY,
			number TEXT UNIQUE NOT NULL,
			customer_name TEXT NOT NULL,
			unit_price REAL NOT NULL,
			gross_weight REAL NOT NULL,
			deduction_weight REAL NOT NULL,
			total REAL NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO receipts (id, number, customer_name, unit_price, gross_weight, deduction_weight, total, created_at)
		VALUES ('rcpt-old', 'RCT-0001', 'Juan Dela Cruz', 8.5, 100, 10, 765, ?)
	`, time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)

	_, err = db.Exec(`PRAGMA user_version = 1`)
	require.NoError(t, err)
}

func userVersion(t *testing.T, path string) int {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow(`PRAGMA user_version`).Scan(&version))
	return version
}

func TestMigrate_V1ToV2(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")
	createV1Database(t, dbPath)

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	ctx := context.Background()

	// The old record is readable with backfilled fields.
	got, err := store.GetReceipt(ctx, "RCT-0001")
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", got.CustomerName)
	assert.Empty(t, got.CustomerAddress)
	assert.Zero(t, got.TransportFee)
	assert.Equal(t, 765.0, got.Total)

	// New records use the full schema.
	r := &Receipt{
		Number:          "RCT-0002",
		CustomerName:    "Maria Santos",
		CustomerAddress: "Poblacion",
		UnitPrice:       8.5,
		GrossWeight:     1000,
		DeductionWeight: 50,
		TransportFee:    100,
		Total:           8175,
	}
	require.NoError(t, store.CreateReceipt(ctx, r))

	saved, err := store.GetReceipt(ctx, "RCT-0002")
	require.NoError(t, err)
	assert.Equal(t, "Poblacion", saved.CustomerAddress)
	assert.Equal(t, 100.0, saved.TransportFee)

	require.NoError(t, store.Close())
	assert.Equal(t, schemaVersion, userVersion(t, dbPath))
}

func TestMigrate_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")
	createV1Database(t, dbPath)

	for i := 0; i < 3; i++ {
		store, err := NewSQLiteStore(dbPath)
		require.NoError(t, err, "open %d", i)

		count, err := store.CountReceipts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count, "open %d", i)

		require.NoError(t, store.Close())
	}

	assert.Equal(t, schemaVersion, userVersion(t, dbPath))
}

func TestMigrate_FreshDatabaseAtCurrentVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Equal(t, schemaVersion, userVersion(t, dbPath))
}
