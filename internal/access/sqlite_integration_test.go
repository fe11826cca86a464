// ABOUTME: End-to-end test of the access layer over a real SQLite store
// ABOUTME: Exercises the production wiring: open, seed, transact, reset, reopen

package access

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyog/copra-station/internal/receipt"
	"github.com/niyog/copra-station/internal/store"
)

func TestFullFlowOverSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "station.db")
	a := New(func() (store.Store, error) { return store.NewSQLiteStore(dbPath) })
	shortenTimings(a)

	ctx := context.Background()

	ok, err := a.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.SaveDefaults(ctx, "8.50", "100"))

	number, err := a.NextReceiptNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCT-0001", number)

	total := receipt.Total(1000, 50, 8.5, 100)
	require.NoError(t, a.SaveReceipt(ctx, &store.Receipt{
		Number:          number,
		CustomerName:    "Juan Dela Cruz",
		CustomerAddress: "Sitio Looc",
		UnitPrice:       8.5,
		GrossWeight:     1000,
		DeductionWeight: 50,
		TransportFee:    100,
		Total:           total,
	}))

	require.NoError(t, a.Close())

	// Reopen the same file: the receipt and defaults survive, seeding does
	// not run again on a non-empty store.
	b := New(func() (store.Store, error) { return store.NewSQLiteStore(dbPath) })
	shortenTimings(b)
	defer b.Close()

	d, err := b.Defaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults{UnitPrice: "8.50", TransportFee: "100"}, d)

	receipts, err := b.Receipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "RCT-0001", receipts[0].Number)
	assert.Equal(t, "8175.00", receipt.FormatAmount(receipts[0].Total))

	next, err := b.NextReceiptNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCT-0002", next)

	require.NoError(t, b.ResetAll(ctx))

	receipts, err = b.Receipts(ctx)
	require.NoError(t, err)
	assert.Empty(t, receipts)

	ok, err = b.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, ok)
}
