// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers operator, setting, and receipt persistence plus reset

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetOperator(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	op := &Operator{
		Username:     "admin",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	if err := store.CreateOperator(ctx, op); err != nil {
		t.Fatalf("CreateOperator failed: %v", err)
	}
	if op.ID == "" {
		t.Error("CreateOperator did not assign an ID")
	}

	got, err := store.GetOperatorByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetOperatorByUsername failed: %v", err)
	}
	if got.ID != op.ID {
		t.Errorf("ID = %q, want %q", got.ID, op.ID)
	}
	if got.Username != "admin" {
		t.Errorf("Username = %q, want %q", got.Username, "admin")
	}
	if got.PasswordHash != op.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, op.PasswordHash)
	}
	if !got.CreatedAt.Equal(op.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, op.CreatedAt)
	}
}

func TestGetOperatorByUsername_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetOperatorByUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOperator_DuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	op := &Operator{Username: "admin", PasswordHash: "hash1", CreatedAt: time.Now()}
	if err := store.CreateOperator(ctx, op); err != nil {
		t.Fatalf("first CreateOperator failed: %v", err)
	}

	dup := &Operator{Username: "admin", PasswordHash: "hash2", CreatedAt: time.Now()}
	err := store.CreateOperator(ctx, dup)
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}

	count, err := store.CountOperators(ctx)
	if err != nil {
		t.Fatalf("CountOperators failed: %v", err)
	}
	if count != 1 {
		t.Errorf("operator count = %d, want 1", count)
	}
}

func TestListOperators(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	for i, username := range []string{"admin", "cashier", "weigher"} {
		op := &Operator{
			Username:     username,
			PasswordHash: "hash",
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}
		if err := store.CreateOperator(ctx, op); err != nil {
			t.Fatalf("CreateOperator(%s) failed: %v", username, err)
		}
	}

	operators, err := store.ListOperators(ctx)
	if err != nil {
		t.Fatalf("ListOperators failed: %v", err)
	}
	if len(operators) != 3 {
		t.Fatalf("got %d operators, want 3", len(operators))
	}
	// Ordered by creation time ascending
	for i, want := range []string{"admin", "cashier", "weigher"} {
		if operators[i].Username != want {
			t.Errorf("operators[%d].Username = %q, want %q", i, operators[i].Username, want)
		}
	}
}

func TestGetSetting_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetSetting(context.Background(), SettingUnitPrice)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutSettings_UpsertAndLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	first := []Setting{
		{Key: SettingUnitPrice, Value: "8.50"},
		{Key: SettingTransportFee, Value: "50"},
	}
	if err := store.PutSettings(ctx, first); err != nil {
		t.Fatalf("PutSettings failed: %v", err)
	}

	second := []Setting{
		{Key: SettingUnitPrice, Value: "9.25"},
		{Key: SettingTransportFee, Value: "75"},
	}
	if err := store.PutSettings(ctx, second); err != nil {
		t.Fatalf("second PutSettings failed: %v", err)
	}

	price, err := store.GetSetting(ctx, SettingUnitPrice)
	if err != nil {
		t.Fatalf("GetSetting(unit_price) failed: %v", err)
	}
	if price.Value != "9.25" {
		t.Errorf("unit_price = %q, want %q", price.Value, "9.25")
	}

	fee, err := store.GetSetting(ctx, SettingTransportFee)
	if err != nil {
		t.Fatalf("GetSetting(transport_fee) failed: %v", err)
	}
	if fee.Value != "75" {
		t.Errorf("transport_fee = %q, want %q", fee.Value, "75")
	}

	count, err := store.CountSettings(ctx)
	if err != nil {
		t.Fatalf("CountSettings failed: %v", err)
	}
	if count != 2 {
		t.Errorf("settings count = %d, want 2 (one record per key)", count)
	}
}

func TestCreateReceipt_AssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	r := &Receipt{
		Number:          "RCT-0001",
		CustomerName:    "Juan Dela Cruz",
		CustomerAddress: "Sitio Looc",
		UnitPrice:       8.5,
		GrossWeight:     1000,
		DeductionWeight: 50,
		TransportFee:    100,
		Total:           8175,
	}

	before := time.Now().UTC().Add(-2 * time.Second)
	if err := store.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}
	after := time.Now().UTC().Add(2 * time.Second)

	if r.ID == "" {
		t.Error("CreateReceipt did not assign an ID")
	}
	if r.CreatedAt.Before(before) || r.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v, not close to now", r.CreatedAt)
	}

	got, err := store.GetReceipt(ctx, "RCT-0001")
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if got.Total != 8175 {
		t.Errorf("Total = %v, want 8175", got.Total)
	}
	if got.CustomerAddress != "Sitio Looc" {
		t.Errorf("CustomerAddress = %q, want %q", got.CustomerAddress, "Sitio Looc")
	}
	if !got.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("CreatedAt round-trip = %v, want %v", got.CreatedAt, r.CreatedAt)
	}
}

func TestCreateReceipt_DuplicateNumber(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	r := &Receipt{Number: "RCT-0001", CustomerName: "Juan", UnitPrice: 8.5, GrossWeight: 100, Total: 850}
	if err := store.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("first CreateReceipt failed: %v", err)
	}

	dup := &Receipt{Number: "RCT-0001", CustomerName: "Maria", UnitPrice: 9, GrossWeight: 200, Total: 1800}
	err := store.CreateReceipt(ctx, dup)
	if !errors.Is(err, ErrDuplicateReceipt) {
		t.Errorf("expected ErrDuplicateReceipt, got %v", err)
	}

	// Original record is untouched
	got, err := store.GetReceipt(ctx, "RCT-0001")
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if got.CustomerName != "Juan" {
		t.Errorf("CustomerName = %q, want %q", got.CustomerName, "Juan")
	}
}

func TestListReceipts_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	for _, number := range []string{"RCT-0001", "RCT-0002", "RCT-0003"} {
		r := &Receipt{Number: number, CustomerName: "Juan", UnitPrice: 8.5, GrossWeight: 100, Total: 850}
		if err := store.CreateReceipt(ctx, r); err != nil {
			t.Fatalf("CreateReceipt(%s) failed: %v", number, err)
		}
	}

	receipts, err := store.ListReceipts(ctx)
	if err != nil {
		t.Fatalf("ListReceipts failed: %v", err)
	}
	if len(receipts) != 3 {
		t.Fatalf("got %d receipts, want 3", len(receipts))
	}
	for i, want := range []string{"RCT-0003", "RCT-0002", "RCT-0001"} {
		if receipts[i].Number != want {
			t.Errorf("receipts[%d].Number = %q, want %q", i, receipts[i].Number, want)
		}
	}
}

func TestReceiptNumberExists(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	exists, err := store.ReceiptNumberExists(ctx, "RCT-0001")
	if err != nil {
		t.Fatalf("ReceiptNumberExists failed: %v", err)
	}
	if exists {
		t.Error("empty store reports RCT-0001 as existing")
	}

	r := &Receipt{Number: "RCT-0001", CustomerName: "Juan", UnitPrice: 8.5, GrossWeight: 100, Total: 850}
	if err := store.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	exists, err = store.ReceiptNumberExists(ctx, "RCT-0001")
	if err != nil {
		t.Fatalf("ReceiptNumberExists failed: %v", err)
	}
	if !exists {
		t.Error("stored receipt number reported as missing")
	}
}

func TestDeleteAll(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	op := &Operator{Username: "admin", PasswordHash: "hash", CreatedAt: time.Now()}
	if err := store.CreateOperator(ctx, op); err != nil {
		t.Fatalf("CreateOperator failed: %v", err)
	}
	if err := store.PutSettings(ctx, []Setting{{Key: SettingUnitPrice, Value: "8.50"}}); err != nil {
		t.Fatalf("PutSettings failed: %v", err)
	}
	r := &Receipt{Number: "RCT-0001", CustomerName: "Juan", UnitPrice: 8.5, GrossWeight: 100, Total: 850}
	if err := store.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	for name, count := range map[string]func(context.Context) (int, error){
		"operators": store.CountOperators,
		"settings":  store.CountSettings,
		"receipts":  store.CountReceipts,
	} {
		n, err := count(ctx)
		if err != nil {
			t.Fatalf("counting %s failed: %v", name, err)
		}
		if n != 0 {
			t.Errorf("%s count after DeleteAll = %d, want 0", name, n)
		}
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	ctx := context.Background()
	r := &Receipt{Number: "RCT-0001", CustomerName: "Juan", UnitPrice: 8.5, GrossWeight: 100, Total: 850}
	if err := store.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetReceipt(ctx, "RCT-0001")
	if err != nil {
		t.Fatalf("GetReceipt after reopen failed: %v", err)
	}
	if got.CustomerName != "Juan" {
		t.Errorf("CustomerName = %q, want %q", got.CustomerName, "Juan")
	}
}
