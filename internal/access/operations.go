// ABOUTME: Public operations of the access layer: credentials, defaults, receipts
// ABOUTME: Every operation lazily initializes storage before touching it

package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/niyog/copra-station/internal/receipt"
	"github.com/niyog/copra-station/internal/store"
)

// Defaults holds the stored default parameters applied to new transactions,
// as strings exactly as the operator entered them.
type Defaults struct {
	UnitPrice    string
	TransportFee string
}

// readyStore initializes the layer if needed and returns the open store.
func (a *Layer) readyStore(ctx context.Context) (store.Store, error) {
	if err := a.ensureReady(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	st := a.store
	a.mu.Unlock()

	if st == nil {
		return nil, ErrStorageUnavailable
	}
	return st, nil
}

// Login checks the supplied credentials against the operator records.
// It reports only match/no-match; unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (a *Layer) Login(ctx context.Context, username, password string) (bool, error) {
	st, err := a.readyStore(ctx)
	if err != nil {
		return false, err
	}

	// Use a dummy hash for timing-safe comparison when the user doesn't
	// exist, so failed lookups cost the same as wrong passwords.
	dummyHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	op, err := st.GetOperatorByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return false, nil
		}
		return false, fmt.Errorf("looking up operator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}

	a.logger.Info("operator logged in", "username", username)
	return true, nil
}

// Register creates a new operator with the given credentials. If the
// username is already taken this is a silent no-op; callers cannot tell
// "created" from "already existed" without a separate lookup.
func (a *Layer) Register(ctx context.Context, username, password string) error {
	st, err := a.readyStore(ctx)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	op := &store.Operator{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	if err := st.CreateOperator(ctx, op); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			a.logger.Debug("username already registered", "username", username)
			return nil
		}
		return fmt.Errorf("registering operator: %w", err)
	}
	return nil
}

// Operators returns all operator records for administrative display.
func (a *Layer) Operators(ctx context.Context) ([]*store.Operator, error) {
	st, err := a.readyStore(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListOperators(ctx)
}

// Defaults returns the stored default parameters, falling back to the
// hardcoded default for any key that has no record.
func (a *Layer) Defaults(ctx context.Context) (Defaults, error) {
	st, err := a.readyStore(ctx)
	if err != nil {
		return Defaults{}, err
	}

	d := Defaults{
		UnitPrice:    store.DefaultSettingValue,
		TransportFee: store.DefaultSettingValue,
	}

	if s, err := st.GetSetting(ctx, store.SettingUnitPrice); err == nil {
		d.UnitPrice = s.Value
	} else if !errors.Is(err, store.ErrNotFound) {
		return Defaults{}, fmt.Errorf("reading unit price: %w", err)
	}

	if s, err := st.GetSetting(ctx, store.SettingTransportFee); err == nil {
		d.TransportFee = s.Value
	} else if !errors.Is(err, store.ErrNotFound) {
		return Defaults{}, fmt.Errorf("reading transport fee: %w", err)
	}

	return d, nil
}

// SaveDefaults upserts both default parameters in a single transaction, so a
// reader never observes one updated and one stale value.
func (a *Layer) SaveDefaults(ctx context.Context, unitPrice, transportFee string) error {
	st, err := a.readyStore(ctx)
	if err != nil {
		return err
	}

	settings := []store.Setting{
		{Key: store.SettingUnitPrice, Value: unitPrice},
		{Key: store.SettingTransportFee, Value: transportFee},
	}
	if err := st.PutSettings(ctx, settings); err != nil {
		return fmt.Errorf("saving defaults: %w", err)
	}

	a.logger.Info("saved defaults", "unit_price", unitPrice, "transport_fee", transportFee)
	return nil
}

// NextReceiptNumber derives the next free receipt number: candidate sequence
// from the current record count, then probe upward past any number already
// taken. Calling it repeatedly without intervening saves returns the same
// candidate. The check is not atomic with a later save; with a single
// operator per device that race cannot occur, and the unique constraint on
// the number column backstops it regardless.
func (a *Layer) NextReceiptNumber(ctx context.Context) (string, error) {
	st, err := a.readyStore(ctx)
	if err != nil {
		return "", err
	}

	count, err := st.CountReceipts(ctx)
	if err != nil {
		return "", fmt.Errorf("counting receipts: %w", err)
	}

	for seq := count + 1; ; seq++ {
		number := receipt.FormatNumber(seq)
		exists, err := st.ReceiptNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("checking receipt number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
}

// SaveReceipt appends a receipt to the ledger. Saving a number that already
// exists is a silent no-op, so an accidental re-save cannot duplicate or
// overwrite a record. The creation timestamp is assigned by the store.
func (a *Layer) SaveReceipt(ctx context.Context, r *store.Receipt) error {
	st, err := a.readyStore(ctx)
	if err != nil {
		return err
	}

	if err := st.CreateReceipt(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicateReceipt) {
			a.logger.Debug("receipt already saved", "number", r.Number)
			return nil
		}
		return fmt.Errorf("saving receipt: %w", err)
	}
	return nil
}

// Receipts returns all stored receipts, most recent first.
func (a *Layer) Receipts(ctx context.Context) ([]*store.Receipt, error) {
	st, err := a.readyStore(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListReceipts(ctx)
}

// Receipt returns a single receipt by its number, for display or reprinting.
// Returns store.ErrNotFound if no such receipt exists.
func (a *Layer) Receipt(ctx context.Context, number string) (*store.Receipt, error) {
	st, err := a.readyStore(ctx)
	if err != nil {
		return nil, err
	}
	return st.GetReceipt(ctx, number)
}

// ResetAll deletes every operator, setting, and receipt, then re-runs the
// seeding step. Administrative recovery action; not reversible.
func (a *Layer) ResetAll(ctx context.Context) error {
	st, err := a.readyStore(ctx)
	if err != nil {
		return err
	}

	if err := st.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	if err := a.seed(ctx, st); err != nil {
		return fmt.Errorf("reseeding store: %w", err)
	}

	a.logger.Info("store reset to defaults")
	return nil
}
