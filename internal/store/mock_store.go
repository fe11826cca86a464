// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// errStoreClosed is returned by every call made after Close, matching how a
// closed *sql.DB behaves.
var errStoreClosed = errors.New("store is closed")

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu        sync.RWMutex
	operators map[string]*Operator // keyed by username
	settings  map[string]*Setting  // keyed by key
	receipts  map[string]*Receipt  // keyed by receipt number
	closed    bool
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		operators: make(map[string]*Operator),
		settings:  make(map[string]*Setting),
		receipts:  make(map[string]*Receipt),
	}
}

// CreateOperator stores a new operator.
func (m *MockStore) CreateOperator(ctx context.Context, op *Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}
	if _, ok := m.operators[op.Username]; ok {
		return ErrUsernameExists
	}

	if op.ID == "" {
		op.ID = uuid.NewString()
	}

	// Make a copy to avoid external modification
	stored := *op
	m.operators[stored.Username] = &stored
	return nil
}

// GetOperatorByUsername retrieves an operator by username.
func (m *MockStore) GetOperatorByUsername(ctx context.Context, username string) (*Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errStoreClosed
	}
	op, ok := m.operators[username]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *op
	return &result, nil
}

// ListOperators returns all operators ordered by creation time.
func (m *MockStore) ListOperators(ctx context.Context) ([]*Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errStoreClosed
	}
	operators := make([]*Operator, 0, len(m.operators))
	for _, op := range m.operators {
		result := *op
		operators = append(operators, &result)
	}

	sort.Slice(operators, func(i, j int) bool {
		if !operators[i].CreatedAt.Equal(operators[j].CreatedAt) {
			return operators[i].CreatedAt.Before(operators[j].CreatedAt)
		}
		return operators[i].Username < operators[j].Username
	})

	return operators, nil
}

// CountOperators returns the number of stored operators.
func (m *MockStore) CountOperators(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, errStoreClosed
	}
	return len(m.operators), nil
}

// GetSetting retrieves a setting by key.
func (m *MockStore) GetSetting(ctx context.Context, key string) (*Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errStoreClosed
	}
	setting, ok := m.settings[key]
	if !ok {
		return nil, ErrNotFound
	}

	result := *setting
	return &result, nil
}

// PutSettings upserts the given settings.
func (m *MockStore) PutSettings(ctx context.Context, settings []Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}
	now := time.Now().UTC().Truncate(time.Second)
	for _, setting := range settings {
		stored := setting
		stored.UpdatedAt = now
		m.settings[stored.Key] = &stored
	}
	return nil
}

// CountSettings returns the number of stored settings.
func (m *MockStore) CountSettings(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, errStoreClosed
	}
	return len(m.settings), nil
}

// CreateReceipt stores a new receipt with a server-assigned timestamp.
func (m *MockStore) CreateReceipt(ctx context.Context, r *Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}
	if _, ok := m.receipts[r.Number]; ok {
		return ErrDuplicateReceipt
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)

	stored := *r
	m.receipts[stored.Number] = &stored
	return nil
}

// GetReceipt retrieves a receipt by its number.
func (m *MockStore) GetReceipt(ctx context.Context, number string) (*Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errStoreClosed
	}
	r, ok := m.receipts[number]
	if !ok {
		return nil, ErrNotFound
	}

	result := *r
	return &result, nil
}

// ListReceipts returns all receipts, most recent first.
func (m *MockStore) ListReceipts(ctx context.Context) ([]*Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errStoreClosed
	}
	receipts := make([]*Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		result := *r
		receipts = append(receipts, &result)
	}

	sort.Slice(receipts, func(i, j int) bool {
		if !receipts[i].CreatedAt.Equal(receipts[j].CreatedAt) {
			return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
		}
		return receipts[i].Number > receipts[j].Number
	})

	return receipts, nil
}

// CountReceipts returns the number of stored receipts.
func (m *MockStore) CountReceipts(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, errStoreClosed
	}
	return len(m.receipts), nil
}

// ReceiptNumberExists reports whether a receipt with the given number is stored.
func (m *MockStore) ReceiptNumberExists(ctx context.Context, number string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, errStoreClosed
	}
	_, ok := m.receipts[number]
	return ok, nil
}

// DeleteAll removes every stored record.
func (m *MockStore) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errStoreClosed
	}
	m.operators = make(map[string]*Operator)
	m.settings = make(map[string]*Setting)
	m.receipts = make(map[string]*Receipt)
	return nil
}

// Close marks the store closed. Operations after Close return an error;
// closing twice does not.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
