// ABOUTME: Store interface and data types for copra-station persistence
// ABOUTME: Defines Operator, Setting, Receipt structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when trying to create an operator with an existing username
var ErrUsernameExists = errors.New("username already exists")

// ErrDuplicateReceipt is returned when trying to create a receipt whose number is already taken
var ErrDuplicateReceipt = errors.New("receipt number already exists")

// Setting keys recognized by the settings table
const (
	SettingUnitPrice    = "unit_price"
	SettingTransportFee = "transport_fee"
)

// DefaultSettingValue is the value every recognized key starts with
const DefaultSettingValue = "0"

// Operator represents a shift worker or admin who can log in at the station
type Operator struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Setting is one named default applied to new transactions, stored as a string
// exactly as the operator typed it
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Receipt is an immutable record of one completed copra purchase
type Receipt struct {
	ID              string
	Number          string // unique, e.g. "RCT-0001"
	CustomerName    string
	CustomerAddress string
	UnitPrice       float64
	GrossWeight     float64
	DeductionWeight float64
	TransportFee    float64
	Total           float64
	CreatedAt       time.Time
}

// Store defines the interface for operator, setting, and receipt persistence
type Store interface {
	// Operators
	CreateOperator(ctx context.Context, op *Operator) error
	GetOperatorByUsername(ctx context.Context, username string) (*Operator, error)
	ListOperators(ctx context.Context) ([]*Operator, error)
	CountOperators(ctx context.Context) (int, error)

	// Settings
	GetSetting(ctx context.Context, key string) (*Setting, error)
	PutSettings(ctx context.Context, settings []Setting) error
	CountSettings(ctx context.Context) (int, error)

	// Receipts
	CreateReceipt(ctx context.Context, r *Receipt) error
	GetReceipt(ctx context.Context, number string) (*Receipt, error)
	ListReceipts(ctx context.Context) ([]*Receipt, error)
	CountReceipts(ctx context.Context) (int, error)
	ReceiptNumberExists(ctx context.Context, number string) (bool, error)

	// DeleteAll removes every operator, setting, and receipt in one transaction
	DeleteAll(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
