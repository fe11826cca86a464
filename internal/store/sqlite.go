// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides operator/setting/receipt persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/niyog/copra-station/internal/dbx"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist, and older
// databases are migrated forward. Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Single storage handle: concurrent callers serialize on one connection
	// instead of racing into SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS operators (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_operators_username ON operators(username);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS receipts (
			id TEXT PRIMARY KEY,
			number TEXT UNIQUE NOT NULL,
			customer_name TEXT NOT NULL,
			customer_address TEXT NOT NULL DEFAULT '',
			unit_price REAL NOT NULL,
			gross_weight REAL NOT NULL,
			deduction_weight REAL NOT NULL,
			transport_fee REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_receipts_number ON receipts(number);
		CREATE INDEX IF NOT EXISTS idx_receipts_created ON receipts(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateOperator inserts a new operator.
// Returns ErrUsernameExists if the username is already taken.
func (s *SQLiteStore) CreateOperator(ctx context.Context, op *Operator) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}

	query := `
		INSERT INTO operators (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		op.ID,
		op.Username,
		op.PasswordHash,
		op.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting operator: %w", err)
	}

	s.logger.Info("created operator", "id", op.ID, "username", op.Username)
	return nil
}

// GetOperatorByUsername retrieves an operator by username.
// Returns ErrNotFound if no such operator exists.
func (s *SQLiteStore) GetOperatorByUsername(ctx context.Context, username string) (*Operator, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM operators
		WHERE username = ?
	`

	var op Operator
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&op.ID,
		&op.Username,
		&op.PasswordHash,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying operator by username: %w", err)
	}

	op.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &op, nil
}

// ListOperators returns all operators ordered by creation time.
func (s *SQLiteStore) ListOperators(ctx context.Context) ([]*Operator, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM operators
		ORDER BY created_at ASC, username ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying operators: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var operators []*Operator
	for rows.Next() {
		var op Operator
		var createdAtStr string

		if err := rows.Scan(&op.ID, &op.Username, &op.PasswordHash, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning operator: %w", err)
		}

		op.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		operators = append(operators, &op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operators: %w", err)
	}

	return operators, nil
}

// CountOperators returns the number of operator records.
func (s *SQLiteStore) CountOperators(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting operators: %w", err)
	}
	return count, nil
}

// GetSetting retrieves a setting by key.
// Returns ErrNotFound if the key has no stored value.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (*Setting, error) {
	query := `
		SELECT key, value, updated_at
		FROM settings
		WHERE key = ?
	`

	var setting Setting
	var updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&setting.Key,
		&setting.Value,
		&updatedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying setting: %w", err)
	}

	setting.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &setting, nil
}

// PutSettings upserts the given settings in a single transaction, so a reader
// never observes one key updated and another stale.
func (s *SQLiteStore) PutSettings(ctx context.Context, settings []Setting) error {
	if len(settings) == 0 {
		return nil
	}

	now := time.Now().UTC().Truncate(time.Second)

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`

		for _, setting := range settings {
			if _, err := tx.ExecContext(ctx, query, setting.Key, setting.Value, now.Format(time.RFC3339)); err != nil {
				return fmt.Errorf("upserting setting %s: %w", setting.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(settings))
	for _, setting := range settings {
		keys = append(keys, setting.Key)
	}
	s.logger.Debug("saved settings", "keys", strings.Join(keys, ","))
	return nil
}

// CountSettings returns the number of setting records.
func (s *SQLiteStore) CountSettings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting settings: %w", err)
	}
	return count, nil
}

// CreateReceipt inserts a new receipt. The creation timestamp is assigned
// here, not by the caller. Returns ErrDuplicateReceipt if the receipt number
// is already taken.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, r *Receipt) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		INSERT INTO receipts (id, number, customer_name, customer_address,
			unit_price, gross_weight, deduction_weight, transport_fee, total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Number,
		r.CustomerName,
		r.CustomerAddress,
		r.UnitPrice,
		r.GrossWeight,
		r.DeductionWeight,
		r.TransportFee,
		r.Total,
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateReceipt
		}
		return fmt.Errorf("inserting receipt: %w", err)
	}

	s.logger.Info("created receipt", "number", r.Number, "total", r.Total)
	return nil
}

// GetReceipt retrieves a receipt by its number.
// Returns ErrNotFound if no such receipt exists.
func (s *SQLiteStore) GetReceipt(ctx context.Context, number string) (*Receipt, error) {
	query := `
		SELECT id, number, customer_name, customer_address,
			unit_price, gross_weight, deduction_weight, transport_fee, total, created_at
		FROM receipts
		WHERE number = ?
	`

	r, err := scanReceipt(s.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying receipt: %w", err)
	}
	return r, nil
}

// ListReceipts returns all receipts, most recent first.
func (s *SQLiteStore) ListReceipts(ctx context.Context) ([]*Receipt, error) {
	query := `
		SELECT id, number, customer_name, customer_address,
			unit_price, gross_weight, deduction_weight, transport_fee, total, created_at
		FROM receipts
		ORDER BY created_at DESC, number DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []*Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}
		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receipts: %w", err)
	}

	return receipts, nil
}

// CountReceipts returns the number of receipt records.
func (s *SQLiteStore) CountReceipts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting receipts: %w", err)
	}
	return count, nil
}

// ReceiptNumberExists reports whether a receipt with the given number is stored.
func (s *SQLiteStore) ReceiptNumberExists(ctx context.Context, number string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM receipts WHERE number = ?`, number).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking receipt number: %w", err)
	}
	return true, nil
}

// DeleteAll removes every operator, setting, and receipt in one transaction.
// Schema and version are left intact.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, table := range []string{"receipts", "settings", "operators"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("deleted all records")
	return nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (*Receipt, error) {
	var r Receipt
	var createdAtStr string

	err := row.Scan(
		&r.ID,
		&r.Number,
		&r.CustomerName,
		&r.CustomerAddress,
		&r.UnitPrice,
		&r.GrossWeight,
		&r.DeductionWeight,
		&r.TransportFee,
		&r.Total,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &r, nil
}
