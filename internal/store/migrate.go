// ABOUTME: Schema versioning and forward migration for older databases
// ABOUTME: Pure record-upgrade function applied in an explicit upgrade pass

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/niyog/copra-station/internal/dbx"
)

// schemaVersion is the version written to PRAGMA user_version. Version 1
// predates the customer_address and transport_fee receipt fields.
const schemaVersion = 2

// upgradeReceipt returns the current-schema shape of a receipt stored at an
// earlier schema version. Fields the old schema lacked get safe defaults:
// empty string for text, zero for numbers. Stored totals predate the
// transport fee, so a zero fee keeps them consistent.
func upgradeReceipt(r Receipt, fromVersion int) Receipt {
	if fromVersion < 2 {
		r.CustomerAddress = ""
		r.TransportFee = 0
	}
	return r
}

// migrate brings an older database forward to the current schema version.
// Idempotent - a database already at the current version is left untouched.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if version < 2 {
			if err := s.addReceiptColumns(ctx, tx); err != nil {
				return err
			}
			if err := s.upgradeStoredReceipts(ctx, tx, version); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("migrated schema", "from", version, "to", schemaVersion)
	return nil
}

// addReceiptColumns adds the receipt columns introduced by schema version 2.
// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first.
func (s *SQLiteStore) addReceiptColumns(ctx context.Context, tx dbx.DBTX) error {
	columns := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('receipts') WHERE name = 'customer_address'`,
			apply:  `ALTER TABLE receipts ADD COLUMN customer_address TEXT NOT NULL DEFAULT ''`,
			column: "customer_address",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('receipts') WHERE name = 'transport_fee'`,
			apply:  `ALTER TABLE receipts ADD COLUMN transport_fee REAL NOT NULL DEFAULT 0`,
			column: "transport_fee",
		},
	}

	for _, c := range columns {
		var exists int
		err := tx.QueryRowContext(ctx, c.check).Scan(&exists)
		if err == nil {
			// Column already exists, skip
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking %s column: %w", c.column, err)
		}
		if _, err := tx.ExecContext(ctx, c.apply); err != nil {
			return fmt.Errorf("adding %s column to receipts: %w", c.column, err)
		}
		s.logger.Info("applied migration", "column", c.column, "table", "receipts")
	}
	return nil
}

// upgradeStoredReceipts rewrites every stored receipt through upgradeReceipt
// so records written by older code carry the backfilled fields explicitly.
func (s *SQLiteStore) upgradeStoredReceipts(ctx context.Context, tx dbx.DBTX, fromVersion int) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, number, customer_name, customer_address,
			unit_price, gross_weight, deduction_weight, transport_fee, total, created_at
		FROM receipts
	`)
	if err != nil {
		return fmt.Errorf("querying receipts for upgrade: %w", err)
	}

	var upgraded []*Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scanning receipt for upgrade: %w", err)
		}
		up := upgradeReceipt(*r, fromVersion)
		upgraded = append(upgraded, &up)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing receipt rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating receipts for upgrade: %w", err)
	}

	for _, r := range upgraded {
		_, err := tx.ExecContext(ctx,
			`UPDATE receipts SET customer_address = ?, transport_fee = ? WHERE id = ?`,
			r.CustomerAddress, r.TransportFee, r.ID,
		)
		if err != nil {
			return fmt.Errorf("upgrading receipt %s: %w", r.Number, err)
		}
	}

	if len(upgraded) > 0 {
		s.logger.Info("upgraded stored receipts", "count", len(upgraded), "from_version", fromVersion)
	}
	return nil
}
