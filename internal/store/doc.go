// Package store provides persistent storage for the copra station using SQLite.
//
// # Data Models
//
//   - Operator: a shift worker or admin who can log in, with a bcrypt password hash
//   - Setting: a named default (unit price, transport fee) stored as a string
//   - Receipt: an immutable record of one completed copra purchase
//
// SQLiteStore implements the Store interface on a single database file.
// Use NewMockStore() for unit tests that should not touch SQLite.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode and a single pooled connection, so
// concurrent callers serialize on one storage handle:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested record does not exist
//   - ErrUsernameExists: operator username already taken
//   - ErrDuplicateReceipt: receipt number already taken
//
// All methods accept context.Context for cancellation support.
//
// # Migrations
//
// The schema carries a version in PRAGMA user_version. Opening an older
// database adds any missing receipt columns and rewrites stored receipts
// through a pure upgrade function, so records written by older code stay
// readable.
package store
