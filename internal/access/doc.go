// Package access is the single entry point the user interfaces go through
// to reach storage.
//
// # Overview
//
// The Layer wraps a Store behind lazy initialization: nothing is opened until
// the first operation needs it, and every operation funnels through the same
// readiness check. UIs construct one Layer and call its operations; they
// never touch the store directly.
//
//	layer := access.New(func() (store.Store, error) {
//		return store.NewSQLiteStore(path)
//	})
//	defer layer.Close()
//
// # Initialization
//
// The first caller to need storage opens it, seeds the default operators and
// settings, and marks the layer ready. The layer moves through three states:
//
//  1. Uninitialized: no store open
//  2. Initializing: one caller is opening and seeding
//  3. Ready: operations run against the open store
//
// Concurrent callers wait, bounded, for the in-flight attempt instead of
// opening a second handle. A failed attempt rolls the layer back to
// Uninitialized so the next caller starts over; opening is retried with a
// short backoff before the layer gives up.
//
// # Operations
//
//   - Login / Register / Operators: operator accounts with bcrypt hashes
//   - Defaults / SaveDefaults: the stored unit price and transport fee
//   - NextReceiptNumber / SaveReceipt / Receipts / Receipt: the receipt ledger
//   - ResetAll: wipe everything and reseed the defaults
//
// Register on a taken username and SaveReceipt on a taken number are silent
// no-ops: the existing record wins and the call reports success.
//
// # Errors
//
//   - ErrStorageUnavailable: the store could not be opened after retries
//   - ErrInitTimeout: another caller's initialization outlasted the bounded wait
package access
