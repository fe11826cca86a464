// Package dbx provides small database/sql helpers: the DBTX interface
// satisfied by both *sql.DB and *sql.Tx, and a transaction wrapper that
// commits or rolls back around a callback.
package dbx
