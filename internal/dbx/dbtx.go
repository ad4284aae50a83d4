// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sqlx.DB and *sqlx.Tx,
// and helpers to run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBTX is the subset of sqlx used by our repos.
// Both *sqlx.DB and *sqlx.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// TxFunc is the unit of work executed by WithTx and Database.RunInTx.
type TxFunc func(ctx context.Context, tx DBTX) error

// Database is a DBTX that can also run a unit of work atomically.
type Database interface {
	DBTX
	RunInTx(ctx context.Context, fn TxFunc) error
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// DB adapts *sqlx.DB to Database.
type DB struct {
	*sqlx.DB
	opts *sql.TxOptions
}

// New wraps db. opts is used for every transaction started by RunInTx and may
// be nil for driver defaults.
func New(db *sqlx.DB, opts *sql.TxOptions) *DB {
	return &DB{DB: db, opts: opts}
}

// RunInTx runs fn inside a transaction, see WithTx.
func (d *DB) RunInTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, d.DB, d.opts, fn)
}
