package bundb

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-repository/pkg/database"
)

// TxOptions tunes WithTransaction. Isolation and ReadOnly are passed to the
// driver; Timeout is applied as a context deadline covering the whole
// callback including commit.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
	Timeout   time.Duration
}

// Tx is the transaction context: the native transaction (atomic handle) plus
// a bound repository factory. It is only valid inside the WithTransaction
// callback; repositories created from it must not be used after the callback
// returns.
type Tx struct {
	tx           bun.Tx
	log          *zap.Logger
	hasReturning bool
}

// Repository builds a repository whose every primitive operation runs inside
// this transaction.
func (tx *Tx) Repository(table string, opts *database.Options) (database.Repository, error) {
	return newRepository(tx.tx, tx.hasReturning, tx.log, table, opts)
}

// WithTransaction on a Tx flattens: the callback joins the outer transaction
// and commit/rollback stay with the outer WithTransaction call.
func (tx *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, _ *TxOptions) error {
	return fn(ctx, tx)
}

// WithTransaction begins a native transaction, invokes fn and commits when it
// returns nil. On error the transaction is rolled back and the original
// failure is returned unchanged.
//
// The handle must not be shared across concurrently-issued operations; the
// callback is expected to run its operations sequentially.
func (d *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *TxOptions) error {
	if d == nil || d.db == nil {
		return database.ErrNotConnected
	}

	var txOpts *sql.TxOptions
	if opts != nil {
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}
		if opts.Isolation != sql.LevelDefault || opts.ReadOnly {
			txOpts = &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly}
		}
	}

	tx, err := d.db.BeginTx(ctx, txOpts)
	if err != nil {
		return database.WrapBackend(backendName, "beginTx", err)
	}
	if err := fn(ctx, &Tx{tx: tx, log: d.log, hasReturning: d.hasReturning}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.Error("transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return database.WrapBackend(backendName, "commit", err)
	}
	return nil
}
