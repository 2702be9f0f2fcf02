package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-repository/pkg/database"
)

// TxOptions tunes WithTransaction. Timeout is applied as a context deadline
// covering the whole callback including commit.
type TxOptions struct {
	Timeout time.Duration
}

// Tx is the transaction context: the session (atomic handle) plus a bound
// repository factory. It is only valid inside the WithTransaction callback;
// repositories created from it must not be used after the callback returns.
type Tx struct {
	sess mongo.Session
	db   *mongo.Database
	log  *zap.Logger
}

// Repository builds a repository whose every primitive operation runs inside
// the transaction's session.
func (tx *Tx) Repository(collection string, opts *database.Options) (database.Repository, error) {
	return newRepository(tx.db.Collection(collection), tx.sess, tx.log, opts)
}

// WithTransaction begins a session transaction, invokes fn and commits when
// it returns nil. On error the transaction is aborted and the original
// failure is returned unchanged. Requires a replica set or mongos.
//
// Nesting flattens: when ctx already carries a session, fn runs inside the
// outer transaction and commit/abort stay with the outer WithTransaction.
//
// The session handle must not be shared across concurrently-issued
// operations; the callback is expected to run its operations sequentially.
func (c *Client) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *TxOptions) error {
	if c == nil || c.client == nil {
		return database.ErrNotConnected
	}
	if opts != nil && opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if sess := mongo.SessionFromContext(ctx); sess != nil {
		return fn(ctx, &Tx{sess: sess, db: c.db, log: c.log})
	}

	sess, err := c.client.StartSession()
	if err != nil {
		return database.WrapBackend(backendName, "startSession", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return database.WrapBackend(backendName, "startTransaction", err)
		}
		if err := fn(sc, &Tx{sess: sess, db: c.db, log: c.log}); err != nil {
			if abortErr := sess.AbortTransaction(sc); abortErr != nil {
				c.log.Error("transaction abort failed", zap.Error(abortErr))
			}
			return err
		}
		if err := sess.CommitTransaction(sc); err != nil {
			return database.WrapBackend(backendName, "commit", err)
		}
		return nil
	})
}
