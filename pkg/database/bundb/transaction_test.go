package bundb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/filter"
)

func TestWithTransaction_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(ctx context.Context, tx *Tx) error {
		repo, err := tx.Repository("users", nil)
		if err != nil {
			return err
		}
		if _, err := repo.Create(ctx, database.Entity{"name": "alice"}); err != nil {
			return err
		}
		_, err = repo.Create(ctx, database.Entity{"name": "bob"})
		return err
	}, nil)
	require.NoError(t, err)

	repo := usersRepo(t, db, nil)
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("business rule violated")
	err := db.WithTransaction(ctx, func(ctx context.Context, tx *Tx) error {
		repo, err := tx.Repository("users", nil)
		if err != nil {
			return err
		}
		if _, err := repo.Create(ctx, database.Entity{"name": "alice"}); err != nil {
			return err
		}
		return boom
	}, nil)

	// The callback's error comes back unchanged.
	assert.Same(t, boom, err)

	repo := usersRepo(t, db, nil)
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n, "rolled-back writes are invisible")
}

func TestWithTransaction_NestingFlattens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(ctx context.Context, outer *Tx) error {
		return outer.WithTransaction(ctx, func(ctx context.Context, inner *Tx) error {
			repo, err := inner.Repository("users", nil)
			if err != nil {
				return err
			}
			_, err = repo.Create(ctx, database.Entity{"name": "alice"})
			return err
		}, nil)
	}, nil)
	require.NoError(t, err)

	repo := usersRepo(t, db, nil)
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestWithTransaction_ReadsSeeUncommittedWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(ctx context.Context, tx *Tx) error {
		repo, err := tx.Repository("users", nil)
		if err != nil {
			return err
		}
		created, err := repo.Create(ctx, database.Entity{"name": "alice"})
		if err != nil {
			return err
		}
		fetched, err := repo.FindByID(ctx, created["id"])
		if err != nil {
			return err
		}
		if fetched == nil {
			return errors.New("own write invisible inside transaction")
		}
		return nil
	}, nil)
	require.NoError(t, err)
}

func TestWithTransaction_NotConnected(t *testing.T) {
	var db *DB
	err := db.WithTransaction(context.Background(), func(context.Context, *Tx) error {
		return nil
	}, nil)
	assert.ErrorIs(t, err, database.ErrNotConnected)
}

func TestRepository_ConcurrentReads(t *testing.T) {
	db := openTestDB(t)
	repo := usersRepo(t, db, nil)
	seedUsers(t, repo)
	ctx := context.Background()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			docs, err := repo.FindAll(ctx, filter.Expression{"age": filter.Clause{filter.OpGte: 25}}, nil)
			if err != nil {
				return err
			}
			if len(docs) != 4 {
				return fmt.Errorf("expected 4 users, got %d", len(docs))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
