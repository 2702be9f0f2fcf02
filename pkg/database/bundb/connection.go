package bundb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/settings"
)

// DB wraps one Bun handle and hands out repositories bound to its tables.
// The connection is owned explicitly and passed in, never global.
type DB struct {
	db           *bun.DB
	log          *zap.Logger
	hasReturning bool
}

func postgresDSN(cfg *settings.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// mysqlDSN sets clientFoundRows so RowsAffected reports matched rows, not
// changed rows. UpdateOne relies on 0 meaning "no match".
func mysqlDSN(cfg *settings.Database) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// Open connects per settings. Supported drivers: postgres, mysql, sqlite.
func Open(cfg *settings.Database, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		sqldb   *sql.DB
		dialect schema.Dialect
		err     error
	)
	switch cfg.Driver {
	case "postgres":
		sqldb, err = sql.Open("postgres", postgresDSN(cfg))
		dialect = pgdialect.New()
	case "mysql":
		sqldb, err = sql.Open("mysql", mysqlDSN(cfg))
		dialect = mysqldialect.New()
	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.Database)
		dialect = sqlitedialect.New()
	default:
		return nil, pkgerrors.Wrapf(ErrUnsupportedDriver, "%q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	if cfg.Driver == "sqlite" && strings.Contains(cfg.Database, ":memory:") {
		// A shared in-memory database disappears once its last connection
		// closes; pin the pool to one.
		sqldb.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqldb.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
		}
	}
	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPingFailed, err)
	}

	bdb := bun.NewDB(sqldb, dialect)
	if cfg.Debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	log.Info("connected to sql database",
		zap.String("driver", cfg.Driver), zap.String("database", cfg.Database))
	return NewDB(bdb, log), nil
}

// NewDB wraps an already-established Bun handle.
func NewDB(bdb *bun.DB, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{
		db:           bdb,
		log:          log,
		hasReturning: bdb.Dialect().Features().Has(feature.Returning),
	}
}

// Repository builds a repository over the named table. The primary key
// defaults to "id".
func (d *DB) Repository(table string, opts *database.Options) (database.Repository, error) {
	if d == nil || d.db == nil {
		return nil, database.ErrNotConnected
	}
	return newRepository(d.db, d.hasReturning, d.log, table, opts)
}

// DB exposes the underlying handle for operations this layer does not cover.
func (d *DB) DB() *bun.DB { return d.db }

// Close releases the underlying pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func newRepository(idb bun.IDB, hasReturning bool, log *zap.Logger, table string, opts *database.Options) (database.Repository, error) {
	var o database.Options
	if opts != nil {
		o = *opts
	}
	if o.PrimaryKey == "" {
		o.PrimaryKey = DefaultPrimaryKey
	}
	if o.Logger == nil {
		o.Logger = log
	}
	store := &sqlStore{db: idb, table: table, pk: o.PrimaryKey, hasReturning: hasReturning}
	return database.NewRepository(store, &o)
}
