package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/settings"
)

const defaultConnectTimeout = 10

// Client wraps one MongoDB connection and hands out repositories bound to
// its collections. The connection is owned explicitly, never looked up from
// globals, so the layer stays testable without a live backend.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Connect opens a new connection from settings and pings it.
func Connect(ctx context.Context, cfg *settings.MongoDB, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI()).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPingFailed, err)
	}

	log.Info("connected to mongodb", zap.String("database", cfg.Database))
	return &Client{client: client, db: client.Database(cfg.Database), log: log}, nil
}

// NewClient wraps an already-established driver handle.
func NewClient(client *mongo.Client, db string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{client: client, db: client.Database(db), log: log}
}

// Repository builds a repository over the named collection. The primary key
// defaults to "_id".
func (c *Client) Repository(collection string, opts *database.Options) (database.Repository, error) {
	if c == nil || c.client == nil {
		return nil, database.ErrNotConnected
	}
	return newRepository(c.db.Collection(collection), nil, c.log, opts)
}

// Database exposes the underlying handle for operations this layer does not
// cover.
func (c *Client) Database() *mongo.Database { return c.db }

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

func newRepository(coll *mongo.Collection, sess mongo.Session, log *zap.Logger, opts *database.Options) (database.Repository, error) {
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
	store := &mongoStore{coll: coll, sess: sess, idField: o.PrimaryKey}
	return database.NewRepository(store, &o)
}
