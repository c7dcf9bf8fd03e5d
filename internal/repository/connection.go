package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoOptions configures the client behind the cart snapshot store.
// Zero values fall back to the driver defaults, except ConnectTimeout.
type MongoOptions struct {
	URI            string
	Database       string
	AppName        string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
	// SnapshotTTL expires carts untouched for that long. Zero keeps them.
	SnapshotTTL time.Duration
}

const defaultMongoConnectTimeout = 10 * time.Second

func (o MongoOptions) client() (*options.ClientOptions, error) {
	if o.URI == "" || o.Database == "" {
		return nil, errors.New("mongo uri and database are required")
	}
	if o.MaxPoolSize > 0 && o.MinPoolSize > o.MaxPoolSize {
		return nil, fmt.Errorf("mongo min pool %d exceeds max pool %d", o.MinPoolSize, o.MaxPoolSize)
	}

	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultMongoConnectTimeout
	}
	opts := options.Client().
		ApplyURI(o.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if o.AppName != "" {
		opts.SetAppName(o.AppName)
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	return opts, nil
}

// OpenMongoStore connects, checks the primary is reachable and prepares the
// carts collection. The client is disconnected again if any step fails.
func OpenMongoStore(ctx context.Context, o MongoOptions) (*MongoStore, error) {
	opts, err := o.client()
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	store := NewMongoStore(client.Database(o.Database))
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if err := store.CreateIndexes(ctx, o.SnapshotTTL); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return store, nil
}
