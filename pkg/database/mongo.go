// Package database manages the MongoDB connection lifecycle.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/logging"
	"github.com/campuskit/attendance-engine/pkg/retry"
)

// DB wraps a connected mongo database handle.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

// Config holds database connection configuration.
type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// NewConnection establishes a MongoDB connection and verifies it with a ping.
// The connect+ping step runs under bounded backoff so a briefly unavailable
// database doesn't kill the process during startup.
func NewConnection(ctx context.Context, cfg *Config, logger *zap.Logger) (*DB, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	maxPool := cfg.MaxPoolSize
	if maxPool == 0 {
		maxPool = 25
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(maxPool).
		SetConnectTimeout(connectTimeout)

	logger.Info("connecting to MongoDB",
		zap.String("uri", logging.SanitizeURI(cfg.URI)),
		zap.String("database", cfg.Database))

	client, err := retry.DoWithResult(ctx, retry.ConnectConfig(), func() (*mongo.Client, error) {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = c.Disconnect(ctx)
			return nil, fmt.Errorf("ping: %w", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %s", logging.SanitizeError(err))
	}

	return &DB{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// Database returns the underlying database handle.
func (db *DB) Database() *mongo.Database {
	return db.database
}

// Ping verifies the connection is still alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
