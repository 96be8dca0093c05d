// Package db provides shared MongoDB connection utilities for meetscribe.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/otherjamesbrown/meetscribe/config"
)

// Connect creates a new MongoDB client and verifies the connection with a
// ping. The caller is responsible for calling Close when done.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	// Verify the connection works
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// ConnectWithRetry creates a client with retry logic for slow-starting
// database containers.
func ConnectWithRetry(ctx context.Context, cfg config.MongoConfig, maxAttempts int, retryDelay time.Duration) (*mongo.Client, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := Connect(ctx, cfg)
		if err == nil {
			return client, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
				// Continue to next attempt
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, lastErr)
}

// Close gracefully disconnects a client if it is not nil.
func Close(ctx context.Context, client *mongo.Client) {
	if client != nil {
		_ = client.Disconnect(ctx)
	}
}
