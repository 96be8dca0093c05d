package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthStatus represents the health state of the database connection.
type HealthStatus struct {
	Healthy bool
	Latency time.Duration
	Error   error
}

// Ping checks if the database is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return fmt.Errorf("client is nil")
	}
	return client.Ping(ctx, readpref.Primary())
}

// Check performs a health check and returns detailed status.
func Check(ctx context.Context, client *mongo.Client) *HealthStatus {
	status := &HealthStatus{}

	if client == nil {
		status.Error = fmt.Errorf("client is nil")
		return status
	}

	start := time.Now()
	err := client.Ping(ctx, readpref.Primary())
	status.Latency = time.Since(start)

	if err != nil {
		status.Error = fmt.Errorf("ping failed: %w", err)
		return status
	}

	status.Healthy = true
	return status
}

// WaitForReady polls the database until it becomes available or the context
// is cancelled.
func WaitForReady(ctx context.Context, client *mongo.Client, pollInterval time.Duration) error {
	if client == nil {
		return fmt.Errorf("client is nil")
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	for {
		if err := Ping(ctx, client); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
