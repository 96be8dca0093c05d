// Package cmd provides the meetscribe server commands.
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetscribe/config"
	"github.com/otherjamesbrown/meetscribe/pkg/db"
	"github.com/otherjamesbrown/meetscribe/pkg/events"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/storage"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
	"github.com/otherjamesbrown/meetscribe/server"
)

// loadConfig loads configuration from the optional --config file plus
// environment overrides.
func loadConfig(cfgFile *string) (*config.Config, error) {
	path := ""
	if cfgFile != nil {
		path = *cfgFile
	}
	return config.Load(path)
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:       logging.Level(cfg.Log.Level),
		ServiceName: "meetscribe",
		JSONFormat:  cfg.Log.JSON,
	})
}

// NewServeCommand creates the serve command: run the API server until
// interrupted.
func NewServeCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the meetscribe API server",
		Long: `Run the meetscribe API server.

Connects to MongoDB, ensures the collection indexes, optionally connects the
Redis event publisher, and serves the HTTP API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := db.Connect(ctx, cfg.Mongo)
			if err != nil {
				return err
			}
			defer db.Close(context.Background(), client)

			database := client.Database(cfg.Mongo.Database)
			if err := db.EnsureIndexes(ctx, database); err != nil {
				return fmt.Errorf("failed to ensure indexes: %w", err)
			}

			notifier := events.NewNopNotifier()
			if cfg.Redis.Enabled {
				publisher, err := events.NewPublisherFromConfig(cfg.Redis, logger)
				if err != nil {
					return err
				}
				defer publisher.Close()
				notifier = publisher
			} else {
				logger.Warn("Redis disabled, job events will not be published")
			}

			srv := server.New(cfg, server.Deps{
				Stores:   store.NewMongoStores(database),
				Files:    storage.NewFileStore(cfg.StoragePath),
				Notifier: notifier,
				Logger:   logger,
				Health: func(ctx context.Context) error {
					return db.Ping(ctx, client)
				},
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return srv.Shutdown(context.Background())
			}
		},
	}
}
