package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetscribe/pkg/db"
	"github.com/otherjamesbrown/meetscribe/pkg/events"
)

// NewHealthCommand creates the health command: check the backing stores and
// report status.
func NewHealthCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the backing stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := db.Connect(ctx, cfg.Mongo)
			if err != nil {
				return fmt.Errorf("mongo: %w", err)
			}
			defer db.Close(context.Background(), client)

			status := db.Check(ctx, client)
			if !status.Healthy {
				return fmt.Errorf("mongo: %w", status.Error)
			}
			fmt.Printf("mongo: ok (%s)\n", status.Latency.Round(0))

			if cfg.Redis.Enabled {
				logger := newLogger(cfg)
				publisher, err := events.NewPublisherFromConfig(cfg.Redis, logger)
				if err != nil {
					return fmt.Errorf("redis: %w", err)
				}
				defer publisher.Close()
				fmt.Println("redis: ok")
			} else {
				fmt.Println("redis: disabled")
			}
			return nil
		},
	}
}
