package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetscribe/pkg/db"
)

// NewDBCommand creates the db command group.
func NewDBCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance commands",
	}
	cmd.AddCommand(newDBInitCommand(cfgFile))
	return cmd
}

// newDBInitCommand creates the "db init" command: ensure all collection
// indexes exist.
func newDBInitCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the MongoDB collection indexes",
		Long: `Create the MongoDB collection indexes.

Idempotent: existing indexes are left alone. Run once per database, or any
time after adding collections.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := db.Connect(ctx, cfg.Mongo)
			if err != nil {
				return err
			}
			defer db.Close(context.Background(), client)

			if err := db.EnsureIndexes(ctx, client.Database(cfg.Mongo.Database)); err != nil {
				return fmt.Errorf("failed to ensure indexes: %w", err)
			}

			fmt.Printf("Indexes ensured on database %q\n", cfg.Mongo.Database)
			return nil
		},
	}
}
