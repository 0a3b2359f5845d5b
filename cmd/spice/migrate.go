package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the ledger schema to the latest version.

Other commands migrate automatically; use --status to see where the
database stands without changing it.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.DatabasePath(viper.GetString("database.path"))

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		version, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Database: %s\n", dbPath)
		fmt.Fprintf(out, "Current version: %d\n", version)
		fmt.Fprintf(out, "Latest version: %d\n", storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Database migrations completed"))
	return nil
}
