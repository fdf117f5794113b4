package main

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/config"
	"github.com/Veraticus/charge-tax-intel/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Bring the database schema up to date. Other commands migrate automatically; use --status to inspect the schema without changing it.`,
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show the schema version without migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	dbPath := viper.GetString(config.KeyDatabasePath)
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStore(store)

	if !statusOnly {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	fmt.Fprintln(out, cli.KeyValue("Database", store.Path()))
	fmt.Fprintln(out, cli.KeyValue("Schema version", fmt.Sprintf("%d of %d", version, storage.ExpectedSchemaVersion)))
	switch {
	case version < storage.ExpectedSchemaVersion:
		fmt.Fprintln(out, cli.FormatWarning("Migrations pending. Run: taxintel migrate"))
	case !statusOnly:
		fmt.Fprintln(out, cli.FormatSuccess("Database is up to date"))
	}
	return nil
}
