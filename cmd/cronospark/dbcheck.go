package main

import (
	"context"
	"fmt"

	"github.com/Josue049/CronoSpark/internal/storagebuilder"
	"github.com/spf13/cobra"
)

type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Check that the configured database is reachable",
	Args:  cobra.NoArgs,
	RunE:  runDBCheck,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(dbcheckCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runDBCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	stor, target, err := storagebuilder.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage(stor)

	if err := stor.Ping(ctx); err != nil {
		return fmt.Errorf("database %s is not reachable: %w", target.Display, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "database ok: %s %s\n", target.Backend, target.Display)
	return nil
}

// runMigrate relies on storage opening, which applies pending migrations.
func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	stor, target, err := storagebuilder.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage(stor)

	versioner, ok := stor.(schemaVersioner)
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s storage has no schema\n", target.Backend)
		return nil
	}
	version, err := versioner.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema of %s %s is at version %d\n", target.Backend, target.Display, version)
	return nil
}
