package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jan-server/services/conversation-api/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long:  `Apply the SQL migrations bundled with conversation-api inside the schema named by --table-prefix.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, opts, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := database.AutoMigrate(db, opts.schemaName()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to schema %s\n", opts.schemaName())
	return nil
}
