package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jan-server/services/conversation-api/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "conversation-cli",
	Short: "Operator tool for the conversation-api database",
	Long: `conversation-cli inspects and repairs conversation trees directly in
the conversation-api database.

Examples:
  conversation-cli migrate
  conversation-cli transcript conv_abc123 --format yaml
  conversation-cli tree conv_abc123
  conversation-cli rewind conv_abc123 msg_def456
  conversation-cli reconcile --batch 500`,
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(rewindCmd)
	rootCmd.AddCommand(reconcileCmd)

	rootCmd.PersistentFlags().String("database-url", os.Getenv("DATABASE_URL"), "Postgres DSN (default: $DATABASE_URL)")
	rootCmd.PersistentFlags().String("table-prefix", envOr("DB_TABLE_PREFIX", "conversation_api."), "Table prefix, including the schema")
	rootCmd.PersistentFlags().String("log-level", envOr("LOG_LEVEL", "warn"), "Log level")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
