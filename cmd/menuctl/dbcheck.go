package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/db"
)

// dbCheckTimeout bounds the whole check so it can gate a deploy step.
const dbCheckTimeout = 15 * time.Second

// countQueries are run in order; the labels are printed as-is.
var countQueries = []struct {
	label string
	query string
}{
	{"users", "SELECT COUNT(*) FROM users"},
	{"organizations", "SELECT COUNT(*) FROM organizations"},
	{"published organizations", "SELECT COUNT(*) FROM organizations WHERE published"},
	{"menus", "SELECT COUNT(*) FROM menus"},
	{"menu items", "SELECT COUNT(*) FROM menu_items"},
	{"feedback", "SELECT COUNT(*) FROM feedback"},
}

func dbCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db-check",
		Short: "Connects to the configured database and prints a summary",
		Long: "Connects with the server's configuration (config.yaml, MENUHUB_* variables), " +
			"prints the migration version and row counts, and exits non-zero on any failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			database, err := db.Connect(cfg.Database.GetDSN(), 1, 0)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), dbCheckTimeout)
			defer cancel()

			version, dirty, err := db.GetMigrationVersion(database)
			if err != nil {
				return fmt.Errorf("failed to get migration version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d (dirty: %v)\n", version, dirty)
			if dirty {
				return fmt.Errorf("schema version %d is dirty", version)
			}
			return printCounts(ctx, database, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("config", os.Getenv("CONFIG_PATH"), "config file path")
	return cmd
}

func printCounts(ctx context.Context, database *sql.DB, w io.Writer) error {
	for _, q := range countQueries {
		var n int64
		if err := database.QueryRowContext(ctx, q.query).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", q.label, err)
		}
		fmt.Fprintf(w, "%-24s %d\n", q.label+":", n)
	}
	return nil
}
