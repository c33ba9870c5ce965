// nutriactl is the operator CLI for the Nutria API: schema migrations, user
// provisioning and session housekeeping.
// Usage: go run ./cmd/nutriactl <command> (from the repo root)
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var dbURL string

var rootCmd = &cobra.Command{
	Use:           "nutriactl",
	Short:         "Operator tasks for the Nutria API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		if dbURL == "" {
			dbURL = os.Getenv("DB_URL")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "PostgreSQL URL (default $DB_URL)")
	rootCmd.AddCommand(migrateCmd, createUserCmd, pruneSessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect opens a single connection; the CLI never needs a pool.
func connect(ctx context.Context) (*pgx.Conn, error) {
	if dbURL == "" {
		return nil, errors.New("DB_URL is not set (use --db-url or .env)")
	}
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return conn, nil
}
