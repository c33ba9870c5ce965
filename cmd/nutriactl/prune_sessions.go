package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneSessionsCmd = &cobra.Command{
	Use:   "prune-sessions",
	Short: "Delete expired login sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Close(ctx)

		tag, err := conn.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= now()")
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d expired session(s) removed.\n", tag.RowsAffected())
		return nil
	},
}
