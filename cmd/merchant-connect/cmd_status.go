package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend, Square connection and profile status",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		printStatus(os.Stdout, app.Status(cmdContext(cmd)))
		return nil
	},
}

// cmdContext returns the command's context, which is nil when a command is
// run from the menu rather than through Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if cmd != nil {
		if ctx := cmd.Context(); ctx != nil {
			return ctx
		}
	}
	return context.Background()
}
