package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var sellerCmd = &cobra.Command{
	Use:   "seller",
	Short: "Show the seller information Square reports for your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := requireSession(ctx, app); err != nil {
			return err
		}
		info, err := app.Profiles.SellerInfo(ctx)
		if err != nil {
			return fmt.Errorf("fetching seller info: %w", err)
		}
		out, err := yaml.Marshal(info)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
