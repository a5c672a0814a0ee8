package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/internal/commands"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish Square locations and products",
}

var publishLocationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Publish your Square locations",
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
		ok, msg := app.Profiles.PublishLocations(ctx)
		printPublishOutcome(os.Stdout, commands.PublishOutcome{Resource: "locations", OK: ok, Message: msg})
		if !ok {
			return errors.New("locations were not published")
		}
		return nil
	},
}

var publishCatalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"products"},
	Short:   "Publish your Square product catalog",
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
		ok, msg := app.Profiles.PublishCatalog(ctx)
		printPublishOutcome(os.Stdout, commands.PublishOutcome{Resource: "catalog", OK: ok, Message: msg})
		if !ok {
			return errors.New("catalog was not published")
		}
		return nil
	},
}

var publishAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Publish locations and products together",
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
		res, err := app.PublishAll(ctx)
		fmt.Println("PUBLISH")
		printPublishOutcome(os.Stdout, res.Locations)
		printPublishOutcome(os.Stdout, res.Catalog)
		return err
	},
}

func init() {
	publishCmd.AddCommand(publishLocationsCmd)
	publishCmd.AddCommand(publishCatalogCmd)
	publishCmd.AddCommand(publishAllCmd)
}
