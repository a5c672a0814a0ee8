package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:     "reset",
	Aliases: []string{"disconnect"},
	Short:   "Forget the Square session and the local profile",
	Long:    "Clears the saved Square session and the cached profile. The backend URL override is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			if !term.IsTerminal(os.Stdin.Fd()) {
				return errors.New("refusing to reset without a terminal; pass --yes")
			}
			var confirmed bool
			err := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Disconnect from Square?").
						Description("You will need to run 'merchant-connect connect' again").
						Value(&confirmed),
				),
			).Run()
			if err != nil {
				return fmt.Errorf("prompt cancelled: %w", err)
			}
			if !confirmed {
				fmt.Println("Nothing changed.")
				return nil
			}
		}

		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		app.Reset()
		fmt.Println("✓ Disconnected. Local session and profile cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
}
