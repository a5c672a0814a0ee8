package main

import (
	"bufio"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/cmd/merchant-connect/tui"
	"github.com/synvya/merchant-connect/internal/commands"
)

func runMainMenu(cmd *cobra.Command, args []string) error {
	// TTY guard: fall back to status when stdin is not a terminal
	// (piping, CI, scripts, etc.)
	if !term.IsTerminal(os.Stdin.Fd()) {
		return statusCmd.RunE(cmd, args)
	}

	for {
		state, err := detectMenuState(cmd)
		if err != nil {
			return err
		}

		model := tui.NewMenuModel(state)
		model.Version = version
		p := tea.NewProgram(model, tea.WithAltScreen())
		finalModel, err := p.Run()
		if err != nil {
			return err
		}

		menu := finalModel.(tui.MenuModel)
		if menu.Quitting {
			return nil
		}

		action := menu.Selected
		if action.ID == "" {
			return nil
		}

		err = dispatchAction(cmd, action)

		// For CLI actions, wait for user to press Enter before returning to menu
		if action.Type == tui.ActionCLI {
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			}
			fmt.Print("\nPress Enter to return to menu...")
			bufio.NewReader(os.Stdin).ReadBytes('\n')
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func detectMenuState(cmd *cobra.Command) (commands.MenuState, error) {
	app, cleanup, err := newApp()
	if err != nil {
		return commands.MenuState{}, err
	}
	defer cleanup()
	return app.Status(cmdContext(cmd)).MenuState(), nil
}

// actionCommand maps a menu action to the command that runs it.
func actionCommand(id string) (*cobra.Command, bool) {
	switch id {
	case tui.ActionStatus:
		return statusCmd, true
	case tui.ActionConnect:
		return connectCmd, true
	case tui.ActionPing:
		return pingCmd, true

	// Profile
	case tui.ActionProfileShow:
		return profileShowCmd, true
	case tui.ActionProfileEdit:
		return profileEditCmd, true
	case tui.ActionProfileRepublish:
		return profileRepublishCmd, true

	// Publish
	case tui.ActionPublishLocations:
		return publishLocationsCmd, true
	case tui.ActionPublishCatalog:
		return publishCatalogCmd, true
	case tui.ActionPublishAll:
		return publishAllCmd, true

	// Account
	case tui.ActionSeller:
		return sellerCmd, true
	case tui.ActionSetBackend:
		return configSetBackendCmd, true
	case tui.ActionReset:
		return resetCmd, true

	default:
		return nil, false
	}
}

func dispatchAction(cmd *cobra.Command, action tui.MenuAction) error {
	c, ok := actionCommand(action.ID)
	if !ok {
		return fmt.Errorf("unknown action: %s", action.ID)
	}
	c.SetContext(cmdContext(cmd))
	if action.ID == tui.ActionPing {
		// From the menu, ping waits for an offline backend.
		pingWatch = true
		defer func() { pingWatch = false }()
	}
	return c.RunE(c, nil)
}
