package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/cmd/merchant-connect/tui"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/probe"
)

var errBackendOffline = errors.New("backend is offline")

var pingWatch bool

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check whether the backend is reachable",
	Long: "Probes the backend once. With --watch, keeps re-probing an offline backend " +
		"until it comes online or you quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if !pingWatch {
			if app.Prober.Retry(ctx) != probe.Online {
				return fmt.Errorf("%s: %w", app.BackendURL, errBackendOffline)
			}
			return nil
		}
		return watchBackend(ctx, app)
	},
}

func init() {
	pingCmd.Flags().BoolVarP(&pingWatch, "watch", "w", false, "Keep retrying until the backend is online")
}

// watchBackend re-probes an offline backend until it answers. On a terminal
// it shows a spinner view; otherwise it prints one line per status change.
func watchBackend(ctx context.Context, app *commands.App) error {
	updates := app.Prober.Watch()
	if app.Prober.Initial(ctx) == probe.Online {
		fmt.Printf("✓ %s is online\n", app.BackendURL)
		return nil
	}

	poller := app.Poller()
	poller.Start(ctx)
	defer poller.Stop()

	if !term.IsTerminal(os.Stdin.Fd()) {
		fmt.Printf("Waiting for %s...\n", app.BackendURL)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case s := <-updates:
				if s == probe.Online {
					fmt.Printf("✓ %s is online\n", app.BackendURL)
					return nil
				}
			}
		}
	}

	retry := func() { app.Prober.Retry(ctx) }
	model := tui.NewWatchModel(app.BackendURL, app.Prober.Status(), updates, retry)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if final.(tui.WatchModel).Online() {
		fmt.Printf("✓ %s is online\n", app.BackendURL)
		return nil
	}
	return fmt.Errorf("%s: %w", app.BackendURL, errBackendOffline)
}
