package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/oauth"
	"github.com/synvya/merchant-connect/internal/probe"
)

var connectCallbackURL string

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect your Square merchant account",
	Long: "Opens the Square authorization page and waits for the redirect on a local callback server. " +
		"Use --callback-url to finish with a callback URL copied from the browser instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if connectCallbackURL != "" {
			res, err := app.CompleteFromURL(ctx, connectCallbackURL)
			return reportConnect(res, err)
		}

		if app.Prober.Initial(ctx) == probe.Offline && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Println(offlineBanner(app.BackendURL))
			next, nextCleanup, err := promptBackendSwitch(ctx, app)
			if err != nil {
				return err
			}
			if next != nil {
				defer nextCleanup()
				app = next
			}
		}

		res, err := app.Connect(ctx)
		return reportConnect(res, err)
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectCallbackURL, "callback-url", "", "Finish authorization with a callback URL copied from the browser")
}

// promptBackendSwitch offers to retry against another backend URL and
// returns an app rebuilt against it, or nil when the user keeps the
// current one.
func promptBackendSwitch(ctx context.Context, app *commands.App) (*commands.App, func(), error) {
	var raw string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Try a different backend URL?").
				Description("Leave empty to keep " + app.BackendURL).
				Placeholder("https://").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := commands.NormalizeBackendURL(s)
					return err
				}).
				Value(&raw),
		),
	).Run()
	if err != nil {
		return nil, nil, fmt.Errorf("prompt cancelled: %w", err)
	}
	if raw == "" {
		return nil, nil, nil
	}

	u, err := app.SetBackend(raw)
	if err != nil {
		return nil, nil, err
	}
	// An explicit --backend would shadow the saved override.
	flagBackend = u
	next, cleanup, err := newApp()
	if err != nil {
		return nil, nil, err
	}
	next.Prober.Initial(ctx)
	fmt.Printf("Backend set to %s (%s)\n", next.BackendURL, next.Prober.Status())
	return next, cleanup, nil
}

func reportConnect(res *commands.ConnectResult, err error) error {
	if res != nil {
		printAlert(os.Stderr, res.Alert)
	}
	switch {
	case err == nil:
		if res.Outcome == oauth.OutcomeNone {
			return errors.New("no authorization parameters found in the callback URL")
		}
		fmt.Printf("✓ Connected as merchant %s\n", res.Session.MerchantID)
		return nil
	case errors.Is(err, oauth.ErrRefreshFailed):
		// The session was saved; only the first profile load failed.
		fmt.Println("⚠️  Connected, but the profile could not be loaded. Run 'merchant-connect status' to retry.")
		return nil
	case errors.Is(err, context.Canceled):
		fmt.Println("Cancelled.")
		return nil
	default:
		return err
	}
}
