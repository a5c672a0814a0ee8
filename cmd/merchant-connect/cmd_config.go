package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/config"
	"github.com/synvya/merchant-connect/internal/paths"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change merchant-connect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := app.Config
		cfg.BackendURL = app.BackendURL
		out, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("# config: %s\n# state:  %s\n", paths.ConfigFile(), app.State.Path())
		fmt.Print(string(out))
		return nil
	},
}

var configSetBackendGlobal bool

var configSetBackendCmd = &cobra.Command{
	Use:   "set-backend [url]",
	Short: "Point merchant-connect at a different backend",
	Long: "Saves a backend URL override in the state file. With --global the URL is written " +
		"to config.yaml instead. Prompts for the URL when none is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw string
		if len(args) == 1 {
			raw = args[0]
		} else {
			var err error
			if raw, err = promptBackendURL(); err != nil {
				return err
			}
		}

		if configSetBackendGlobal {
			u, err := commands.NormalizeBackendURL(raw)
			if err != nil {
				return err
			}
			cfg, err := readConfigFile()
			if err != nil {
				return err
			}
			cfg.BackendURL = u
			if err := config.Save(paths.ConfigFile(), cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Printf("✓ Backend set to %s in %s\n", u, paths.ConfigFile())
			return nil
		}

		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		u, err := app.SetBackend(raw)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Backend set to %s\n", u)
		return nil
	},
}

var configUnsetBackendCmd = &cobra.Command{
	Use:   "unset-backend",
	Short: "Remove the saved backend URL override",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := app.UnsetBackend(); err != nil {
			return err
		}
		fmt.Printf("✓ Backend override removed; using %s\n", app.Config.ResolveBackendURL("", ""))
		return nil
	},
}

func init() {
	configSetBackendCmd.Flags().BoolVar(&configSetBackendGlobal, "global", false, "Write the URL to config.yaml instead of the state file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetBackendCmd)
	configCmd.AddCommand(configUnsetBackendCmd)
}

// readConfigFile parses config.yaml without environment overrides, so
// saving it back does not persist them.
func readConfigFile() (config.Config, error) {
	data, err := os.ReadFile(paths.ConfigFile())
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("reading config: %w", err)
	}
	return config.Parse(data)
}

func promptBackendURL() (string, error) {
	if !term.IsTerminal(os.Stdin.Fd()) {
		return "", errors.New("backend URL required")
	}
	var raw string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Placeholder("https://").
				Validate(func(s string) error {
					_, err := commands.NormalizeBackendURL(s)
					return err
				}).
				Value(&raw),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return raw, nil
}
