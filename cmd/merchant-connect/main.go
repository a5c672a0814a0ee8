package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/internal/browser"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/config"
	"github.com/synvya/merchant-connect/internal/logging"
	"github.com/synvya/merchant-connect/internal/notify"
	"github.com/synvya/merchant-connect/internal/oauth"
	"github.com/synvya/merchant-connect/internal/paths"
	"go.uber.org/zap"
)

var version = "0.1.0"

var (
	flagVerbose   bool
	flagBackend   string
	flagNoBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "merchant-connect",
	Short: "Connect a Square merchant account to Synvya",
	Long: "merchant-connect links a Square merchant account to the Synvya backend, " +
		"edits the merchant profile and publishes it together with locations and products.",
	SilenceUsage: true,
	RunE:         runMainMenu,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("merchant-connect %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Backend URL for this invocation")
	rootCmd.PersistentFlags().BoolVar(&flagNoBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(sellerCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
}

// newApp loads configuration and builds the component graph for one
// command. The returned cleanup flushes the logger.
func newApp() (*commands.App, func(), error) {
	cfg, err := config.Load(paths.ConfigFile(), paths.EnvFile())
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, flagVerbose)
	if err != nil {
		return nil, nil, err
	}

	var opener oauth.Opener = browser.Fallback{
		Primary:   browser.System{},
		Secondary: browser.Printer{W: os.Stdout},
	}
	if flagNoBrowser {
		opener = browser.Printer{W: os.Stdout}
	}

	nav := &profileView{w: os.Stdout}
	app, err := commands.NewApp(commands.Options{
		Config:      cfg,
		StatePath:   paths.StateFile(),
		BackendFlag: flagBackend,
		Log:         log,
		Notifier:    notify.NewTerminal(os.Stderr),
		Opener:      announcingOpener{next: opener},
		Navigator:   nav,
	})
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	nav.profiles = app.Profiles

	cleanup := func() {
		// Syncing stderr fails on some terminals; nothing to report.
		_ = log.Sync()
	}
	log.Debug("starting", zap.String("version", version))
	return app, cleanup, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
