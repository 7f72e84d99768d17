// Package cmd defines and implements the CLI commands for the aeroresearch
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/config"
	"github.com/r-baldridge/jules-aero-researcher/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the app in the context.
type appKeyType string

const appKey appKeyType = "app"

// app bundles the services every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aeroresearch",
		Short: "Monitors aerospace research and regulatory document feeds.",
		Long: `aeroresearch watches a small set of government document APIs (NASA NTRS
citation search, the Federal Register rule feed) plus optional web sources,
and appends newly discovered, relevant items to a durable research log,
never recording the same item twice.`,

		SilenceUsage: true,

		// Runs after flags are parsed but before the subcommand's RunE:
		// configuration is validated here, before any network call.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, &app{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app); ok && a != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newRecoverCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
