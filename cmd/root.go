// Package cmd defines and implements the CLI commands for the
// agenda-sync executable.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda-sync",
		Short: "Keeps the CIRJE workshop agenda up to date.",
		Long: `agenda-sync scrapes the CIRJE workshop listings, renders the agenda
page and its JSON feed, and commits the result whenever it changed.
Run it once with "sync" or as a daemon with "serve".`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (environment variables with the AGENDA_ prefix also apply)")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger(false)

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("command execution failed", zap.Error(err))
	}
}
