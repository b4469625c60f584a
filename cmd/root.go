package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"toolseed/internal/config"
	"toolseed/internal/logger"
)

// debug enables debug logging via the `--debug` flag.
var debug bool

// configPath is the config file read by every subcommand.
var configPath string

// rootCmd is the base command for the `toolseed` CLI.
var rootCmd = &cobra.Command{
	Use:           "toolseed",
	Short:         "Install and switch developer toolchains from their official releases",
	SilenceUsage:  true,
	SilenceErrors: true,

	// Logging is configured before any subcommand runs.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
}

// Execute registers global flags and subcommands, then runs the CLI.
// Interrupts cancel the context handed to subcommands.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")

	rootCmd.AddCommand(installCmd, useCmd, listCmd, statusCmd, envCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("[ERROR] %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig is shared by the subcommands that need the config.
func loadConfig() (config.Config, error) {
	logger.Debug("[DEBUG] Loading config from %s\n", configPath)
	return config.LoadConfig(configPath)
}
