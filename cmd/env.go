package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolseed/internal/logger"
)

// envCmd prints a shell snippet that puts the bin directory on PATH:
//
//	eval "$(toolseed env)"
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print shell code that adds the bin directory to PATH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout is consumed by the shell.
		logger.SetOutput(os.Stderr)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export PATH=%q:\"$PATH\"\n", cfg.Engine().BinDir)
		return nil
	},
}
