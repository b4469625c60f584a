package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"toolseed/internal/orchestrator"
	"toolseed/internal/state"
)

// statusCmd shows the report of the most recent install run.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the last install run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		run, ok := state.LoadState(cfg.Engine().StateFile).Last()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No install runs recorded yet.")
			return nil
		}
		orchestrator.Render(cmd.OutOrStdout(), run)
		return nil
	},
}
