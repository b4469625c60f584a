package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"toolseed/internal/recipe"
)

// listCmd prints installed versions, marking the active one with "*".
var listCmd = &cobra.Command{
	Use:   "list [tool]",
	Short: "List installed versions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng := cfg.Engine()
		act := newActivator(eng)

		tools := args
		if len(tools) == 0 {
			tools = recipe.Catalog{Inline: cfg.InlineRecipes(), CacheDir: eng.CacheDir}.Names()
		}

		out := cmd.OutOrStdout()
		for _, tool := range tools {
			versions, err := act.Installed(tool)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				if len(args) > 0 {
					fmt.Fprintf(out, "%s: nothing installed\n", tool)
				}
				continue
			}
			current, err := act.State(tool)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n", tool)
			for _, v := range versions {
				mark := " "
				if current.Present && current.Version == v {
					mark = "*"
				}
				fmt.Fprintf(out, "  %s %s\n", mark, v)
			}
		}
		return nil
	},
}
