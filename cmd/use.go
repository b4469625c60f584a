package cmd

import (
	"github.com/spf13/cobra"

	"toolseed/internal/logger"
	"toolseed/internal/recipe"
	"toolseed/internal/version"
)

// useCmd switches the active version of a tool to one already installed.
var useCmd = &cobra.Command{
	Use:   "use <tool> <version>",
	Short: "Activate an installed version of a tool",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, ver := args[0], version.Clean(args[1])

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng := cfg.Engine()
		r, err := recipe.Catalog{Inline: cfg.InlineRecipes(), CacheDir: eng.CacheDir}.Lookup(tool)
		if err != nil {
			return err
		}

		rec, err := newActivator(eng).Use(tool, ver, r.Binaries)
		if err != nil {
			return err
		}
		logger.Info("[INFO] %s@%s is now active (%s)\n", tool, ver, rec.VersionDir)
		return nil
	},
}
