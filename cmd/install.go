package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolseed/internal/config"
	"toolseed/internal/installer"
	"toolseed/internal/logger"
	"toolseed/internal/orchestrator"
	"toolseed/internal/platform"
	"toolseed/internal/recipe"
	"toolseed/internal/release"
	"toolseed/internal/state"
)

var (
	assumeYes bool
	only      []string
)

// installCmd installs every enabled tool in the config, in order.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or update the configured tools",
	Long: `Resolve each configured tool to a concrete version, download and verify
its release artifact and activate it. Tools already at the resolved version
are left alone unless interaction is "auto", in which case they are
reinstalled. A failing tool does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reqs, err := cfg.Requests(only)
		if err != nil {
			return err
		}
		eng := cfg.Engine()
		if assumeYes {
			eng.Interaction = installer.ModeAuto
		}

		host, err := platform.Detect(ctx)
		if err != nil {
			return err
		}
		logger.Debug("[DEBUG] Host platform %s\n", host)

		client := release.NewClient()
		engine := &installer.Engine{
			Host:      host,
			Activator: newActivator(eng),
			Client:    client,
			CacheDir:  eng.CacheDir,
			Mode:      eng.Interaction,
			Prompter:  installer.HuhPrompter{},
		}
		orch := &orchestrator.Orchestrator{
			Engine:   engine,
			Platform: host,
			Recipes:  recipe.Catalog{Inline: cfg.InlineRecipes(), CacheDir: eng.CacheDir},
			Env: recipe.Env{
				Client:    client,
				GitHubAPI: eng.GitHubAPI,
				Token:     eng.AuthToken,
			},
		}
		if eng.RecipesURL != "" {
			orch.Refresher = &orchestrator.Refresher{Client: client, BaseURL: eng.RecipesURL, CacheDir: eng.CacheDir}
		}

		report := orch.Run(ctx, reqs)
		run := report.History()
		orchestrator.Render(os.Stdout, run)

		st := state.LoadState(eng.StateFile)
		st.Record(run)
		if err := state.SaveState(eng.StateFile, st); err != nil {
			logger.Warn("[WARN] Failed to save state: %v\n", err)
		}

		if report.Failed() {
			return errors.New("one or more tools failed to install")
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted: %w", err)
		}
		return nil
	},
}

func newActivator(eng config.Engine) *installer.Activator {
	return &installer.Activator{Layout: installer.Layout{Prefix: eng.InstallPrefix, BinDir: eng.BinDir}}
}

func init() {
	installCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Never prompt; reinstall tools that are already at the resolved version")
	installCmd.Flags().StringSliceVar(&only, "only", nil, "Install only the named tools (comma separated)")
}
