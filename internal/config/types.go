package config

import (
	"toolseed/internal/installer"
	"toolseed/internal/recipe"
)

// Tool is one entry of the `tools` list in config.yaml.
// - Name: recipe name (go, zig, zls, or an inline recipe).
// - Version: "latest", a pinned version, or "auto" for companions.
// - Enabled: defaults to true; false keeps the entry without installing it.
// - Companion: a tool whose version follows this one (zls for zig).
// - Extra: values for {{extra.<key>}} placeholders in the recipe's asset
//   patterns, tag templates and URLs.
type Tool struct {
	Name      string            `yaml:"name"`
	Version   string            `yaml:"version"`
	Enabled   *bool             `yaml:"enabled,omitempty"`
	Companion *Companion        `yaml:"companion,omitempty"`
	Extra     map[string]string `yaml:"extra,omitempty"`
}

// Companion is a tool installed right after its primary, usually with
// version "auto" so it matches the primary's resolved version.
type Companion struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// Compatibility is passed to the compatibility endpoint
	// ("only-runtime" or "full").
	Compatibility string `yaml:"compatibility,omitempty"`
}

// Config is the parsed config.yaml.
type Config struct {
	InstallPrefix string          `yaml:"install_prefix"`
	BinDir        string          `yaml:"bin_dir"`
	CacheDir      string          `yaml:"cache_dir"`
	StateFile     string          `yaml:"state_file"`
	Interaction   string          `yaml:"interaction"`
	GitHubToken   string          `yaml:"github_token"`
	GitHubAPI     string          `yaml:"github_api"`
	RecipesURL    string          `yaml:"recipes_url"`
	Tools         []Tool          `yaml:"tools"`
	Recipes       []recipe.Recipe `yaml:"recipes"`
}

// ToolRequest is an immutable install request built from config. It is
// passed by value and shares no slices or maps with the Config.
type ToolRequest struct {
	Name        string
	VersionSpec string
	Companion   *CompanionRequest
	Enabled     bool
	ExtraArgs   map[string]string
}

// CompanionRequest is the companion part of a ToolRequest.
type CompanionRequest struct {
	Name          string
	VersionSpec   string
	Compatibility string
}

// Engine holds the settings every tool pipeline shares.
type Engine struct {
	InstallPrefix string
	BinDir        string
	CacheDir      string
	StateFile     string
	AuthToken     string
	GitHubAPI     string
	RecipesURL    string
	Interaction   installer.Mode
}
