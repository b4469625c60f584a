package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"toolseed/internal/installer"
	"toolseed/internal/logger"
	"toolseed/internal/recipe"
	"toolseed/internal/version"
)

// DefaultPath is where the config is read from when --config is not given.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".config", "toolseed", "config.yaml")
}

// Default is the config used when no config file exists: the Go toolchain
// plus Zig with a matching ZLS.
func Default() Config {
	cfg := Config{
		Tools: []Tool{
			{Name: "go", Version: version.Latest},
			{Name: "zig", Version: version.Latest, Companion: &Companion{Name: "zls", Version: version.Auto}},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and validates the config at path. A missing file at the
// default path yields Default(); a missing file anywhere else is an error.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) && path == DefaultPath() {
		logger.Warn("[WARN] No config at %s, using defaults\n", path)
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes config YAML, fills defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.InstallPrefix == "" {
		c.InstallPrefix = "~/.local/share/toolseed"
	}
	if c.BinDir == "" {
		c.BinDir = "~/.local/bin"
	}
	if c.CacheDir == "" {
		c.CacheDir = "~/.cache/toolseed"
	}
	if c.StateFile == "" {
		c.StateFile = filepath.Join(c.CacheDir, "state.json")
	}
	if c.Interaction == "" {
		c.Interaction = string(installer.ModeAuto)
	}
	if c.GitHubToken == "" {
		c.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	c.InstallPrefix = expandHome(c.InstallPrefix)
	c.BinDir = expandHome(c.BinDir)
	c.CacheDir = expandHome(c.CacheDir)
	c.StateFile = expandHome(c.StateFile)
}

// Validate reports every problem in the config at once.
func (c Config) Validate() error {
	var problems []error
	switch installer.Mode(c.Interaction) {
	case installer.ModeAuto, installer.ModeInteractive:
	default:
		problems = append(problems, fmt.Errorf("interaction must be %q or %q, got %q",
			installer.ModeAuto, installer.ModeInteractive, c.Interaction))
	}
	if c.RecipesURL != "" && !strings.HasPrefix(c.RecipesURL, "https://") && !strings.HasPrefix(c.RecipesURL, "http://") {
		problems = append(problems, fmt.Errorf("recipes_url %q is not an http(s) URL", c.RecipesURL))
	}

	seen := map[string]bool{}
	for i, t := range c.Tools {
		if t.Name == "" {
			problems = append(problems, fmt.Errorf("tools[%d]: name is required", i))
			continue
		}
		if seen[t.Name] {
			problems = append(problems, fmt.Errorf("tools[%d]: %s is listed twice", i, t.Name))
		}
		seen[t.Name] = true
		if strings.EqualFold(strings.TrimSpace(t.Version), version.Auto) {
			problems = append(problems, fmt.Errorf("tools[%d]: %s: %q is only valid for companions", i, t.Name, version.Auto))
		}
		if comp := t.Companion; comp != nil {
			if comp.Name == "" {
				problems = append(problems, fmt.Errorf("tools[%d]: companion name is required", i))
			}
			if comp.Name == t.Name {
				problems = append(problems, fmt.Errorf("tools[%d]: %s cannot be its own companion", i, t.Name))
			}
		}
	}
	for _, r := range c.Recipes {
		if err := r.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(problems...))
}

// Engine returns the shared engine settings.
func (c Config) Engine() Engine {
	return Engine{
		InstallPrefix: c.InstallPrefix,
		BinDir:        c.BinDir,
		CacheDir:      c.CacheDir,
		StateFile:     c.StateFile,
		AuthToken:     c.GitHubToken,
		GitHubAPI:     c.GitHubAPI,
		RecipesURL:    c.RecipesURL,
		Interaction:   installer.Mode(c.Interaction),
	}
}

// InlineRecipes returns the config's recipes keyed by name.
func (c Config) InlineRecipes() map[string]recipe.Recipe {
	out := make(map[string]recipe.Recipe, len(c.Recipes))
	for _, r := range c.Recipes {
		out[r.Name] = r
	}
	return out
}

// Requests builds the immutable request list. Disabled tools are dropped.
// When only is non-empty, just the named tools are kept (a companion comes
// along with its primary); naming a tool that is not configured is an error.
func (c Config) Requests(only []string) ([]ToolRequest, error) {
	want := map[string]bool{}
	for _, n := range only {
		want[n] = true
	}

	var out []ToolRequest
	for _, t := range c.Tools {
		if len(want) > 0 {
			if !want[t.Name] {
				continue
			}
			delete(want, t.Name)
		}
		req := ToolRequest{
			Name:        t.Name,
			VersionSpec: strings.TrimSpace(t.Version),
			Enabled:     t.Enabled == nil || *t.Enabled,
		}
		if req.VersionSpec == "" {
			req.VersionSpec = version.Latest
		}
		if len(t.Extra) > 0 {
			req.ExtraArgs = make(map[string]string, len(t.Extra))
			for k, v := range t.Extra {
				req.ExtraArgs[k] = v
			}
		}
		if t.Companion != nil {
			comp := *t.Companion
			req.Companion = &CompanionRequest{
				Name:          comp.Name,
				VersionSpec:   strings.TrimSpace(comp.Version),
				Compatibility: comp.Compatibility,
			}
			if req.Companion.VersionSpec == "" {
				req.Companion.VersionSpec = version.Auto
			}
		}
		if !req.Enabled {
			logger.Debug("[DEBUG] %s is disabled\n", t.Name)
			continue
		}
		out = append(out, req)
	}

	if len(want) > 0 {
		var missing []string
		for n := range want {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("not in config: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
