package recipe

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"toolseed/internal/logger"
)

//go:embed defaults/*.yaml
var defaults embed.FS

// Default returns the embedded recipe for name.
func Default(name string) (Recipe, bool) {
	data, err := defaults.ReadFile("defaults/" + name + ".yaml")
	if err != nil {
		return Recipe{}, false
	}
	r, err := Parse(data)
	if err != nil {
		// Embedded recipes are tested; this only trips on a bad build.
		logger.Error("[ERROR] Embedded recipe %s is invalid: %v\n", name, err)
		return Recipe{}, false
	}
	return r, true
}

// DefaultNames lists the embedded recipes.
func DefaultNames() []string {
	entries, _ := defaults.ReadDir("defaults")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Catalog finds the recipe for a tool. Inline recipes from the config win,
// then a refreshed copy in the cache directory, then the embedded default.
type Catalog struct {
	Inline   map[string]Recipe
	CacheDir string
}

// CachePath is where a refreshed recipe for name is kept.
func CachePath(cacheDir, name string) string {
	return filepath.Join(cacheDir, "recipes", name+".yaml")
}

// Lookup returns the recipe for name.
func (c Catalog) Lookup(name string) (Recipe, error) {
	if r, ok := c.Inline[name]; ok {
		logger.Debug("[DEBUG] Using inline recipe for %s\n", name)
		return r, nil
	}
	if c.CacheDir != "" {
		data, err := os.ReadFile(CachePath(c.CacheDir, name))
		switch {
		case err == nil:
			r, perr := Parse(data)
			if perr == nil {
				logger.Debug("[DEBUG] Using cached recipe for %s\n", name)
				return r, nil
			}
			logger.Warn("[WARN] Ignoring cached recipe for %s: %v\n", name, perr)
		case !os.IsNotExist(err):
			logger.Warn("[WARN] Failed to read cached recipe for %s: %v\n", name, err)
		}
	}
	if r, ok := Default(name); ok {
		return r, nil
	}
	return Recipe{}, fmt.Errorf("no recipe for %q", name)
}

// Names lists every tool the catalog knows, sorted.
func (c Catalog) Names() []string {
	seen := map[string]bool{}
	for _, n := range DefaultNames() {
		seen[n] = true
	}
	for n := range c.Inline {
		seen[n] = true
	}
	if c.CacheDir != "" {
		entries, _ := os.ReadDir(filepath.Join(c.CacheDir, "recipes"))
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".yaml") {
				seen[strings.TrimSuffix(e.Name(), ".yaml")] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
