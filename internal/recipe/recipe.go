// Package recipe holds the declarative per-tool definitions: where a tool's
// versions are listed, how its artifacts are named for each platform and
// which binaries it exposes. Recipes are YAML; defaults for go, zig and zls
// are embedded in the binary.
package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"toolseed/internal/platform"
)

// Kind selects the remote sources a recipe is built on.
type Kind string

const (
	KindGo     Kind = "go"
	KindZig    Kind = "zig"
	KindZLS    Kind = "zls"
	KindGitHub Kind = "github"
)

// Recipe describes how to install one tool.
type Recipe struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	// Repo is "owner/name" on GitHub, for github recipes and as the asset
	// fallback for zls.
	Repo       string              `yaml:"repo,omitempty"`
	IndexURL   string              `yaml:"index_url,omitempty"`
	CompatURL  string              `yaml:"compat_url,omitempty"`
	Vocabulary platform.Vocabulary `yaml:"vocabulary,omitempty"`
	// Assets are glob templates for release asset names, most preferred first.
	Assets []string `yaml:"assets,omitempty"`
	// Tags turn a version into release tag names, tried in order.
	Tags      []string   `yaml:"tags,omitempty"`
	Binaries  []string   `yaml:"binaries"`
	Signature *Signature `yaml:"signature,omitempty"`
}

// Signature declares how a tool signs its artifacts.
type Signature struct {
	// Kind is "minisign" or "pgp".
	Kind string `yaml:"kind"`
	// Key is the minisign public key line or an armored OpenPGP key.
	Key string `yaml:"key"`
	// Suffix is appended to the artifact name to find the signature file.
	Suffix string `yaml:"suffix,omitempty"`
}

// Parse decodes and validates a single recipe document.
func Parse(data []byte) (Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return Recipe{}, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Validate reports every problem with the recipe at once.
func (r Recipe) Validate() error {
	var problems []error
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, errors.New("name is required"))
	}
	if len(r.Binaries) == 0 {
		problems = append(problems, errors.New("at least one binary is required"))
	}
	switch r.Kind {
	case KindGo, KindZig:
	case KindZLS:
		if r.Repo != "" && len(r.Assets) == 0 {
			problems = append(problems, errors.New("zls with a repo needs asset patterns"))
		}
	case KindGitHub:
		if !strings.Contains(r.Repo, "/") {
			problems = append(problems, fmt.Errorf("repo %q must be owner/name", r.Repo))
		}
		if len(r.Assets) == 0 {
			problems = append(problems, errors.New("github recipes need asset patterns"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown kind %q", r.Kind))
	}
	if s := r.Signature; s != nil {
		if s.Kind != "minisign" && s.Kind != "pgp" {
			problems = append(problems, fmt.Errorf("unknown signature kind %q", s.Kind))
		}
		if strings.TrimSpace(s.Key) == "" {
			problems = append(problems, errors.New("signature key is required"))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	name := r.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Errorf("recipe %s: %w", name, errors.Join(problems...))
}
