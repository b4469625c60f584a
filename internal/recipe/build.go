package recipe

import (
	"fmt"
	"regexp"
	"strings"

	"toolseed/internal/installer"
	"toolseed/internal/release"
	"toolseed/internal/version"
)

// Env carries the run-wide settings recipes are built with.
type Env struct {
	Client    *release.Client
	GitHubAPI string
	Token     string
	// Compatibility is passed to the zls endpoint ("only-runtime" or "full").
	Compatibility string
	// Extra fills {{extra.<key>}} placeholders in the recipe.
	Extra map[string]string
}

var extraRe = regexp.MustCompile(`\{\{extra\.([A-Za-z0-9_-]+)\}\}`)

// applyExtra substitutes {{extra.<key>}} in the recipe's URLs, asset
// patterns and tag templates. A placeholder without a value is an error.
func applyExtra(r Recipe, extra map[string]string) (Recipe, error) {
	var missing []string
	expand := func(s string) string {
		return extraRe.ReplaceAllStringFunc(s, func(m string) string {
			key := extraRe.FindStringSubmatch(m)[1]
			v, ok := extra[key]
			if !ok {
				missing = append(missing, key)
				return m
			}
			return v
		})
	}
	expandAll := func(in []string) []string {
		if in == nil {
			return nil
		}
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = expand(s)
		}
		return out
	}

	r.Repo = expand(r.Repo)
	r.IndexURL = expand(r.IndexURL)
	r.CompatURL = expand(r.CompatURL)
	r.Assets = expandAll(r.Assets)
	r.Tags = expandAll(r.Tags)
	if len(missing) > 0 {
		return Recipe{}, fmt.Errorf("recipe %s: no extra value for %s", r.Name, strings.Join(missing, ", "))
	}
	return r, nil
}

// Build turns a recipe into the installer's Tool.
func Build(r Recipe, env Env) (installer.Tool, error) {
	if err := r.Validate(); err != nil {
		return installer.Tool{}, err
	}
	r, err := applyExtra(r, env.Extra)
	if err != nil {
		return installer.Tool{}, err
	}

	t := installer.Tool{
		Name:       r.Name,
		Vocabulary: r.Vocabulary,
		Binaries:   append([]string(nil), r.Binaries...),
		Resolver:   version.Resolver{Tool: r.Name},
	}
	sigSuffix := ""
	if r.Signature != nil {
		sigSuffix = r.Signature.Suffix
		switch r.Signature.Kind {
		case "minisign":
			if sigSuffix == "" {
				sigSuffix = ".minisig"
			}
			t.Signature = installer.Minisign{PublicKey: r.Signature.Key}
		case "pgp":
			if sigSuffix == "" {
				sigSuffix = ".asc"
			}
			t.Signature = installer.PGP{ArmoredKey: r.Signature.Key}
		}
	}

	switch r.Kind {
	case KindGo:
		idx := &release.GoIndex{Client: env.Client, URL: r.IndexURL}
		t.Resolver.Index = idx
		t.Locator = installer.ManifestLocator{Tool: r.Name, Manifest: idx, SignatureSuffix: sigSuffix}

	case KindZig:
		idx := &release.ZigIndex{Client: env.Client, URL: r.IndexURL}
		t.Resolver.Index = idx
		t.Locator = installer.ManifestLocator{Tool: r.Name, Manifest: idx, SignatureSuffix: sigSuffix}

	case KindZLS:
		sel := &release.ZLSSelect{Client: env.Client, URL: r.CompatURL, Compatibility: env.Compatibility}
		t.Resolver.Compat = sel
		locators := installer.FirstOf{installer.ManifestLocator{Tool: r.Name, Manifest: sel, SignatureSuffix: sigSuffix}}
		if r.Repo != "" {
			gh := github(r, env)
			t.Resolver.Index = gh
			locators = append(locators, patternLocator(r, gh, env, sigSuffix))
		}
		t.Locator = locators

	case KindGitHub:
		gh := github(r, env)
		t.Resolver.Index = gh
		t.Locator = patternLocator(r, gh, env, sigSuffix)
	}
	return t, nil
}

func github(r Recipe, env Env) *release.GitHub {
	return &release.GitHub{
		Client:       env.Client,
		API:          env.GitHubAPI,
		Repo:         r.Repo,
		Token:        env.Token,
		TagTemplates: r.Tags,
	}
}

func patternLocator(r Recipe, gh *release.GitHub, env Env, sigSuffix string) installer.PatternLocator {
	return installer.PatternLocator{
		Tool:            r.Name,
		Assets:          gh,
		Template:        installer.Templates(r.Assets...),
		Client:          env.Client,
		SignatureSuffix: sigSuffix,
	}
}
