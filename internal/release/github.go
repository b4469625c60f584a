package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"toolseed/internal/logger"
	"toolseed/internal/version"
)

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubRelease represents the structure of a GitHub release JSON response.
type GitHubRelease struct {
	TagName    string  `json:"tag_name"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// GitHub lists releases and their assets for one repository. Token is
// optional; when set it is sent as a bearer token, which only raises the
// API rate limit.
type GitHub struct {
	Client *Client
	API    string
	Repo   string
	Token  string
	// TagTemplates turn a version into candidate tag names, tried in order.
	// "{{version}}" is replaced by the version. Defaults to "v{{version}}"
	// then "{{version}}".
	TagTemplates []string
}

func (g *GitHub) header() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github+json")
	if g.Token != "" {
		h.Set("Authorization", "Bearer "+g.Token)
	}
	return h
}

func (g *GitHub) templates() []string {
	if len(g.TagTemplates) == 0 {
		return []string{"v{{version}}", "{{version}}"}
	}
	return g.TagTemplates
}

// tagVersion inverts the tag templates: the first template whose text
// around "{{version}}" fits tag yields the version. Tags no template fits
// are not releases of this tool.
func (g *GitHub) tagVersion(tag string) (string, bool) {
	for _, tpl := range g.templates() {
		prefix, suffix, ok := strings.Cut(tpl, "{{version}}")
		if !ok {
			continue
		}
		if len(tag) <= len(prefix)+len(suffix) || !strings.HasPrefix(tag, prefix) || !strings.HasSuffix(tag, suffix) {
			continue
		}
		return version.Clean(tag[len(prefix) : len(tag)-len(suffix)]), true
	}
	return "", false
}

func (g *GitHub) api() string {
	if g.API == "" {
		return DefaultGitHubAPI
	}
	return strings.TrimSuffix(g.API, "/")
}

// Versions implements version.Index. Drafts and pre-releases are not stable.
func (g *GitHub) Versions(ctx context.Context) ([]version.Candidate, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=100", g.api(), g.Repo)
	var releases []GitHubRelease
	if err := g.Client.GetJSON(ctx, url, g.header(), &releases); err != nil {
		return nil, err
	}
	cands := make([]version.Candidate, 0, len(releases))
	for _, r := range releases {
		ver, ok := g.tagVersion(r.TagName)
		if !ok {
			logger.Debug("[DEBUG] Ignoring tag %s of %s\n", r.TagName, g.Repo)
			continue
		}
		cands = append(cands, version.Candidate{
			Version: ver,
			Stable:  !r.Draft && !r.Prerelease,
		})
	}
	return cands, nil
}

// Assets returns the assets of the release tagged for ver, in the order the
// API lists them.
func (g *GitHub) Assets(ctx context.Context, ver string) ([]Asset, error) {
	var lastErr error
	for _, tpl := range g.templates() {
		tag := strings.ReplaceAll(tpl, "{{version}}", ver)
		url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", g.api(), g.Repo, tag)

		var rel GitHubRelease
		err := g.Client.GetJSON(ctx, url, g.header(), &rel)
		if err == nil {
			logger.Debug("[DEBUG] Release tag: %s with %d assets\n", rel.TagName, len(rel.Assets))
			return rel.Assets, nil
		}

		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			lastErr = fmt.Errorf("%s has no release %s: %w", g.Repo, tag, ErrNotFound)
			continue
		}
		return nil, err
	}
	return nil, lastErr
}
