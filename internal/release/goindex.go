package release

import (
	"context"
	"fmt"
	"sync"

	"toolseed/internal/platform"
	"toolseed/internal/version"
)

// DefaultGoIndexURL lists every Go release, including unstable ones.
const DefaultGoIndexURL = "https://go.dev/dl/?mode=json&include=all"

// DefaultGoDownloadBase is prefixed to file names from the Go index.
const DefaultGoDownloadBase = "https://go.dev/dl/"

type goRelease struct {
	Version string   `json:"version"`
	Stable  bool     `json:"stable"`
	Files   []goFile `json:"files"`
}

type goFile struct {
	Filename string `json:"filename"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Version  string `json:"version"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
	Kind     string `json:"kind"`
}

// GoIndex reads the Go download index: a flat JSON array of releases, each
// with a stable flag and per-platform archive files with SHA-256 sums.
// The index is fetched at most once per GoIndex value.
type GoIndex struct {
	Client       *Client
	URL          string
	DownloadBase string

	once     sync.Once
	releases []goRelease
	err      error
}

func (g *GoIndex) load(ctx context.Context) ([]goRelease, error) {
	g.once.Do(func() {
		url := g.URL
		if url == "" {
			url = DefaultGoIndexURL
		}
		g.err = g.Client.GetJSON(ctx, url, nil, &g.releases)
	})
	return g.releases, g.err
}

// Versions implements version.Index.
func (g *GoIndex) Versions(ctx context.Context) ([]version.Candidate, error) {
	releases, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	cands := make([]version.Candidate, 0, len(releases))
	for _, r := range releases {
		cands = append(cands, version.Candidate{Version: version.Clean(r.Version), Stable: r.Stable})
	}
	return cands, nil
}

// Lookup returns the archive for ver on key, where key is already in Go's
// vocabulary (os "linux"/"darwin", arch "amd64"/"arm64").
func (g *GoIndex) Lookup(ctx context.Context, ver string, key platform.Key) (Entry, error) {
	releases, err := g.load(ctx)
	if err != nil {
		return Entry{}, err
	}
	base := g.DownloadBase
	if base == "" {
		base = DefaultGoDownloadBase
	}

	for _, r := range releases {
		if version.Clean(r.Version) != ver {
			continue
		}
		for _, f := range r.Files {
			if f.Kind == "archive" && f.OS == key.OS && f.Arch == key.Arch {
				return Entry{URL: base + f.Filename, Filename: f.Filename, Checksum: f.SHA256}, nil
			}
		}
		return Entry{}, fmt.Errorf("go %s has no archive for %s/%s: %w", ver, key.OS, key.Arch, ErrNotFound)
	}
	return Entry{}, fmt.Errorf("go %s is not in the index: %w", ver, ErrNotFound)
}
