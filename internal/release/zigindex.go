package release

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"

	"toolseed/internal/platform"
	"toolseed/internal/version"
)

// DefaultZigIndexURL is Zig's version-keyed download index.
const DefaultZigIndexURL = "https://ziglang.org/download/index.json"

// zigTarget is the per-platform artifact descriptor used by both the Zig
// index and the ZLS compatibility endpoint.
type zigTarget struct {
	Tarball string `json:"tarball"`
	Shasum  string `json:"shasum"`
}

// zigRelease is one value of the index: a few scalar fields plus one
// "<arch>-<os>" key per platform.
type zigRelease map[string]json.RawMessage

func (r zigRelease) version() string {
	var v string
	if raw, ok := r["version"]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

func (r zigRelease) target(key platform.Key) (zigTarget, bool) {
	raw, ok := r[key.Arch+"-"+key.OS]
	if !ok {
		return zigTarget{}, false
	}
	var t zigTarget
	if err := json.Unmarshal(raw, &t); err != nil || t.Tarball == "" {
		return zigTarget{}, false
	}
	return t, true
}

func (t zigTarget) entry() Entry {
	return Entry{URL: t.Tarball, Filename: path.Base(t.Tarball), Checksum: t.Shasum}
}

// ZigIndex reads the Zig download index: an object keyed by version (plus
// "master"), each value keyed by platform.
type ZigIndex struct {
	Client *Client
	URL    string

	once     sync.Once
	releases map[string]zigRelease
	err      error
}

func (z *ZigIndex) load(ctx context.Context) (map[string]zigRelease, error) {
	z.once.Do(func() {
		url := z.URL
		if url == "" {
			url = DefaultZigIndexURL
		}
		z.err = z.Client.GetJSON(ctx, url, nil, &z.releases)
	})
	return z.releases, z.err
}

// Versions implements version.Index. Keyed releases are stable unless they
// carry a pre-release tag; the master build is never stable.
func (z *ZigIndex) Versions(ctx context.Context) ([]version.Candidate, error) {
	releases, err := z.load(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(releases))
	for k := range releases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cands := make([]version.Candidate, 0, len(keys))
	for _, k := range keys {
		if k == "master" {
			if v := releases[k].version(); v != "" {
				cands = append(cands, version.Candidate{Version: v, Stable: false})
			}
			continue
		}
		cands = append(cands, version.Candidate{Version: k, Stable: version.IsRelease(k)})
	}
	return cands, nil
}

// Lookup returns the tarball for ver on key, where key uses Zig's vocabulary
// (os "linux"/"macos", arch "x86_64"/"aarch64"). A development version is
// found under the master entry when it matches master's version field.
func (z *ZigIndex) Lookup(ctx context.Context, ver string, key platform.Key) (Entry, error) {
	releases, err := z.load(ctx)
	if err != nil {
		return Entry{}, err
	}
	rel, ok := releases[ver]
	if !ok {
		if m, hasMaster := releases["master"]; hasMaster && m.version() == ver {
			rel, ok = m, true
		}
	}
	if !ok {
		return Entry{}, fmt.Errorf("zig %s is not in the index: %w", ver, ErrNotFound)
	}
	t, ok := rel.target(key)
	if !ok {
		return Entry{}, fmt.Errorf("zig %s has no tarball for %s: %w", ver, key, ErrNotFound)
	}
	return t.entry(), nil
}
