package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"toolseed/internal/platform"
	"toolseed/internal/version"
)

const goIndexJSON = `[
  {"version": "go1.22.3", "stable": true, "files": [
    {"filename": "go1.22.3.src.tar.gz", "os": "", "arch": "", "sha256": "aaa", "kind": "source"},
    {"filename": "go1.22.3.linux-amd64.tar.gz", "os": "linux", "arch": "amd64", "sha256": "bbb", "kind": "archive"},
    {"filename": "go1.22.3.darwin-arm64.tar.gz", "os": "darwin", "arch": "arm64", "sha256": "ccc", "kind": "archive"}
  ]},
  {"version": "go1.23rc1", "stable": false, "files": []},
  {"version": "go1.21.10", "stable": true, "files": []}
]`

func TestGoIndex(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, goIndexJSON)
	}))
	defer server.Close()

	idx := &GoIndex{Client: NewClient(), URL: server.URL, DownloadBase: "https://dl.example/"}

	cands, err := idx.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	want := []version.Candidate{
		{Version: "1.22.3", Stable: true},
		{Version: "1.23rc1", Stable: false},
		{Version: "1.21.10", Stable: true},
	}
	if diff := pretty.Compare(cands, want); diff != "" {
		t.Errorf("Versions diff (-got +want):\n%s", diff)
	}

	entry, err := idx.Lookup(context.Background(), "1.22.3", platform.Key{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	wantEntry := Entry{URL: "https://dl.example/go1.22.3.linux-amd64.tar.gz", Filename: "go1.22.3.linux-amd64.tar.gz", Checksum: "bbb"}
	if entry != wantEntry {
		t.Errorf("Lookup = %+v, want %+v", entry, wantEntry)
	}

	if _, err := idx.Lookup(context.Background(), "1.22.3", platform.Key{OS: "linux", Arch: "riscv64"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing platform: got %v, want ErrNotFound", err)
	}
	if _, err := idx.Lookup(context.Background(), "9.9.9", platform.Key{OS: "linux", Arch: "amd64"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing version: got %v, want ErrNotFound", err)
	}
	if hits != 1 {
		t.Errorf("index fetched %d times, want 1", hits)
	}
}

const zigIndexJSON = `{
  "master": {"version": "0.14.0-dev.3028+cdc9d65b0", "date": "2025-02-01",
    "x86_64-linux": {"tarball": "https://ziglang.org/builds/zig-linux-x86_64-0.14.0-dev.3028+cdc9d65b0.tar.xz", "shasum": "m1", "size": "1"}},
  "0.13.0": {"date": "2024-06-07",
    "x86_64-linux": {"tarball": "https://ziglang.org/download/0.13.0/zig-linux-x86_64-0.13.0.tar.xz", "shasum": "z13", "size": "2"},
    "aarch64-macos": {"tarball": "https://ziglang.org/download/0.13.0/zig-macos-aarch64-0.13.0.tar.xz", "shasum": "z13m", "size": "3"}},
  "0.12.1": {"date": "2024-06-06",
    "x86_64-linux": {"tarball": "https://ziglang.org/download/0.12.1/zig-linux-x86_64-0.12.1.tar.xz", "shasum": "z121", "size": "4"}}
}`

func TestZigIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, zigIndexJSON)
	}))
	defer server.Close()

	idx := &ZigIndex{Client: NewClient(), URL: server.URL}

	cands, err := idx.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	got, ok := version.Highest(cands)
	if !ok || got != "0.13.0" {
		t.Errorf("Highest = %q, %v; want 0.13.0", got, ok)
	}

	entry, err := idx.Lookup(context.Background(), "0.13.0", platform.Key{OS: "macos", Arch: "aarch64"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.Checksum != "z13m" || entry.Filename != "zig-macos-aarch64-0.13.0.tar.xz" {
		t.Errorf("Lookup = %+v", entry)
	}

	dev, err := idx.Lookup(context.Background(), "0.14.0-dev.3028+cdc9d65b0", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Lookup master: %v", err)
	}
	if dev.Checksum != "m1" {
		t.Errorf("Lookup master = %+v", dev)
	}

	if _, err := idx.Lookup(context.Background(), "0.12.1", platform.Key{OS: "macos", Arch: "aarch64"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing platform: got %v, want ErrNotFound", err)
	}
}

func TestZLSSelect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("compatibility"); got != "only-runtime" {
			t.Errorf("compatibility = %q", got)
		}
		switch r.URL.Query().Get("zig_version") {
		case "0.13.0":
			fmt.Fprint(w, `{"version": "0.13.0", "date": "2024-06-09",
			  "x86_64-linux": {"tarball": "https://builds.zigtools.org/zls-linux-x86_64-0.13.0.tar.xz", "shasum": "zls13", "size": "5"}}`)
		default:
			fmt.Fprint(w, `{"code": 0, "message": "Unsupported Zig version"}`)
		}
	}))
	defer server.Close()

	sel := &ZLSSelect{Client: NewClient(), URL: server.URL}

	if _, err := sel.Lookup(context.Background(), "0.13.0", platform.Key{OS: "linux", Arch: "x86_64"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup before Compatible: got %v, want ErrNotFound", err)
	}

	v, err := sel.Compatible(context.Background(), "0.13.0")
	if err != nil {
		t.Fatalf("Compatible: %v", err)
	}
	if v != "0.13.0" {
		t.Errorf("Compatible = %q", v)
	}

	entry, err := sel.Lookup(context.Background(), "0.13.0", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.Checksum != "zls13" {
		t.Errorf("Lookup = %+v", entry)
	}

	_, err = sel.Compatible(context.Background(), "0.1.0")
	if err == nil || !strings.Contains(err.Error(), "Unsupported Zig version") {
		t.Errorf("Compatible(0.1.0) = %v", err)
	}
}

func TestGitHubTokenIsOptional(t *testing.T) {
	var sawAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = append(sawAuth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/repos/acme/tool/releases":
			fmt.Fprint(w, `[{"tag_name": "v2.0.0-rc1", "prerelease": true},
			  {"tag_name": "v2.0.0"}, {"tag_name": "v1.9.0"}, {"tag_name": "v3.0.0", "draft": true}]`)
		case "/repos/acme/tool/releases/tags/2.0.0":
			fmt.Fprint(w, `{"tag_name": "2.0.0", "assets": [{"name": "tool-linux-amd64.tar.gz", "browser_download_url": "https://dl/tool-linux-amd64.tar.gz"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	for _, token := range []string{"", "secret"} {
		sawAuth = nil
		gh := &GitHub{Client: NewClient(), API: server.URL, Repo: "acme/tool", Token: token}

		cands, err := gh.Versions(context.Background())
		if err != nil {
			t.Fatalf("Versions(token=%q): %v", token, err)
		}
		if v, _ := version.Highest(cands); v != "2.0.0" {
			t.Errorf("Highest = %q, want 2.0.0", v)
		}

		assets, err := gh.Assets(context.Background(), "2.0.0")
		if err != nil {
			t.Fatalf("Assets(token=%q): %v", token, err)
		}
		if len(assets) != 1 || assets[0].Name != "tool-linux-amd64.tar.gz" {
			t.Errorf("Assets = %+v", assets)
		}

		for _, h := range sawAuth {
			want := ""
			if token != "" {
				want = "Bearer " + token
			}
			if h != want {
				t.Errorf("Authorization = %q, want %q", h, want)
			}
		}
	}
}

func TestGitHubVersionsFollowTagTemplates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"tag_name": "jq-1.7.1"}, {"tag_name": "jq-1.6"}, {"tag_name": "nightly"}, {"tag_name": "jq-"}]`)
	}))
	defer server.Close()

	gh := &GitHub{Client: NewClient(), API: server.URL, Repo: "jqlang/jq", TagTemplates: []string{"jq-{{version}}"}}
	cands, err := gh.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	want := []version.Candidate{{Version: "1.7.1", Stable: true}, {Version: "1.6", Stable: true}}
	if diff := pretty.Compare(cands, want); diff != "" {
		t.Errorf("Versions() diff (-got +want):\n%s", diff)
	}

	res, err := version.Resolver{Tool: "jq", Index: gh}.Resolve(context.Background(), version.Latest, "")
	if err != nil {
		t.Fatalf("Resolve(latest) error = %v", err)
	}
	if res.Concrete != "1.7.1" {
		t.Errorf("Resolve(latest) = %q, want 1.7.1", res.Concrete)
	}
}

func TestGitHubAssetsMissingRelease(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	gh := &GitHub{Client: NewClient(), API: server.URL, Repo: "acme/tool"}
	if _, err := gh.Assets(context.Background(), "1.0.0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDownloadWritesAtomically(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, "payload")
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "file.tar.gz")
	c := NewClient()

	if err := c.Download(context.Background(), server.URL+"/ok", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q", data)
	}

	missing := filepath.Join(dir, "missing.tar.gz")
	err = c.Download(context.Background(), server.URL+"/missing", missing)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("Download missing: %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("missing download left a file behind: %v", err)
	}
	if _, err := os.Stat(missing + ".part"); !os.IsNotExist(err) {
		t.Errorf("missing download left a temp file behind: %v", err)
	}
}
