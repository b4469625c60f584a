package installer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"toolseed/internal/errs"
	"toolseed/internal/platform"
	"toolseed/internal/release"
)

type fakeAssets struct {
	assets []release.Asset
	err    error
	calls  int
}

func (f *fakeAssets) Assets(ctx context.Context, ver string) ([]release.Asset, error) {
	f.calls++
	return f.assets, f.err
}

type fakeManifest struct {
	entries map[string]release.Entry
}

func (f fakeManifest) Lookup(ctx context.Context, ver string, key platform.Key) (release.Entry, error) {
	e, ok := f.entries[ver+"/"+key.String()]
	if !ok {
		return release.Entry{}, fmt.Errorf("%s for %s: %w", ver, key, release.ErrNotFound)
	}
	return e, nil
}

func TestTemplates(t *testing.T) {
	tpl := Templates("tool_{{version}}_{{Os}}_{{arch}}.tar.gz", "tool-{{OS}}-{{Arch}}*")
	got := tpl("1.2.3", platform.Key{OS: "linux", Arch: "x86_64"})
	want := []string{"tool_1.2.3_Linux_x86_64.tar.gz", "tool-LINUX-X86_64*"}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("Templates() diff (-got +want):\n%s", diff)
	}
}

func TestPatternLocatorFirstMatchWins(t *testing.T) {
	assets := &fakeAssets{assets: []release.Asset{
		{Name: "tool_1.2.3_darwin_arm64.tar.gz", URL: "https://dl/darwin"},
		{Name: "tool_1.2.3_linux_x86_64.tar.gz", URL: "https://dl/linux-gz"},
		{Name: "tool_1.2.3_linux_x86_64.zip", URL: "https://dl/linux-zip"},
		{Name: "tool_1.2.3_linux_x86_64.tar.xz", URL: "https://dl/linux-xz"},
	}}
	loc := PatternLocator{
		Tool:     "tool",
		Assets:   assets,
		Template: Templates("tool_{{version}}_{{os}}_{{arch}}.tar.xz", "tool_{{version}}_{{os}}_{{arch}}.*"),
	}

	got, err := loc.Locate(context.Background(), "1.2.3", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := Artifact{URL: "https://dl/linux-xz", Filename: "tool_1.2.3_linux_x86_64.tar.xz"}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("Locate() diff (-got +want):\n%s", diff)
	}

	// Without the preferred pattern, the first asset in listing order wins.
	loc.Template = Templates("tool_{{version}}_{{os}}_{{arch}}.*")
	got, err = loc.Locate(context.Background(), "1.2.3", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got.URL != "https://dl/linux-gz" {
		t.Errorf("Locate() URL = %s, want https://dl/linux-gz", got.URL)
	}
}

func TestPatternLocatorNoMatch(t *testing.T) {
	loc := PatternLocator{
		Tool:     "tool",
		Assets:   &fakeAssets{assets: []release.Asset{{Name: "tool_1.2.3_darwin_arm64.tar.gz"}}},
		Template: Templates("tool_{{version}}_{{os}}_{{arch}}.tar.gz"),
	}
	_, err := loc.Locate(context.Background(), "1.2.3", platform.Key{OS: "linux", Arch: "aarch64"})
	if !errs.Is(err, errs.ArtifactNotFound) {
		t.Fatalf("Locate() error = %v, want ArtifactNotFound", err)
	}
	for _, want := range []string{"1.2.3", "aarch64-linux"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestPatternLocatorSidecars(t *testing.T) {
	const sum = "4bf2c2b1bb3e0e1c9a7a2fd1e5a0d37d6a0e7f1e0b2c7d4f6a8b9c0d1e2f3a4b"
	mux := http.NewServeMux()
	mux.HandleFunc("/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "0000  tool_1.2.3_darwin_arm64.tar.gz\n%s  tool_1.2.3_linux_x86_64.tar.gz\n", strings.ToUpper(sum))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	loc := PatternLocator{
		Tool: "tool",
		Assets: &fakeAssets{assets: []release.Asset{
			{Name: "tool_1.2.3_linux_x86_64.tar.gz", URL: server.URL + "/tool.tar.gz"},
			{Name: "tool_1.2.3_linux_x86_64.tar.gz.sig", URL: server.URL + "/tool.tar.gz.sig"},
			{Name: "checksums.txt", URL: server.URL + "/checksums.txt"},
		}},
		Template:        Templates("tool_{{version}}_{{os}}_{{arch}}.tar.gz"),
		Client:          release.NewClient(),
		SignatureSuffix: ".sig",
	}

	got, err := loc.Locate(context.Background(), "1.2.3", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got.ExpectedChecksum != sum {
		t.Errorf("ExpectedChecksum = %q, want %q", got.ExpectedChecksum, sum)
	}
	if got.SignatureURL != server.URL+"/tool.tar.gz.sig" {
		t.Errorf("SignatureURL = %q", got.SignatureURL)
	}
}

func TestParseChecksumFile(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "sha256sum", data: "abc123  tool.tar.gz\n", want: "abc123"},
		{name: "binary_marker", data: "ABC123 *tool.tar.gz\n", want: "abc123"},
		{name: "path_prefix", data: "abc123  dist/tool.tar.gz\n", want: "abc123"},
		{name: "bare_digest", data: "abc123\n", want: "abc123"},
		{name: "other_file", data: "abc123  other.tar.gz\n", want: ""},
		{name: "comments", data: "# generated\nabc123  tool.tar.gz\n", want: "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseChecksumFile([]byte(tt.data), "tool.tar.gz"); got != tt.want {
				t.Errorf("ParseChecksumFile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManifestLocator(t *testing.T) {
	m := fakeManifest{entries: map[string]release.Entry{
		"0.13.0/x86_64-linux": {URL: "https://ziglang.org/download/0.13.0/zig-linux-x86_64-0.13.0.tar.xz", Checksum: "d45312e6"},
	}}
	loc := ManifestLocator{Tool: "zig", Manifest: m, SignatureSuffix: ".minisig"}

	got, err := loc.Locate(context.Background(), "0.13.0", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := Artifact{
		URL:              "https://ziglang.org/download/0.13.0/zig-linux-x86_64-0.13.0.tar.xz",
		Filename:         "zig-linux-x86_64-0.13.0.tar.xz",
		ExpectedChecksum: "d45312e6",
		SignatureURL:     "https://ziglang.org/download/0.13.0/zig-linux-x86_64-0.13.0.tar.xz.minisig",
	}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("Locate() diff (-got +want):\n%s", diff)
	}

	_, err = loc.Locate(context.Background(), "0.13.0", platform.Key{OS: "linux", Arch: "riscv64"})
	if !errs.Is(err, errs.ArtifactNotFound) {
		t.Errorf("Locate() error = %v, want ArtifactNotFound", err)
	}
}

func TestFirstOfFallsThroughOnNotFound(t *testing.T) {
	empty := ManifestLocator{Tool: "tool", Manifest: fakeManifest{}}
	pattern := PatternLocator{
		Tool:     "tool",
		Assets:   &fakeAssets{assets: []release.Asset{{Name: "tool-linux", URL: "https://dl/tool-linux"}}},
		Template: Templates("tool-{{os}}"),
	}
	got, err := FirstOf{empty, pattern}.Locate(context.Background(), "1.0.0", platform.Key{OS: "linux", Arch: "x86_64"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got.URL != "https://dl/tool-linux" {
		t.Errorf("Locate() URL = %s", got.URL)
	}

	_, err = FirstOf{empty}.Locate(context.Background(), "1.0.0", platform.Key{OS: "linux", Arch: "x86_64"})
	if !errs.Is(err, errs.ArtifactNotFound) {
		t.Errorf("Locate() error = %v, want ArtifactNotFound", err)
	}
}
