package platform

import (
	"strings"
	"testing"

	"toolseed/internal/errs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		osName  string
		arch    string
		want    Key
		wantErr bool
	}{
		{name: "linux_x86_64", osName: "Linux", arch: "x86_64", want: Key{OS: "linux", Arch: "x86_64"}},
		{name: "darwin_arm64", osName: "Darwin", arch: "arm64", want: Key{OS: "darwin", Arch: "arm64"}},
		{name: "lowercase_os", osName: "linux", arch: "aarch64", want: Key{OS: "linux", Arch: "aarch64"}},
		{name: "windows", osName: "Windows", arch: "x86_64", wantErr: true},
		{name: "unknown_arch", osName: "Linux", arch: "sparc64", wantErr: true},
		{name: "empty_arch", osName: "Linux", arch: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.osName, tt.arch)
			if tt.wantErr {
				if !errs.Is(err, errs.UnsupportedPlatform) {
					t.Fatalf("expected UnsupportedPlatform, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnsupportedPlatformNamesValues(t *testing.T) {
	_, err := Parse("Plan9", "mips")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if want := `os="Plan9"`; !strings.Contains(msg, want) {
		t.Errorf("message %q missing %q", msg, want)
	}
	if want := `arch="mips"`; !strings.Contains(msg, want) {
		t.Errorf("message %q missing %q", msg, want)
	}
}

func TestVocabularyIsPerTool(t *testing.T) {
	host := Key{OS: "darwin", Arch: "aarch64"}

	goVocab := Vocabulary{
		OS:   map[string]string{"linux": "linux", "darwin": "darwin"},
		Arch: map[string]string{"x86_64": "amd64", "aarch64": "arm64", "arm64": "arm64"},
	}
	zigVocab := Vocabulary{
		OS:   map[string]string{"linux": "linux", "darwin": "macos"},
		Arch: map[string]string{"x86_64": "x86_64", "aarch64": "aarch64", "arm64": "aarch64"},
	}

	g, err := goVocab.Map(host)
	if err != nil {
		t.Fatalf("go map: %v", err)
	}
	if g != (Key{OS: "darwin", Arch: "arm64"}) {
		t.Errorf("go vocabulary = %+v", g)
	}

	z, err := zigVocab.Map(host)
	if err != nil {
		t.Fatalf("zig map: %v", err)
	}
	if z != (Key{OS: "macos", Arch: "aarch64"}) {
		t.Errorf("zig vocabulary = %+v", z)
	}
}

func TestVocabularyMissingEntry(t *testing.T) {
	v := Vocabulary{Arch: map[string]string{"x86_64": "amd64"}}
	_, err := v.Map(Key{OS: "linux", Arch: "armv7l"})
	if !errs.Is(err, errs.UnsupportedPlatform) {
		t.Fatalf("expected UnsupportedPlatform, got %v", err)
	}
}

func TestEmptyVocabularyPassesThrough(t *testing.T) {
	k := Key{OS: "linux", Arch: "x86_64"}
	got, err := Vocabulary{}.Map(k)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != k {
		t.Errorf("Map = %+v, want %+v", got, k)
	}
}
