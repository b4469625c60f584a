package platform

import (
	"fmt"

	"toolseed/internal/errs"
)

// Vocabulary translates a Key into the names one tool uses in its release
// artifacts. Tools disagree (Go says "arm64" where Zig says "aarch64"), so a
// Vocabulary is always per tool.
type Vocabulary struct {
	OS   map[string]string `yaml:"os"`
	Arch map[string]string `yaml:"arch"`
}

// Map returns the Key expressed in the tool's vocabulary. An empty map means
// the host name is used as-is; a non-empty map without an entry for the host
// value is an UnsupportedPlatform error.
func (v Vocabulary) Map(k Key) (Key, error) {
	osName, ok := lookup(v.OS, k.OS)
	if !ok {
		return Key{}, &errs.Error{
			Kind:     errs.UnsupportedPlatform,
			Platform: k.String(),
			Err:      fmt.Errorf("no artifact naming for os %q", k.OS),
		}
	}
	arch, ok := lookup(v.Arch, k.Arch)
	if !ok {
		return Key{}, &errs.Error{
			Kind:     errs.UnsupportedPlatform,
			Platform: k.String(),
			Err:      fmt.Errorf("no artifact naming for arch %q", k.Arch),
		}
	}
	return Key{OS: osName, Arch: arch}, nil
}

func lookup(m map[string]string, key string) (string, bool) {
	if len(m) == 0 {
		return key, true
	}
	v, ok := m[key]
	return v, ok
}
