// Package version turns version specs ("latest", "auto", "1.2.3") into
// concrete versions and orders versions semantically.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// Special version specs.
const (
	Latest = "latest"
	Auto   = "auto"
)

var wellFormedRe = regexp.MustCompile(`^\d+(\.\d+)*[0-9A-Za-z.+-]*$`)

// WellFormed reports whether v can be used as a concrete version. It has to
// start with a numeric component and must be safe to use as a directory name.
func WellFormed(v string) bool {
	return wellFormedRe.MatchString(v)
}

// Clean trims whitespace and a leading "v" or "go" in front of a digit, so
// "v0.13.0" and "go1.22.3" become "0.13.0" and "1.22.3".
func Clean(v string) string {
	v = strings.TrimSpace(v)
	for _, prefix := range []string{"go", "v"} {
		if strings.HasPrefix(v, prefix) && len(v) > len(prefix) && isDigit(v[len(prefix)]) {
			return v[len(prefix):]
		}
	}
	return v
}

// Normalize parses a tool version into a semantic version for ordering only.
// Missing minor/patch components are zero-filled and a pre-release glued to
// the last number ("1.21rc2") is split off ("1.21.0-rc2").
func Normalize(v string) (*semver.Version, error) {
	v = Clean(v)

	var meta string
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v, meta = v[:i], v[i+1:]
	}

	end := 0
	for end < len(v) && (isDigit(v[end]) || v[end] == '.') {
		end++
	}
	core := strings.TrimSuffix(v[:end], ".")
	pre := strings.TrimPrefix(v[end:], "-")
	if core == "" {
		return nil, fmt.Errorf("version %q has no numeric component", v)
	}

	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return nil, fmt.Errorf("version %q has too many components", v)
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}

	s := strings.Join(parts, ".")
	if pre != "" {
		s += "-" + pre
	}
	if meta != "" {
		s += "+" + meta
	}
	return semver.NewVersion(s)
}

// Compare orders two versions semantically. Unparseable versions sort below
// parseable ones and fall back to string comparison among themselves.
func Compare(a, b string) int {
	va, errA := Normalize(a)
	vb, errB := Normalize(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(*vb)
}

// Candidate is one entry of a remote version index.
type Candidate struct {
	Version string
	Stable  bool
}

// Highest returns the semantically highest stable candidate. Equal versions
// keep index order, so the answer is deterministic for a given index.
func Highest(cands []Candidate) (string, bool) {
	type parsed struct {
		raw string
		v   *semver.Version
	}
	var stable []parsed
	for _, c := range cands {
		if !c.Stable {
			continue
		}
		v, err := Normalize(c.Version)
		if err != nil {
			continue
		}
		stable = append(stable, parsed{raw: Clean(c.Version), v: v})
	}
	if len(stable) == 0 {
		return "", false
	}
	sort.SliceStable(stable, func(i, j int) bool {
		return stable[j].v.LessThan(*stable[i].v)
	})
	return stable[0].raw, true
}

// IsRelease reports whether v parses and carries no pre-release tag. Zig and
// GitHub indexes have no explicit stable flag, so their adapters use this.
func IsRelease(v string) bool {
	sv, err := Normalize(v)
	return err == nil && sv.PreRelease == ""
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
