package installer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"toolseed/internal/errs"
	"toolseed/internal/logger"
	"toolseed/internal/platform"
	"toolseed/internal/release"
)

// Locator finds the artifact for one concrete version on one platform.
// The key passed in is already mapped into the tool's vocabulary.
type Locator interface {
	Locate(ctx context.Context, version string, key platform.Key) (Artifact, error)
}

// Manifest is a structured index that maps version x platform to a file.
type Manifest interface {
	Lookup(ctx context.Context, version string, key platform.Key) (release.Entry, error)
}

// AssetLister lists the files attached to a release.
type AssetLister interface {
	Assets(ctx context.Context, version string) ([]release.Asset, error)
}

// ManifestLocator locates artifacts through a Manifest.
type ManifestLocator struct {
	Tool     string
	Manifest Manifest
	// SignatureSuffix, when set, is appended to the artifact URL to find its
	// detached signature (".minisig" for Zig).
	SignatureSuffix string
}

func (m ManifestLocator) Locate(ctx context.Context, ver string, key platform.Key) (Artifact, error) {
	entry, err := m.Manifest.Lookup(ctx, ver, key)
	if err != nil {
		return Artifact{}, notFound(m.Tool, ver, key, err)
	}
	a := Artifact{
		URL:              entry.URL,
		Filename:         entry.Filename,
		ExpectedChecksum: entry.Checksum,
	}
	if a.Filename == "" {
		a.Filename = path.Base(entry.URL)
	}
	if m.SignatureSuffix != "" {
		a.SignatureURL = entry.URL + m.SignatureSuffix
	}
	return a, nil
}

// NamingTemplate renders the glob patterns an asset name may match for a
// version and platform, most preferred first.
type NamingTemplate func(version string, key platform.Key) []string

// Templates builds a NamingTemplate from pattern strings. Placeholders:
// {{version}}, {{os}}, {{arch}}, plus {{OS}}/{{Os}} and {{Arch}} for the
// upper-case and title-case spellings some projects use.
func Templates(patterns ...string) NamingTemplate {
	return func(ver string, key platform.Key) []string {
		r := strings.NewReplacer(
			"{{version}}", ver,
			"{{os}}", key.OS,
			"{{OS}}", strings.ToUpper(key.OS),
			"{{Os}}", title(key.OS),
			"{{arch}}", key.Arch,
			"{{Arch}}", title(key.Arch),
		)
		out := make([]string, 0, len(patterns))
		for _, p := range patterns {
			out = append(out, r.Replace(p))
		}
		return out
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// checksumSidecars are the checksum files looked for next to an asset, in
// order. "%s" is the asset name.
var checksumSidecars = []string{"%s.sha256", "%s.sha256sum", "checksums.txt", "SHA256SUMS", "sha256sums.txt"}

// PatternLocator picks an asset from a release listing by name pattern.
type PatternLocator struct {
	Tool     string
	Assets   AssetLister
	Template NamingTemplate
	// Client fetches checksum sidecars. Nil disables sidecar lookup.
	Client          *release.Client
	SignatureSuffix string
}

func (p PatternLocator) Locate(ctx context.Context, ver string, key platform.Key) (Artifact, error) {
	assets, err := p.Assets.Assets(ctx, ver)
	if err != nil {
		return Artifact{}, notFound(p.Tool, ver, key, err)
	}

	patterns := p.Template(ver, key)
	asset, ok := matchAsset(assets, patterns)
	if !ok {
		names := make([]string, 0, len(assets))
		for _, a := range assets {
			names = append(names, a.Name)
		}
		logger.Debug("[DEBUG] Available assets: %s\n", strings.Join(names, ", "))
		return Artifact{}, notFound(p.Tool, ver, key,
			fmt.Errorf("no asset matches %s", strings.Join(patterns, " | ")))
	}
	logger.Debug("[DEBUG] Selected asset: %s\n", asset.Name)

	a := Artifact{URL: asset.URL, Filename: asset.Name}
	if sig := p.SignatureSuffix; sig != "" {
		if s, ok := findAsset(assets, asset.Name+sig); ok {
			a.SignatureURL = s.URL
		}
	}
	a.ExpectedChecksum = p.sidecarChecksum(ctx, assets, asset.Name)
	if !a.HasChecksum() {
		logger.Debug("[DEBUG] No checksum published for %s\n", asset.Name)
	}
	return a, nil
}

// matchAsset returns the first asset, in listing order, matching the first
// pattern that matches anything.
func matchAsset(assets []release.Asset, patterns []string) (release.Asset, bool) {
	for _, pattern := range patterns {
		var hits []release.Asset
		for _, a := range assets {
			if ok, _ := path.Match(pattern, a.Name); ok {
				hits = append(hits, a)
			}
		}
		if len(hits) == 0 {
			continue
		}
		if len(hits) > 1 {
			ignored := make([]string, 0, len(hits)-1)
			for _, h := range hits[1:] {
				ignored = append(ignored, h.Name)
			}
			logger.Debug("[DEBUG] Pattern %q matched %d assets, using %s, ignoring %s\n",
				pattern, len(hits), hits[0].Name, strings.Join(ignored, ", "))
		}
		return hits[0], true
	}
	return release.Asset{}, false
}

func findAsset(assets []release.Asset, name string) (release.Asset, bool) {
	for _, a := range assets {
		if a.Name == name {
			return a, true
		}
	}
	return release.Asset{}, false
}

// sidecarChecksum fetches the first checksum file listed alongside the asset
// and returns the digest recorded for it, or "" when there is none.
func (p PatternLocator) sidecarChecksum(ctx context.Context, assets []release.Asset, name string) string {
	if p.Client == nil {
		return ""
	}
	for _, tpl := range checksumSidecars {
		sidecarName := tpl
		if strings.Contains(tpl, "%s") {
			sidecarName = fmt.Sprintf(tpl, name)
		}
		sidecar, ok := findAsset(assets, sidecarName)
		if !ok {
			continue
		}
		data, err := p.Client.GetBytes(ctx, sidecar.URL, nil)
		if err != nil {
			logger.Warn("[WARN] Failed to fetch checksum file %s: %v\n", sidecar.Name, err)
			continue
		}
		if sum := ParseChecksumFile(data, name); sum != "" {
			logger.Debug("[DEBUG] Checksum for %s taken from %s\n", name, sidecar.Name)
			return sum
		}
	}
	return ""
}

// ParseChecksumFile extracts the digest for filename from sha256sum-style
// output ("<hex>  <name>" or "<hex> *<name>"). A file holding a single bare
// digest is taken to describe filename.
func ParseChecksumFile(data []byte, filename string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines [][]string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		lines = append(lines, fields)
	}
	for _, fields := range lines {
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimPrefix(fields[len(fields)-1], "*")
		if name == filename || path.Base(name) == filename {
			return strings.ToLower(fields[0])
		}
	}
	if len(lines) == 1 && len(lines[0]) == 1 {
		return strings.ToLower(lines[0][0])
	}
	return ""
}

// FirstOf tries each locator in turn and returns the first artifact found.
// Only ArtifactNotFound falls through to the next locator.
type FirstOf []Locator

func (f FirstOf) Locate(ctx context.Context, ver string, key platform.Key) (Artifact, error) {
	var lastErr error
	for _, l := range f {
		a, err := l.Locate(ctx, ver, key)
		if err == nil {
			return a, nil
		}
		if !errs.Is(err, errs.ArtifactNotFound) {
			return Artifact{}, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errs.New(errs.ArtifactNotFound, "no locator configured")
	}
	return Artifact{}, lastErr
}

// notFound reports a locate failure as ArtifactNotFound with enough context
// to look the artifact up by hand.
func notFound(tool, ver string, key platform.Key, err error) error {
	return &errs.Error{
		Kind:     errs.ArtifactNotFound,
		Tool:     tool,
		Version:  ver,
		Platform: key.String(),
		Err:      err,
	}
}
