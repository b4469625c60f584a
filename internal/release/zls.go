package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"toolseed/internal/platform"
)

// DefaultZLSSelectURL answers "which ZLS works with this Zig".
const DefaultZLSSelectURL = "https://releases.zigtools.org/v1/zls/select-version"

// DefaultZLSCompatibility only requires runtime compatibility, which is
// what an editor integration needs.
const DefaultZLSCompatibility = "only-runtime"

// ZLSSelect queries the ZLS compatibility endpoint. The last answer is kept
// so Lookup can serve the artifact for the version Compatible returned.
type ZLSSelect struct {
	Client        *Client
	URL           string
	Compatibility string

	last map[string]json.RawMessage
}

// Compatible implements version.Compat.
func (z *ZLSSelect) Compatible(ctx context.Context, zigVersion string) (string, error) {
	base := z.URL
	if base == "" {
		base = DefaultZLSSelectURL
	}
	mode := z.Compatibility
	if mode == "" {
		mode = DefaultZLSCompatibility
	}
	q := url.Values{}
	q.Set("zig_version", zigVersion)
	q.Set("compatibility", mode)

	var body map[string]json.RawMessage
	if err := z.Client.GetJSON(ctx, base+"?"+q.Encode(), nil, &body); err != nil {
		return "", err
	}

	if _, failed := body["code"]; failed {
		var msg string
		_ = json.Unmarshal(body["message"], &msg)
		return "", fmt.Errorf("no ZLS build for zig %s (%s): %s", zigVersion, mode, msg)
	}

	var v string
	if raw, ok := body["version"]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	if v == "" {
		return "", fmt.Errorf("compatibility response for zig %s has no version", zigVersion)
	}
	z.last = body
	return v, nil
}

// Lookup returns the artifact for ver from the last compatibility answer.
// Versions that did not come from Compatible are ErrNotFound, letting the
// caller fall back to another locator.
func (z *ZLSSelect) Lookup(ctx context.Context, ver string, key platform.Key) (Entry, error) {
	if z.last == nil {
		return Entry{}, fmt.Errorf("zls %s: no compatibility answer: %w", ver, ErrNotFound)
	}
	rel := zigRelease(z.last)
	if rel.version() != ver {
		return Entry{}, fmt.Errorf("zls %s: compatibility answer is for %s: %w", ver, rel.version(), ErrNotFound)
	}
	t, ok := rel.target(key)
	if !ok {
		return Entry{}, fmt.Errorf("zls %s has no tarball for %s: %w", ver, key, ErrNotFound)
	}
	return t.entry(), nil
}
