package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolseed/internal/errs"
	"toolseed/internal/installer"
	"toolseed/internal/logger"
	"toolseed/internal/recipe"
	"toolseed/internal/release"
)

// ManifestName is the checksum manifest published next to remote recipes.
const ManifestName = "SHA256SUMS"

// Refresher keeps cached recipes in line with a remote recipe directory.
// The manifest is fetched once per Refresher, so once per run.
type Refresher struct {
	Client   *release.Client
	BaseURL  string
	CacheDir string

	fetched     bool
	manifest    []byte
	manifestErr error
}

func (r *Refresher) loadManifest(ctx context.Context) ([]byte, error) {
	if !r.fetched {
		r.fetched = true
		r.manifest, r.manifestErr = r.Client.GetBytes(ctx, r.url(ManifestName), nil)
	}
	return r.manifest, r.manifestErr
}

func (r *Refresher) url(name string) string {
	return strings.TrimSuffix(r.BaseURL, "/") + "/" + name
}

// Refresh makes sure the cached recipe for name matches the remote one.
// A cached copy whose digest matches the manifest is left alone. Otherwise
// the recipe is downloaded, checked against the manifest, validated and
// written atomically. When the manifest itself is unavailable the recipe is
// re-fetched without a digest to check.
func (r *Refresher) Refresh(ctx context.Context, name string) error {
	file := name + ".yaml"
	cachePath := recipe.CachePath(r.CacheDir, name)

	manifest, err := r.loadManifest(ctx)
	want := ""
	if err != nil {
		logger.Warn("[WARN] Recipe manifest unavailable (%v), re-fetching %s\n", err, file)
	} else {
		want = installer.ParseChecksumFile(manifest, file)
		if want == "" {
			logger.Debug("[DEBUG] %s is not published remotely\n", file)
			return nil
		}
		if cached, err := os.ReadFile(cachePath); err == nil && digest(cached) == want {
			logger.Debug("[DEBUG] Cached recipe %s is current\n", file)
			return nil
		}
	}

	data, err := r.Client.GetBytes(ctx, r.url(file), nil)
	if err != nil {
		return fmt.Errorf("fetch recipe %s: %w", file, err)
	}
	if want != "" {
		if got := digest(data); got != want {
			return &errs.Error{
				Kind: errs.IntegrityError,
				Tool: name,
				URL:  r.url(file),
				Err:  fmt.Errorf("recipe checksum mismatch: expected %s, got %s", want, got),
			}
		}
	}
	parsed, err := recipe.Parse(data)
	if err != nil {
		return err
	}
	if parsed.Name != name {
		return fmt.Errorf("recipe %s describes %q", file, parsed.Name)
	}

	if err := writeAtomic(cachePath, data); err != nil {
		return err
	}
	logger.Info("[INFO] Updated recipe %s\n", name)
	return nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create recipe dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
