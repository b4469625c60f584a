package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"toolseed/internal/errs"
	"toolseed/internal/logger"
	"toolseed/internal/version"
)

// Activator unpacks verified artifacts into the layout and switches the
// active version by swapping symlinks. Every link change is a symlink to a
// temporary name followed by rename(2), so readers see either the old or
// the new target and never a missing link.
type Activator struct {
	Layout Layout
}

// State reports which version the canonical link currently points at.
func (a *Activator) State(tool string) (InstalledState, error) {
	link := a.Layout.CurrentLink(tool)
	target, err := os.Readlink(link)
	if os.IsNotExist(err) {
		return InstalledState{}, nil
	}
	if err != nil {
		return InstalledState{}, fmt.Errorf("read %s: %w", link, err)
	}
	// A dangling link counts as not installed.
	if _, err := os.Stat(link); err != nil {
		logger.Warn("[WARN] %s points at missing %s\n", link, target)
		return InstalledState{}, nil
	}
	ver := filepath.Base(target)
	return InstalledState{
		Present: true,
		Version: ver,
		Path:    a.Layout.VersionDir(tool, ver),
	}, nil
}

// Installed lists the versions extracted for tool, lowest first.
func (a *Activator) Installed(tool string) ([]string, error) {
	entries, err := os.ReadDir(a.Layout.ToolDir(tool))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if name == currentName || strings.HasPrefix(name, ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.Layout.ToolDir(tool), name)); err != nil {
			continue
		}
		versions = append(versions, name)
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return version.Compare(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// Activate extracts archive (named filename, which decides the format) as
// tool@ver and makes it the active version, publishing binaries into the bin
// directory. The archive's own name decides how it is unpacked; anything that
// is not an archive is installed as the single binary.
//
// If any step before the first link swap fails, nothing visible changes and
// the staging tree is removed.
func (a *Activator) Activate(archive, filename, tool, ver string, binaries []string) (ActivationRecord, error) {
	fail := func(err error) (ActivationRecord, error) {
		return ActivationRecord{}, &errs.Error{Kind: errs.ActivationFailed, Tool: tool, Version: ver, Err: err}
	}
	if len(binaries) == 0 {
		return fail(fmt.Errorf("no entry points declared"))
	}
	if err := checkVersionName(ver); err != nil {
		return fail(err)
	}

	store := a.Layout.StoreDir(tool)
	if err := os.MkdirAll(store, 0o755); err != nil {
		return fail(fmt.Errorf("create store dir: %w", err))
	}
	staging, err := os.MkdirTemp(store, ver+"-")
	if err != nil {
		return fail(fmt.Errorf("create staging dir: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	logger.Info("[INFO] Extracting %s\n", filename)
	if IsArchive(filename) {
		if err := ExtractArchive(archive, staging); err != nil {
			return fail(fmt.Errorf("extract %s: %w", filename, err))
		}
	} else if err := installBareBinary(archive, staging, binaries[0]); err != nil {
		return fail(fmt.Errorf("install %s: %w", filename, err))
	}

	root, err := contentRoot(staging)
	if err != nil {
		return fail(err)
	}
	rels, err := findExecutables(root, binaries)
	if err != nil {
		return fail(err)
	}
	for _, rel := range rels {
		p := filepath.Join(root, rel)
		if info, err := os.Lstat(p); err == nil && info.Mode().IsRegular() {
			if err := os.Chmod(p, info.Mode().Perm()|0o755); err != nil {
				return fail(err)
			}
		}
	}
	if err := a.checkBinLinks(binaries); err != nil {
		return fail(err)
	}

	toolDir := a.Layout.ToolDir(tool)
	versionDir := a.Layout.VersionDir(tool, ver)
	previous, err := a.detachVersion(tool, ver)
	if err != nil {
		return fail(err)
	}

	relRoot, err := filepath.Rel(toolDir, root)
	if err != nil {
		return fail(err)
	}
	if err := swapLink(versionDir, relRoot); err != nil {
		return fail(err)
	}
	committed = true

	rec, err := a.link(tool, ver, binaries, rels)
	if err != nil {
		return rec, err
	}
	if previous != "" && previous != staging {
		logger.Debug("[DEBUG] Purging replaced tree %s\n", previous)
		if err := os.RemoveAll(previous); err != nil {
			logger.Warn("[WARN] Failed to remove %s: %v\n", previous, err)
		}
	}
	return rec, nil
}

// Use makes an already extracted version active without downloading.
func (a *Activator) Use(tool, ver string, binaries []string) (ActivationRecord, error) {
	if err := checkVersionName(ver); err != nil {
		return ActivationRecord{}, &errs.Error{Kind: errs.ActivationFailed, Tool: tool, Version: ver, Err: err}
	}
	versionDir := a.Layout.VersionDir(tool, ver)
	root, err := filepath.EvalSymlinks(versionDir)
	if err != nil {
		return ActivationRecord{}, &errs.Error{Kind: errs.ActivationFailed, Tool: tool, Version: ver,
			Err: fmt.Errorf("%s@%s is not installed", tool, ver)}
	}
	rels, err := findExecutables(root, binaries)
	if err != nil {
		return ActivationRecord{}, &errs.Error{Kind: errs.ActivationFailed, Tool: tool, Version: ver, Err: err}
	}
	if err := a.checkBinLinks(binaries); err != nil {
		return ActivationRecord{}, &errs.Error{Kind: errs.ActivationFailed, Tool: tool, Version: ver, Err: err}
	}
	return a.link(tool, ver, binaries, rels)
}

// link repoints current at ver, then the bin links at current.
func (a *Activator) link(tool, ver string, binaries []string, rels map[string]string) (ActivationRecord, error) {
	fail := func(err error) (ActivationRecord, error) {
		return ActivationRecord{}, &errs.Error{Kind: errs.ActivationFailed, Tool: tool, Version: ver, Err: err}
	}

	current := a.Layout.CurrentLink(tool)
	if err := swapLink(current, ver); err != nil {
		return fail(err)
	}

	rec := ActivationRecord{
		VersionDir:    a.Layout.VersionDir(tool, ver),
		CanonicalLink: current,
	}
	if err := os.MkdirAll(a.Layout.BinDir, 0o755); err != nil {
		return fail(fmt.Errorf("create bin dir: %w", err))
	}
	for _, name := range binaries {
		binLink := filepath.Join(a.Layout.BinDir, name)
		if err := swapLink(binLink, filepath.Join(current, rels[name])); err != nil {
			return fail(err)
		}
		logger.Debug("[DEBUG] Linked %s -> %s\n", binLink, filepath.Join(current, rels[name]))
		rec.Links = append(rec.Links, binLink)
	}
	return rec, nil
}

// checkBinLinks refuses to replace bin entries that are not symlinks; those
// belong to something else.
func (a *Activator) checkBinLinks(binaries []string) error {
	for _, name := range binaries {
		p := filepath.Join(a.Layout.BinDir, name)
		info, err := os.Lstat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("%s exists and is not a symlink", p)
		}
	}
	return nil
}

// detachVersion returns the store tree <prefix>/<tool>/<ver> resolves to now,
// so it can be purged once the new tree is linked in. A real directory in
// that spot is moved into the store first, as the link swap cannot replace
// a directory.
func (a *Activator) detachVersion(tool, ver string) (string, error) {
	versionDir := a.Layout.VersionDir(tool, ver)
	info, err := os.Lstat(versionDir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	store := a.Layout.StoreDir(tool)
	if info.Mode()&os.ModeSymlink == 0 {
		aside := filepath.Join(store, ver+"-replaced-"+strconv.FormatInt(time.Now().UnixNano(), 10))
		if err := os.Rename(versionDir, aside); err != nil {
			return "", fmt.Errorf("move aside %s: %w", versionDir, err)
		}
		return aside, nil
	}

	target, err := os.Readlink(versionDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(a.Layout.ToolDir(tool), target)
	}
	rel, err := filepath.Rel(store, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", nil
	}
	// Purge the whole staging tree, not just the content root inside it.
	top := strings.SplitN(rel, string(os.PathSeparator), 2)[0]
	return filepath.Join(store, top), nil
}

// checkVersionName rejects names that would not land on a version
// directory of its own, such as "current", "..", or ".store".
func checkVersionName(ver string) error {
	if ver == currentName || !version.WellFormed(ver) {
		return fmt.Errorf("invalid version %q", ver)
	}
	return nil
}

// swapLink points link at target atomically. The temporary link is a dot
// file so an interrupted swap never shows up as a version.
func swapLink(link, target string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(link), fmt.Sprintf(".%s.tmp-%d", filepath.Base(link), time.Now().UnixNano()))
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("create link %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, link); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace link %s: %w", link, err)
	}
	return nil
}
