package installer

import "path/filepath"

// Mode controls whether reinstalling the installed version asks first.
type Mode string

const (
	// ModeAuto never prompts; an already-installed version is reinstalled.
	ModeAuto Mode = "auto"
	// ModeInteractive asks before reinstalling an already-installed version.
	ModeInteractive Mode = "interactive"
)

// Artifact is a downloadable release file for one tool, version and
// platform. An empty ExpectedChecksum means upstream publishes none, which
// is different from a checksum that was verified.
type Artifact struct {
	URL              string
	Filename         string
	ExpectedChecksum string
	// SignatureURL points at a detached signature, when the tool signs releases.
	SignatureURL string
}

// HasChecksum reports whether the artifact carries an expected digest.
func (a Artifact) HasChecksum() bool {
	return a.ExpectedChecksum != ""
}

// VerifiedFile is a download that passed integrity checks. Checked is false
// when no expected checksum was available and the file was used as-is.
type VerifiedFile struct {
	Path     string
	Checksum string
	Checked  bool
	Signed   bool
}

// InstalledState is what the filesystem says about a tool right now.
type InstalledState struct {
	Present bool
	Version string
	Path    string
}

// ActivationRecord describes a completed activation.
type ActivationRecord struct {
	// VersionDir is <prefix>/<tool>/<version>.
	VersionDir string
	// CanonicalLink is <prefix>/<tool>/current, pointing at VersionDir.
	CanonicalLink string
	// Links are the entry points published in the bin directory.
	Links []string
}

// Layout is the on-disk arrangement of installed toolchains:
//
//	<prefix>/<tool>/.store/<version>-<id>/   extracted trees
//	<prefix>/<tool>/<version>                link to the tree for that version
//	<prefix>/<tool>/current                  canonical link to <version>
//	<bindir>/<binary>                        link to <prefix>/<tool>/current/<path>
type Layout struct {
	Prefix string
	BinDir string
}

const (
	currentName = "current"
	storeName   = ".store"
)

func (l Layout) ToolDir(tool string) string {
	return filepath.Join(l.Prefix, tool)
}

func (l Layout) VersionDir(tool, version string) string {
	return filepath.Join(l.Prefix, tool, version)
}

func (l Layout) CurrentLink(tool string) string {
	return filepath.Join(l.Prefix, tool, currentName)
}

func (l Layout) StoreDir(tool string) string {
	return filepath.Join(l.Prefix, tool, storeName)
}
