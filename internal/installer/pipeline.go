package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"toolseed/internal/errs"
	"toolseed/internal/logger"
	"toolseed/internal/platform"
	"toolseed/internal/release"
	"toolseed/internal/version"
)

// Tool is everything the engine needs to install one tool.
type Tool struct {
	Name       string
	Vocabulary platform.Vocabulary
	Resolver   version.Resolver
	Locator    Locator
	// Binaries are the entry points published in the bin directory.
	Binaries []string
	// Signature is nil when the tool does not sign its releases.
	Signature SignatureChecker
}

// Outcome is what happened to one tool.
type Outcome struct {
	Tool     string
	Resolved version.Resolved
	Decision Decision
	Artifact Artifact
	Verified VerifiedFile
	Record   ActivationRecord
}

// Engine runs the per-tool pipeline:
// resolve, read installed state, decide, locate, download, verify, activate.
type Engine struct {
	Host      platform.Key
	Activator *Activator
	Client    *release.Client
	CacheDir  string
	Mode      Mode
	Prompter  Prompter
}

// Install brings tool t to the version spec names. primaryVersion is the
// resolved version of the tool t is a companion of, or "".
func (e *Engine) Install(ctx context.Context, t Tool, spec, primaryVersion string) (Outcome, error) {
	out := Outcome{Tool: t.Name}

	key, err := t.Vocabulary.Map(e.Host)
	if err != nil {
		return out, errs.WithTool(err, t.Name)
	}

	resolved, err := t.Resolver.Resolve(ctx, spec, primaryVersion)
	if err != nil {
		return out, errs.WithTool(err, t.Name)
	}
	out.Resolved = resolved
	logger.Info("[INFO] %s: %s resolved to %s (%s)\n", t.Name, resolved.Requested, resolved.Concrete, resolved.Source)

	installed, err := e.Activator.State(t.Name)
	if err != nil {
		return out, &errs.Error{Kind: errs.ActivationFailed, Tool: t.Name, Version: resolved.Concrete, Err: err}
	}

	prompt := e.Prompter
	if hp, ok := prompt.(HuhPrompter); ok && hp.Tool == "" {
		hp.Tool = t.Name
		prompt = hp
	}
	decision, err := Decide(resolved, installed, e.Mode, prompt)
	if err != nil {
		return out, err
	}
	out.Decision = decision
	if decision == Skip {
		logger.Info("[INFO] %s %s already installed, skipping\n", t.Name, resolved.Concrete)
		return out, nil
	}

	artifact, err := t.Locator.Locate(ctx, resolved.Concrete, key)
	if err != nil {
		return out, errs.WithTool(err, t.Name)
	}
	out.Artifact = artifact

	dest := filepath.Join(e.CacheDir, "downloads", t.Name, resolved.Concrete, artifact.Filename)
	logger.Info("[INFO] Downloading %s\n", artifact.URL)
	if err := e.Client.Download(ctx, artifact.URL, dest); err != nil {
		return out, &errs.Error{
			Kind:     errs.ArtifactNotFound,
			Tool:     t.Name,
			Version:  resolved.Concrete,
			Platform: key.String(),
			URL:      artifact.URL,
			Err:      err,
		}
	}
	defer func() {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			logger.Warn("[WARN] Failed to remove download %s: %v\n", dest, err)
		}
	}()

	verified, err := Verify(dest, artifact)
	if err != nil {
		return out, errs.WithTool(err, t.Name)
	}
	if verified.Signed, err = e.checkSignature(ctx, t, artifact, dest); err != nil {
		os.Remove(dest)
		return out, &errs.Error{Kind: errs.IntegrityError, Tool: t.Name, Version: resolved.Concrete, URL: artifact.SignatureURL, Err: err}
	}
	out.Verified = verified

	rec, err := e.Activator.Activate(dest, artifact.Filename, t.Name, resolved.Concrete, t.Binaries)
	if err != nil {
		return out, err
	}
	out.Record = rec
	logger.Info("[INFO] %s %s is active (%s)\n", t.Name, resolved.Concrete, decision)
	return out, nil
}

// checkSignature verifies the detached signature when the tool has one. A
// signature that cannot be fetched is a warning, like a missing checksum; a
// signature that does not verify is an error.
func (e *Engine) checkSignature(ctx context.Context, t Tool, a Artifact, path string) (bool, error) {
	if t.Signature == nil {
		return false, nil
	}
	if a.SignatureURL == "" {
		logger.Warn("[WARN] %s: no signature published for %s\n", t.Name, a.Filename)
		return false, nil
	}
	sig, err := e.Client.GetBytes(ctx, a.SignatureURL, nil)
	if err != nil {
		var se *release.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			logger.Warn("[WARN] %s: signature %s not found, skipping signature check\n", t.Name, a.SignatureURL)
			return false, nil
		}
		logger.Warn("[WARN] %s: failed to fetch signature: %v\n", t.Name, err)
		return false, nil
	}
	if err := t.Signature.Check(path, sig); err != nil {
		return false, fmt.Errorf("signature check for %s: %w", a.Filename, err)
	}
	logger.Debug("[DEBUG] Signature OK for %s\n", a.Filename)
	return true, nil
}
