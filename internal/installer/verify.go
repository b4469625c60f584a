package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"toolseed/internal/errs"
	"toolseed/internal/logger"
)

// Verify checks the file at path against the artifact's expected SHA-256.
// On mismatch the file is removed and an IntegrityError returned, so a bad
// download can never reach activation. An artifact without a checksum is
// passed through with a warning and Checked left false.
func Verify(path string, a Artifact) (VerifiedFile, error) {
	actual, err := fileSHA256(path)
	if err != nil {
		return VerifiedFile{}, &errs.Error{
			Kind: errs.IntegrityError,
			URL:  a.URL,
			Err:  fmt.Errorf("calculate checksum: %w", err),
		}
	}

	vf := VerifiedFile{Path: path, Checksum: actual}
	if !a.HasChecksum() {
		logger.Warn("[WARN] No checksum published for %s, skipping verification\n", a.Filename)
		return vf, nil
	}

	expected := strings.ToLower(strings.TrimSpace(a.ExpectedChecksum))
	if actual != expected {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("[WARN] Failed to remove %s: %v\n", path, rmErr)
		}
		return VerifiedFile{}, &errs.Error{
			Kind: errs.IntegrityError,
			URL:  a.URL,
			Err:  fmt.Errorf("checksum mismatch for %s: expected %s, got %s", a.Filename, expected, actual),
		}
	}

	logger.Debug("[DEBUG] Checksum OK for %s: %s\n", a.Filename, actual)
	vf.Checked = true
	return vf, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
