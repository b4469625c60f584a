package installer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // maintained fork
	"github.com/jedisct1/go-minisign"
)

// SignatureChecker verifies a detached signature over a downloaded file.
type SignatureChecker interface {
	Check(path string, sig []byte) error
}

// Minisign verifies minisign signatures, as published for Zig and ZLS.
type Minisign struct {
	// PublicKey is the base64 key line (the second line of a .pub file).
	PublicKey string
}

func (m Minisign) Check(path string, sig []byte) error {
	pk, err := minisign.NewPublicKey(strings.TrimSpace(m.PublicKey))
	if err != nil {
		return fmt.Errorf("parse minisign public key: %w", err)
	}
	signature, err := minisign.DecodeSignature(string(sig))
	if err != nil {
		return fmt.Errorf("decode minisign signature: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ok, err := pk.Verify(data, signature)
	if err != nil {
		return fmt.Errorf("minisign verify: %w", err)
	}
	if !ok {
		return fmt.Errorf("minisign signature does not match")
	}
	return nil
}

// PGP verifies OpenPGP detached signatures against an armored public key.
type PGP struct {
	ArmoredKey string
}

func (p PGP) Check(path string, sig []byte) error {
	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(p.ArmoredKey))
	if err != nil {
		return fmt.Errorf("read keyring: %w", err)
	}
	if len(keyring) == 0 {
		return fmt.Errorf("keyring is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Try armored first, then binary.
	if _, err = openpgp.CheckArmoredDetachedSignature(keyring, f, bytes.NewReader(sig), nil); err == nil {
		return nil
	}
	if _, serr := f.Seek(0, 0); serr != nil {
		return serr
	}
	if _, err = openpgp.CheckDetachedSignature(keyring, f, bytes.NewReader(sig), nil); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}
