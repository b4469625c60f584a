package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageCarriesContext(t *testing.T) {
	err := &Error{
		Kind:     ArtifactNotFound,
		Tool:     "zig",
		Version:  "0.13.0",
		Platform: "x86_64-linux",
		URL:      "https://ziglang.org/download/index.json",
		Err:      errors.New("no entry"),
	}

	msg := err.Error()
	for _, want := range []string{"ArtifactNotFound", "tool=zig", "version=0.13.0", "platform=x86_64-linux", "index.json", "no entry"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(IntegrityError, "checksum mismatch")
	wrapped := fmt.Errorf("install zig: %w", base)

	if got := KindOf(wrapped); got != IntegrityError {
		t.Errorf("KindOf = %v, want IntegrityError", got)
	}
	if !Is(wrapped, IntegrityError) {
		t.Error("Is(wrapped, IntegrityError) = false")
	}
	if got := KindOf(errors.New("plain")); got != Unknown {
		t.Errorf("KindOf(plain) = %v, want Unknown", got)
	}
}

func TestWithToolDoesNotOverwrite(t *testing.T) {
	err := &Error{Kind: ResolutionFailed, Tool: "zls"}
	_ = WithTool(err, "zig")
	if err.Tool != "zls" {
		t.Errorf("Tool = %q, want zls", err.Tool)
	}

	fresh := New(ResolutionFailed, "boom")
	_ = WithTool(fresh, "go")
	if fresh.Tool != "go" {
		t.Errorf("Tool = %q, want go", fresh.Tool)
	}
}
