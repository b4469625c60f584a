// Package errs defines the failure kinds an install pipeline can end in.
//
// Every kind except UnsupportedPlatform is fatal for a single tool only; the
// orchestrator records it and moves on to the next tool.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// Unknown is returned by KindOf for errors that did not come from the engine.
	Unknown Kind = iota
	// UnsupportedPlatform means no artifact can exist for the host OS/arch.
	UnsupportedPlatform
	// ResolutionFailed means a version spec could not be turned into a concrete version.
	ResolutionFailed
	// ArtifactNotFound means no release artifact matches the version and platform.
	ArtifactNotFound
	// IntegrityError means the downloaded bytes failed checksum or signature checks.
	IntegrityError
	// ActivationFailed means extraction or relinking did not complete.
	ActivationFailed
)

func (k Kind) String() string {
	switch k {
	case UnsupportedPlatform:
		return "UnsupportedPlatform"
	case ResolutionFailed:
		return "ResolutionFailed"
	case ArtifactNotFound:
		return "ArtifactNotFound"
	case IntegrityError:
		return "IntegrityError"
	case ActivationFailed:
		return "ActivationFailed"
	default:
		return "Unknown"
	}
}

// Error carries a Kind plus whatever context is known at the failure point,
// enough for a user to retry the step by hand.
type Error struct {
	Kind     Kind
	Tool     string
	Version  string
	Platform string
	URL      string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	var ctx []string
	if e.Tool != "" {
		ctx = append(ctx, "tool="+e.Tool)
	}
	if e.Version != "" {
		ctx = append(ctx, "version="+e.Version)
	}
	if e.Platform != "" {
		ctx = append(ctx, "platform="+e.Platform)
	}
	if e.URL != "" {
		ctx = append(ctx, "url="+e.URL)
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, " "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind wrapping a formatted cause.
func New(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, a...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// WithTool fills in the tool name on an *Error that does not have one yet.
// Non-engine errors are returned unchanged.
func WithTool(err error, tool string) error {
	var e *Error
	if errors.As(err, &e) && e.Tool == "" {
		e.Tool = tool
	}
	return err
}
