package version

import (
	"context"
	"fmt"
	"strings"

	"toolseed/internal/errs"
	"toolseed/internal/logger"
)

// Source records how a concrete version was obtained.
type Source string

const (
	SourceIndex   Source = "index"
	SourceAPI     Source = "api"
	SourceLiteral Source = "literal"
)

// Resolved is the outcome of resolving one version spec.
type Resolved struct {
	Requested string
	Concrete  string
	Source    Source
}

// Index lists the versions a tool has published.
type Index interface {
	Versions(ctx context.Context) ([]Candidate, error)
}

// Compat answers which companion version goes with a primary tool version.
type Compat interface {
	Compatible(ctx context.Context, primaryVersion string) (string, error)
}

// Resolver resolves specs for one tool. Index backs "latest", Compat backs
// "auto"; either may be nil when the tool does not support that spec.
type Resolver struct {
	Tool   string
	Index  Index
	Compat Compat
}

// Resolve turns spec into a concrete version. primaryVersion is the already
// resolved version of the tool this one is a companion of; it is only used
// for "auto".
func (r Resolver) Resolve(ctx context.Context, spec, primaryVersion string) (Resolved, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = Latest
	}

	switch strings.ToLower(spec) {
	case Latest:
		return r.latest(ctx, spec)
	case Auto:
		return r.auto(ctx, spec, primaryVersion)
	}

	concrete := Clean(spec)
	if !WellFormed(concrete) {
		return Resolved{}, r.fail(spec, fmt.Errorf("%q is not a well-formed version", spec))
	}
	return Resolved{Requested: spec, Concrete: concrete, Source: SourceLiteral}, nil
}

func (r Resolver) latest(ctx context.Context, spec string) (Resolved, error) {
	if r.Index == nil {
		return Resolved{}, r.fail(spec, fmt.Errorf("%s has no version index", r.Tool))
	}
	cands, err := r.Index.Versions(ctx)
	if err != nil {
		return Resolved{}, r.fail(spec, fmt.Errorf("fetch version index: %w", err))
	}
	logger.Debug("[DEBUG] %s: version index lists %d entries\n", r.Tool, len(cands))

	v, ok := Highest(cands)
	if !ok {
		return Resolved{}, r.fail(spec, fmt.Errorf("version index has no stable release"))
	}
	return r.concrete(spec, v, SourceIndex)
}

func (r Resolver) auto(ctx context.Context, spec, primaryVersion string) (Resolved, error) {
	if r.Compat == nil {
		return Resolved{}, r.fail(spec, fmt.Errorf("%s does not support %q", r.Tool, Auto))
	}
	if primaryVersion == "" {
		return Resolved{}, r.fail(spec, fmt.Errorf("%q needs the primary tool's resolved version", Auto))
	}
	v, err := r.Compat.Compatible(ctx, primaryVersion)
	if err != nil {
		return Resolved{}, r.fail(spec, fmt.Errorf("query compatible version for %s: %w", primaryVersion, err))
	}
	return r.concrete(spec, v, SourceAPI)
}

func (r Resolver) concrete(spec, v string, src Source) (Resolved, error) {
	v = Clean(v)
	if !WellFormed(v) {
		return Resolved{}, r.fail(spec, fmt.Errorf("remote returned malformed version %q", v))
	}
	return Resolved{Requested: spec, Concrete: v, Source: src}, nil
}

func (r Resolver) fail(spec string, err error) error {
	return &errs.Error{Kind: errs.ResolutionFailed, Tool: r.Tool, Version: spec, Err: err}
}
