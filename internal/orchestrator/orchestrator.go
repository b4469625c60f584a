// Package orchestrator runs the install pipeline over every requested tool,
// one after another, and collects the outcome of each into a Report.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolseed/internal/config"
	"toolseed/internal/errs"
	"toolseed/internal/installer"
	"toolseed/internal/logger"
	"toolseed/internal/platform"
	"toolseed/internal/recipe"
	"toolseed/internal/state"
	"toolseed/internal/version"
)

// Status is the final state of one tool in a run.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Entry is one line of the report.
type Entry struct {
	Tool      string
	Requested string
	Version   string
	Status    Status
	Decision  installer.Decision
	Err       error
}

// Report is the outcome of a run.
type Report struct {
	Platform platform.Key
	Started  time.Time
	Finished time.Time
	Entries  []Entry
}

// Failed reports whether any tool failed.
func (r Report) Failed() bool {
	for _, e := range r.Entries {
		if e.Status == StatusFailed {
			return true
		}
	}
	return false
}

// History converts the report into its persisted form.
func (r Report) History() state.Run {
	run := state.Run{Started: r.Started, Finished: r.Finished, Platform: r.Platform.String()}
	for _, e := range r.Entries {
		tr := state.ToolRun{Tool: e.Tool, Requested: e.Requested, Version: e.Version, Status: string(e.Status)}
		if e.Err != nil {
			tr.Error = e.Err.Error()
			tr.Kind = errs.KindOf(e.Err).String()
		}
		run.Tools = append(run.Tools, tr)
	}
	return run
}

// Installer is the per-tool pipeline.
type Installer interface {
	Install(ctx context.Context, t installer.Tool, spec, primaryVersion string) (installer.Outcome, error)
}

// Recipes finds the recipe for a tool name.
type Recipes interface {
	Lookup(name string) (recipe.Recipe, error)
}

// Orchestrator sequences tool installs.
type Orchestrator struct {
	Engine   Installer
	Platform platform.Key
	Recipes  Recipes
	Env      recipe.Env
	// Refresher updates cached recipes before they are used. Nil means the
	// catalog is used as it is.
	Refresher *Refresher
	Now       func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run installs every request in order. A failing tool is recorded and the
// run moves on; companions run right after their primary.
func (o *Orchestrator) Run(ctx context.Context, reqs []config.ToolRequest) Report {
	report := Report{Platform: o.Platform, Started: o.now()}

	for _, req := range reqs {
		if !req.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Entries = append(report.Entries, Entry{Tool: req.Name, Requested: req.VersionSpec, Status: StatusFailed, Err: err})
			if comp := req.Companion; comp != nil {
				report.Entries = append(report.Entries, Entry{Tool: comp.Name, Requested: comp.VersionSpec, Status: StatusFailed, Err: err})
			}
			continue
		}

		primary := o.runOne(ctx, req.Name, req.VersionSpec, "", "", req.ExtraArgs)
		report.Entries = append(report.Entries, primary)

		comp := req.Companion
		if comp == nil {
			continue
		}
		if primary.Status == StatusFailed && isAuto(comp.VersionSpec) {
			err := &errs.Error{
				Kind:    errs.ResolutionFailed,
				Tool:    comp.Name,
				Version: comp.VersionSpec,
				Err:     fmt.Errorf("primary tool %s failed", req.Name),
			}
			logger.Error("[ERROR] %s: %v\n", comp.Name, err)
			report.Entries = append(report.Entries, Entry{Tool: comp.Name, Requested: comp.VersionSpec, Status: StatusFailed, Err: err})
			continue
		}
		report.Entries = append(report.Entries, o.runOne(ctx, comp.Name, comp.VersionSpec, primary.Version, comp.Compatibility, nil))
	}

	report.Finished = o.now()
	return report
}

func (o *Orchestrator) runOne(ctx context.Context, name, spec, primaryVersion, compatibility string, extra map[string]string) Entry {
	entry := Entry{Tool: name, Requested: spec}
	fail := func(err error) Entry {
		entry.Status = StatusFailed
		entry.Err = errs.WithTool(err, name)
		logger.Error("[ERROR] %v\n", entry.Err)
		return entry
	}

	if o.Refresher != nil {
		if err := o.Refresher.Refresh(ctx, name); err != nil {
			logger.Warn("[WARN] %s: recipe refresh failed, using local copy: %v\n", name, err)
		}
	}
	r, err := o.Recipes.Lookup(name)
	if err != nil {
		return fail(&errs.Error{Kind: errs.ResolutionFailed, Tool: name, Version: spec, Err: err})
	}
	env := o.Env
	env.Extra = extra
	if compatibility != "" {
		env.Compatibility = compatibility
	}
	tool, err := recipe.Build(r, env)
	if err != nil {
		return fail(&errs.Error{Kind: errs.ResolutionFailed, Tool: name, Version: spec, Err: err})
	}

	out, err := o.Engine.Install(ctx, tool, spec, primaryVersion)
	entry.Version = out.Resolved.Concrete
	entry.Decision = out.Decision
	if err != nil {
		return fail(err)
	}
	if out.Decision == installer.Skip {
		entry.Status = StatusSkipped
	} else {
		entry.Status = StatusInstalled
	}
	return entry
}

func isAuto(spec string) bool {
	return strings.EqualFold(strings.TrimSpace(spec), version.Auto)
}
