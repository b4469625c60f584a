// Package state keeps a history of run reports. It is only read back for
// `toolseed status`; install decisions always come from the filesystem.
package state

import (
	"encoding/json" // For JSON encoding and decoding of the state file
	"fmt"
	"os"
	"path/filepath"
	"time"

	"toolseed/internal/logger"
)

// MaxRuns is how many run reports are kept.
const MaxRuns = 20

// ToolRun records what one run did with one tool.
type ToolRun struct {
	Tool      string `json:"tool"`
	Requested string `json:"requested,omitempty"` // Version spec from the config
	Version   string `json:"version,omitempty"`   // Concrete version, when resolution got that far
	Status    string `json:"status"`              // installed, skipped or failed
	Kind      string `json:"kind,omitempty"`      // Error kind for failed tools
	Error     string `json:"error,omitempty"`
}

// Run is one orchestrator run.
type Run struct {
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Platform string    `json:"platform"`
	Tools    []ToolRun `json:"tools"`
}

// Failed reports whether any tool in the run failed.
func (r Run) Failed() bool {
	for _, t := range r.Tools {
		if t.Status == "failed" {
			return true
		}
	}
	return false
}

// State holds the saved run history, newest last.
type State struct {
	Runs []Run `json:"runs"`
}

// Last returns the most recent run.
func (s *State) Last() (Run, bool) {
	if len(s.Runs) == 0 {
		return Run{}, false
	}
	return s.Runs[len(s.Runs)-1], true
}

// Record appends a run, dropping the oldest beyond MaxRuns.
func (s *State) Record(r Run) {
	s.Runs = append(s.Runs, r)
	if len(s.Runs) > MaxRuns {
		s.Runs = append([]Run(nil), s.Runs[len(s.Runs)-MaxRuns:]...)
	}
}

// LoadState loads the saved state from a JSON file at the given path.
// A missing file is an empty history; an unreadable one is logged and also
// treated as empty, since the history never drives installs.
func LoadState(path string) *State {
	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("[WARN] Failed to read state file %s: %v\n", path, err)
		}
		return &State{}
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		logger.Warn("[WARN] Ignoring corrupt state file %s: %v\n", path, err)
		return &State{}
	}
	return &st
}

// SaveState writes st to path as indented JSON, through a temp file and a
// rename so a crash never leaves a truncated file.
func SaveState(path string, st *State) error {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	logger.Debug("[DEBUG] Writing state to %s (%d runs)\n", path, len(st.Runs))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, file, 0o644); err != nil {
		return fmt.Errorf("write state file %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write state file %s: %w", path, err)
	}
	return nil
}
