package state

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"

	"toolseed/internal/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	st := LoadState(path)
	if _, ok := st.Last(); ok {
		t.Fatal("fresh state has a last run")
	}
	run := Run{
		Started:  started,
		Finished: started.Add(time.Minute),
		Platform: "x86_64-linux",
		Tools: []ToolRun{
			{Tool: "go", Requested: "latest", Version: "1.22.3", Status: "installed"},
			{Tool: "zls", Requested: "auto", Status: "failed", Kind: "ResolutionFailed", Error: "boom"},
		},
	}
	st.Record(run)
	if err := SaveState(path, st); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	got, ok := LoadState(path).Last()
	if !ok {
		t.Fatal("saved run not loaded")
	}
	if !got.Started.Equal(run.Started) || !got.Finished.Equal(run.Finished) {
		t.Errorf("times = %v..%v, want %v..%v", got.Started, got.Finished, run.Started, run.Finished)
	}
	if diff := pretty.Compare(got.Tools, run.Tools); diff != "" {
		t.Errorf("Last().Tools diff (-got +want):\n%s", diff)
	}
	if got.Platform != run.Platform {
		t.Errorf("Platform = %q, want %q", got.Platform, run.Platform)
	}
	if !got.Failed() {
		t.Error("Failed() = false for a run with a failed tool")
	}
}

func TestRecordKeepsNewest(t *testing.T) {
	st := &State{}
	for i := 0; i < MaxRuns+5; i++ {
		st.Record(Run{Platform: string(rune('a' + i))})
	}
	if len(st.Runs) != MaxRuns {
		t.Fatalf("len(Runs) = %d, want %d", len(st.Runs), MaxRuns)
	}
	if last, _ := st.Last(); last.Platform != string(rune('a'+MaxRuns+4)) {
		t.Errorf("Last().Platform = %q", last.Platform)
	}
}

func TestLoadCorruptStateIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if st := LoadState(path); len(st.Runs) != 0 {
		t.Errorf("LoadState() = %+v, want empty", st)
	}
}
