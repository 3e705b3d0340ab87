package telemetry

import (
	"path/filepath"
	"testing"
)

func TestStoreDisabled(t *testing.T) {
	s, err := OpenStore("")
	if err != nil || s != nil {
		t.Fatalf("OpenStore(\"\") = %v, %v; want nil, nil", s, err)
	}
	if _, err := s.BeginRun(1, 1, nil); err != nil {
		t.Errorf("BeginRun on nil: %v", err)
	}
	if err := s.InsertWindow(WindowStats{}); err != nil {
		t.Errorf("InsertWindow on nil: %v", err)
	}
	if err := s.InsertBookmark(Bookmark{}); err != nil {
		t.Errorf("InsertBookmark on nil: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	if err := s.InsertWindow(WindowStats{}); err == nil {
		t.Error("InsertWindow before BeginRun should fail")
	}

	runID, err := s.BeginRun(42, 300, []byte("flocking:\n  cell_size: 8\n"))
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if runID == 0 || s.RunID() != runID {
		t.Fatalf("run id = %d, RunID() = %d", runID, s.RunID())
	}

	windows := []WindowStats{
		{WindowStartTick: 600, WindowEndTick: 1200, Agents: 300, CohesionMean: 4.5, AvoidanceTriggers: 7},
		{WindowStartTick: 0, WindowEndTick: 600, Agents: 300, CohesionMean: 2.5, AvoidanceRate: 0.1},
	}
	for _, w := range windows {
		if err := s.InsertWindow(w); err != nil {
			t.Fatalf("InsertWindow: %v", err)
		}
	}

	got, err := s.Windows(runID)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d windows, want 2", len(got))
	}
	if got[0] != windows[1] || got[1] != windows[0] {
		t.Errorf("windows not returned in tick order: %+v", got)
	}

	// A second run keeps its windows apart
	second, err := s.BeginRun(7, 10, nil)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if second == runID {
		t.Errorf("second run reused id %d", runID)
	}
	other, err := s.Windows(second)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("new run has %d windows, want 0", len(other))
	}
}

func TestStoreBookmarks(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	if err := s.InsertBookmark(Bookmark{Type: BookmarkCrowding}); err == nil {
		t.Error("InsertBookmark before BeginRun should fail")
	}

	runID, err := s.BeginRun(1, 50, nil)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	want := []Bookmark{
		{Type: BookmarkCrowding, Tick: 600, Description: "crowded"},
		{Type: BookmarkAvoidanceSpike, Tick: 1200, Description: "spike"},
	}
	for _, b := range []Bookmark{want[1], want[0]} {
		if err := s.InsertBookmark(b); err != nil {
			t.Fatalf("InsertBookmark: %v", err)
		}
	}

	got, err := s.Bookmarks(runID)
	if err != nil {
		t.Fatalf("Bookmarks: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d bookmarks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bookmark %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
