package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_AvoidanceSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), AvoidanceRate: 0.04})
	}

	if bm := bd.Check(WindowStats{WindowEndTick: 3000, AvoidanceRate: 0.05}); hasBookmark(bm, BookmarkAvoidanceSpike) {
		t.Error("modest rise should not bookmark")
	}
	if bm := bd.Check(WindowStats{WindowEndTick: 3600, AvoidanceRate: 0.2}); !hasBookmark(bm, BookmarkAvoidanceSpike) {
		t.Error("expected avoidance_spike bookmark")
	}
}

func TestBookmarkDetector_Crowding(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), MaxBucket: 6})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, MaxBucket: 40})
	if !hasBookmark(bookmarks, BookmarkCrowding) {
		t.Error("expected crowding bookmark")
	}
}

func TestBookmarkDetector_Fragmentation(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), IsolatedFraction: 0.05})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, IsolatedFraction: 0.5})
	if !hasBookmark(bookmarks, BookmarkFragmentation) {
		t.Error("expected fragmentation bookmark")
	}
}

func TestBookmarkDetector_EligibleDrop(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), EligibleMean: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, EligibleMean: 50})
	if !hasBookmark(bookmarks, BookmarkEligibleDrop) {
		t.Fatal("expected eligible_drop bookmark")
	}

	// The peak resets after triggering
	if bm := bd.Check(WindowStats{WindowEndTick: 3600, EligibleMean: 45}); hasBookmark(bm, BookmarkEligibleDrop) {
		t.Error("small follow-up drop should not bookmark again")
	}
}

func TestBookmarkDetector_SteadyFlock(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 600),
			EligibleMean:  100,
			CohesionMean:  5,
		})
		if hasBookmark(bookmarks, BookmarkSteadyFlock) {
			if fired >= 0 {
				t.Fatalf("steady_flock fired twice (windows %d and %d)", fired, i)
			}
			fired = i
		}
	}

	// Counting starts once four windows of history exist
	if fired != 8 {
		t.Errorf("steady_flock fired at window %d, want 8", fired)
	}
}

func TestBookmarkDetector_HistoryOrder(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 7; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i)})
	}

	history := bd.getHistory()
	if len(history) != 5 {
		t.Fatalf("history = %d windows, want 5", len(history))
	}
	for i, h := range history {
		if h.WindowEndTick != int32(i+2) {
			t.Errorf("history[%d] = tick %d, want %d", i, h.WindowEndTick, i+2)
		}
	}
}
