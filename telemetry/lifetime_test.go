package telemetry

import "testing"

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(1, 10)
	lt.Register(2, 12)

	lt.RecordEvaluation(1, true, false)
	lt.RecordEvaluation(1, false, true)
	lt.RecordEvaluation(1, false, false)
	lt.RecordEvaluation(1, true, false)
	lt.RecordSkipped(2)
	lt.RecordEvaluation(3, true, true) // untracked, ignored

	s := lt.Get(1)
	if s == nil {
		t.Fatal("agent 1 not tracked")
	}
	if s.SpawnTick != 10 || s.FlockedTicks != 4 || s.AvoidanceTicks != 2 || s.IsolatedTicks != 1 {
		t.Errorf("stats = %+v", *s)
	}
	if got := s.AvoidanceRate(); got != 0.5 {
		t.Errorf("AvoidanceRate() = %v, want 0.5", got)
	}
	if s2 := lt.Get(2); s2.SkippedTicks != 1 || s2.AvoidanceRate() != 0 {
		t.Errorf("agent 2 stats = %+v", *s2)
	}

	if removed := lt.Remove(1); removed == nil || removed.FlockedTicks != 4 {
		t.Errorf("Remove returned %+v", removed)
	}
	if lt.Get(1) != nil || lt.Count() != 1 {
		t.Errorf("after remove: count = %d", lt.Count())
	}
}
