package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSortedPercentileDoesNotReorder(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	if got := SortedPercentile(values, 0.5); got != 3 {
		t.Errorf("SortedPercentile p50 = %v, want 3", got)
	}
	if values[0] != 5 || values[4] != 3 {
		t.Errorf("input was reordered: %v", values)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.25) // 4 ticks per window

	if c.WindowDurationTicks() != 4 {
		t.Fatalf("WindowDurationTicks = %d, want 4", c.WindowDurationTicks())
	}
	if c.ShouldFlush(3) {
		t.Error("should not flush before the window elapses")
	}
	if !c.ShouldFlush(4) {
		t.Error("should flush once the window elapses")
	}

	c.RecordTick(10, 1)
	c.RecordTick(20, 0)
	c.RecordEvaluation(true, false, 1, 0, 2)
	c.RecordEvaluation(false, true, 1, 0, 4)
	c.RecordEvaluation(false, false, 1, 0, 2)
	c.RecordEvaluation(true, false, 1, 0, 4)
	c.RecordSpawn()
	c.RecordDespawn()

	stats := c.Flush(4, FlockSample{
		Agents:        25,
		OccupiedCells: 6,
		MaxBucket:     4,
	})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 4 {
		t.Errorf("window = [%d, %d], want [0, 4]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.SimTimeSec != 1.0 {
		t.Errorf("SimTimeSec = %v, want 1", stats.SimTimeSec)
	}
	if stats.EligibleMean != 15 {
		t.Errorf("EligibleMean = %v, want 15", stats.EligibleMean)
	}
	if stats.Skipped != 1 || stats.Spawned != 1 || stats.Despawned != 1 {
		t.Errorf("event counts = %d/%d/%d, want 1/1/1", stats.Skipped, stats.Spawned, stats.Despawned)
	}
	if stats.AvoidanceTriggers != 2 || stats.AvoidanceRate != 0.5 {
		t.Errorf("avoidance = %d (%v), want 2 (0.5)", stats.AvoidanceTriggers, stats.AvoidanceRate)
	}
	if stats.IsolatedFraction != 0.25 {
		t.Errorf("IsolatedFraction = %v, want 0.25", stats.IsolatedFraction)
	}
	if stats.SeparationMean != 1 || stats.SeparationStd != 0 {
		t.Errorf("separation = %v±%v, want 1±0", stats.SeparationMean, stats.SeparationStd)
	}
	if stats.CohesionMean != 3 {
		t.Errorf("CohesionMean = %v, want 3", stats.CohesionMean)
	}
	if stats.AlignmentMean != 0 || stats.AlignmentStd != 0 {
		t.Errorf("alignment = %v±%v, want 0±0", stats.AlignmentMean, stats.AlignmentStd)
	}

	// Counters reset for the next window
	next := c.Flush(8, FlockSample{})
	if next.WindowStartTick != 4 || next.Evaluations != 0 || next.EligibleMean != 0 || next.CohesionMean != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollectorNeighborStatsCoverWholeWindow(t *testing.T) {
	c := NewCollector(1.0, 0.5) // 2 ticks per window

	// First tick: a tight pair. Second tick: the pair has split.
	c.RecordTick(2, 0)
	c.RecordEvaluation(false, false, 1, 3, 3)
	c.RecordEvaluation(false, false, 1, 3, 3)
	c.RecordTick(2, 0)
	c.RecordEvaluation(false, true, 0, 0, 0)
	c.RecordEvaluation(false, true, 0, 0, 0)

	stats := c.Flush(2, FlockSample{Agents: 2})

	if stats.SeparationMean != 0.5 || stats.CohesionMean != 1.5 {
		t.Errorf("means = sep %v coh %v, want 0.5 and 1.5", stats.SeparationMean, stats.CohesionMean)
	}
	_, wantStd := MeanStd([]float64{3, 3, 0, 0})
	if math.Abs(stats.CohesionStd-wantStd) > 1e-12 {
		t.Errorf("CohesionStd = %v, want %v", stats.CohesionStd, wantStd)
	}
	if want := Percentile([]float64{0, 0, 3, 3}, 0.9); stats.CohesionP90 != want {
		t.Errorf("CohesionP90 = %v, want %v", stats.CohesionP90, want)
	}
}

func TestNeighborHistogramMatchesSlices(t *testing.T) {
	tests := []struct {
		name    string
		samples []int
	}{
		{"single", []int{4}},
		{"uniform", []int{2, 2, 2}},
		{"spread", []int{0, 1, 1, 5, 2, 7, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h neighborHistogram
			values := make([]float64, len(tt.samples))
			for i, n := range tt.samples {
				h.add(n)
				values[i] = float64(n)
			}

			gotMean, gotStd := h.meanStd()
			wantMean, wantStd := MeanStd(values)
			if math.Abs(gotMean-wantMean) > 1e-12 || math.Abs(gotStd-wantStd) > 1e-12 {
				t.Errorf("meanStd = %v±%v, want %v±%v", gotMean, gotStd, wantMean, wantStd)
			}
			for _, p := range []float64{0, 0.25, 0.5, 0.9, 1} {
				if got, want := h.percentile(p), SortedPercentile(values, p); math.Abs(got-want) > 1e-12 {
					t.Errorf("percentile(%v) = %v, want %v", p, got, want)
				}
			}
		})
	}
}
