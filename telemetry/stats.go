package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-" db:"window_start"`
	WindowEndTick   int32   `csv:"window_end" db:"window_end"`
	SimTimeSec      float64 `csv:"sim_time" db:"sim_time"`

	// Population
	Agents       int     `csv:"agents" db:"agents"`
	EligibleMean float64 `csv:"eligible_mean" db:"eligible_mean"` // flocking agents per tick
	Spawned      int     `csv:"spawned" db:"spawned"`
	Despawned    int     `csv:"despawned" db:"despawned"`
	Skipped      int     `csv:"skipped_no_transform" db:"skipped_no_transform"`

	// Grid occupancy at window end
	OccupiedCells int `csv:"occupied_cells" db:"occupied_cells"`
	MaxBucket     int `csv:"max_bucket" db:"max_bucket"`

	// Neighbor counts over every evaluation in the window
	SeparationMean float64 `csv:"separation_mean" db:"separation_mean"`
	SeparationStd  float64 `csv:"separation_std" db:"separation_std"`
	AlignmentMean  float64 `csv:"alignment_mean" db:"alignment_mean"`
	AlignmentStd   float64 `csv:"alignment_std" db:"alignment_std"`
	CohesionMean   float64 `csv:"cohesion_mean" db:"cohesion_mean"`
	CohesionStd    float64 `csv:"cohesion_std" db:"cohesion_std"`
	CohesionP90    float64 `csv:"cohesion_p90" db:"cohesion_p90"`

	// Events during window
	Evaluations       int     `csv:"evaluations" db:"evaluations"`
	AvoidanceTriggers int     `csv:"avoidance_triggers" db:"avoidance_triggers"`
	AvoidanceRate     float64 `csv:"avoidance_rate" db:"avoidance_rate"`
	IsolatedFraction  float64 `csv:"isolated_fraction" db:"isolated_fraction"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// SortedPercentile is Percentile over a sorted copy of values.
func SortedPercentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Percentile(sorted, p)
}

// neighborHistogram counts evaluations by neighbor count. Index is the
// neighbor count, value the number of evaluations that saw it.
type neighborHistogram struct {
	counts []float64
	total  int
}

func (h *neighborHistogram) add(n int) {
	if n < 0 {
		n = 0
	}
	for len(h.counts) <= n {
		h.counts = append(h.counts, 0)
	}
	h.counts[n]++
	h.total++
}

func (h *neighborHistogram) reset() {
	clear(h.counts)
	h.counts = h.counts[:0]
	h.total = 0
}

// meanStd matches MeanStd over the expanded samples.
func (h *neighborHistogram) meanStd() (mean, std float64) {
	switch h.total {
	case 0:
		return 0, 0
	case 1:
		return h.valueAt(0), 0
	}
	x := make([]float64, len(h.counts))
	for i := range x {
		x[i] = float64(i)
	}
	return stat.MeanStdDev(x, h.counts)
}

// percentile matches Percentile over the expanded, sorted samples.
func (h *neighborHistogram) percentile(p float64) float64 {
	n := h.total
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return h.valueAt(0)
	}
	if p >= 1 {
		return h.valueAt(n - 1)
	}
	idx := p * float64(n-1)
	lo := int(idx)
	if lo+1 >= n {
		return h.valueAt(n - 1)
	}
	frac := idx - float64(lo)
	return h.valueAt(lo)*(1-frac) + h.valueAt(lo+1)*frac
}

// valueAt returns the rank-th smallest sample.
func (h *neighborHistogram) valueAt(rank int) float64 {
	cum := 0
	for v, c := range h.counts {
		cum += int(c)
		if rank < cum {
			return float64(v)
		}
	}
	return float64(len(h.counts) - 1)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Float64("eligible_mean", s.EligibleMean),
		slog.Int("spawned", s.Spawned),
		slog.Int("despawned", s.Despawned),
		slog.Int("skipped_no_transform", s.Skipped),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("max_bucket", s.MaxBucket),
		slog.Float64("separation_mean", s.SeparationMean),
		slog.Float64("alignment_mean", s.AlignmentMean),
		slog.Float64("cohesion_mean", s.CohesionMean),
		slog.Float64("cohesion_p90", s.CohesionP90),
		slog.Int("evaluations", s.Evaluations),
		slog.Int("avoidance_triggers", s.AvoidanceTriggers),
		slog.Float64("avoidance_rate", s.AvoidanceRate),
		slog.Float64("isolated_fraction", s.IsolatedFraction),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
