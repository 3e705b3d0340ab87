// Package telemetry collects windowed flocking statistics, tick timings,
// snapshots and run records.
package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	// Event counters for current window
	ticks             int
	evaluations       int
	eligibleSum       int
	skipped           int
	avoidanceTriggers int
	isolated          int
	spawned           int
	despawned         int

	separation neighborHistogram
	alignment  neighborHistogram
	cohesion   neighborHistogram
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTick records the size of one tick's eligible set and how many agents
// were skipped for lacking a transform.
func (c *Collector) RecordTick(eligible, skipped int) {
	c.ticks++
	c.eligibleSum += eligible
	c.skipped += skipped
}

// RecordEvaluation records the outcome of one agent's flocking query and the
// neighbor counts it found within each radius.
func (c *Collector) RecordEvaluation(avoiding, isolated bool, separation, alignment, cohesion int) {
	c.evaluations++
	c.separation.add(separation)
	c.alignment.add(alignment)
	c.cohesion.add(cohesion)
	if avoiding {
		c.avoidanceTriggers++
	}
	if isolated {
		c.isolated++
	}
}

// RecordSpawn records an agent entering the world.
func (c *Collector) RecordSpawn() {
	c.spawned++
}

// RecordDespawn records an agent leaving the world.
func (c *Collector) RecordDespawn() {
	c.despawned++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FlockSample is the state sampled at window end.
type FlockSample struct {
	Agents        int // live agents, eligible or not
	OccupiedCells int
	MaxBucket     int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample FlockSample) WindowStats {
	var eligibleMean, avoidanceRate, isolatedFrac float64
	if c.ticks > 0 {
		eligibleMean = float64(c.eligibleSum) / float64(c.ticks)
	}
	if c.evaluations > 0 {
		avoidanceRate = float64(c.avoidanceTriggers) / float64(c.evaluations)
		isolatedFrac = float64(c.isolated) / float64(c.evaluations)
	}

	sepMean, sepStd := c.separation.meanStd()
	alignMean, alignStd := c.alignment.meanStd()
	cohMean, cohStd := c.cohesion.meanStd()

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents:       sample.Agents,
		EligibleMean: eligibleMean,
		Spawned:      c.spawned,
		Despawned:    c.despawned,
		Skipped:      c.skipped,

		OccupiedCells: sample.OccupiedCells,
		MaxBucket:     sample.MaxBucket,

		SeparationMean: sepMean,
		SeparationStd:  sepStd,
		AlignmentMean:  alignMean,
		AlignmentStd:   alignStd,
		CohesionMean:   cohMean,
		CohesionStd:    cohStd,
		CohesionP90:    c.cohesion.percentile(0.9),

		Evaluations:       c.evaluations,
		AvoidanceTriggers: c.avoidanceTriggers,
		AvoidanceRate:     avoidanceRate,
		IsolatedFraction:  isolatedFrac,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.evaluations = 0
	c.eligibleSum = 0
	c.skipped = 0
	c.avoidanceTriggers = 0
	c.isolated = 0
	c.spawned = 0
	c.despawned = 0
	c.separation.reset()
	c.alignment.reset()
	c.cohesion.reset()

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
