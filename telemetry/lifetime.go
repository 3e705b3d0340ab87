package telemetry

// LifetimeStats tracks per-agent flocking statistics since spawn.
type LifetimeStats struct {
	SpawnTick int32

	FlockedTicks   int // ticks the agent was evaluated
	AvoidanceTicks int // evaluations that triggered neighbor avoidance
	IsolatedTicks  int // evaluations with no neighbor in any radius
	SkippedTicks   int // ticks the agent was eligible but had no transform
}

// AvoidanceRate returns the share of evaluations that triggered avoidance.
func (s *LifetimeStats) AvoidanceRate() float64 {
	if s.FlockedTicks == 0 {
		return 0
	}
	return float64(s.AvoidanceTicks) / float64(s.FlockedTicks)
}

// LifetimeTracker manages per-agent lifetime statistics keyed by entity ID.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register starts tracking a newly spawned agent.
func (lt *LifetimeTracker) Register(entityID uint32, spawnTick int32) {
	lt.stats[entityID] = &LifetimeStats{SpawnTick: spawnTick}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(entityID uint32) *LifetimeStats {
	return lt.stats[entityID]
}

// Remove removes an agent's stats and returns them (for logging).
func (lt *LifetimeTracker) Remove(entityID uint32) *LifetimeStats {
	stats := lt.stats[entityID]
	delete(lt.stats, entityID)
	return stats
}

// RecordEvaluation counts one flocking evaluation.
func (lt *LifetimeTracker) RecordEvaluation(entityID uint32, avoiding, isolated bool) {
	s := lt.stats[entityID]
	if s == nil {
		return
	}
	s.FlockedTicks++
	if avoiding {
		s.AvoidanceTicks++
	}
	if isolated {
		s.IsolatedTicks++
	}
}

// RecordSkipped counts a tick the agent was skipped for lack of a transform.
func (lt *LifetimeTracker) RecordSkipped(entityID uint32) {
	if s := lt.stats[entityID]; s != nil {
		s.SkippedTicks++
	}
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
