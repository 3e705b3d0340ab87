package game

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/telemetry"
)

// beginRun registers the run with the store.
func (g *Game) beginRun() error {
	if g.store == nil {
		return nil
	}
	doc, err := g.cfg.YAML()
	if err != nil {
		return err
	}
	runID, err := g.store.BeginRun(g.seed, g.agentCount, doc)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	slog.Info("run started", "run_id", runID, "seed", g.seed, "agents", g.agentCount)
	return nil
}

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleFlock())
	perfStats := g.perf.Stats()

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if err := g.store.InsertWindow(stats); err != nil {
		slog.Error("failed to store window", "error", err)
	}

	for _, b := range g.bookmarks.Check(stats) {
		b.LogBookmark()
		if err := g.store.InsertBookmark(b); err != nil {
			slog.Error("failed to store bookmark", "error", err)
		}
	}
}

// sampleFlock collects population and grid occupancy at window end.
func (g *Game) sampleFlock() telemetry.FlockSample {
	cells, maxBucket := g.grid.Occupancy()
	return telemetry.FlockSample{
		Agents:        g.agentCount,
		OccupiedCells: cells,
		MaxBucket:     maxBucket,
	}
}

// maybeSnapshot saves a snapshot every Telemetry.SnapshotEvery ticks.
func (g *Game) maybeSnapshot() {
	every := g.cfg.Telemetry.SnapshotEvery
	if g.snapshotDir == "" || every <= 0 || int(g.tick)%every != 0 {
		return
	}
	if _, err := g.SaveSnapshot(); err != nil {
		slog.Error("failed to save snapshot", "error", err)
	}
}

// SaveSnapshot writes the current flock state to the snapshot directory.
func (g *Game) SaveSnapshot() (string, error) {
	if g.snapshotDir == "" {
		return "", fmt.Errorf("save snapshot: no snapshot directory")
	}
	path, err := telemetry.SaveSnapshot(g.createSnapshot(), g.snapshotDir)
	if err != nil {
		return "", err
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
	return path, nil
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot() *telemetry.Snapshot {
	s := g.settings
	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       g.seed,
		Tick:       g.tick,
		HalfExtent: g.cfg.World.HalfExtent,
		Settings: telemetry.SnapshotSettings{
			CellSize:                  s.CellSize,
			CellZMultiplier:           s.CellZMultiplier,
			SeparationWeight:          s.SeparationWeight,
			AlignmentWeight:           s.AlignmentWeight,
			CohesionWeight:            s.CohesionWeight,
			NeighborAvoidanceStrength: s.NeighborAvoidanceStrength,
		},
	}

	query := g.flockFilter.Query()
	for query.Next() {
		entity := query.Entity()
		agent, loco, steering := query.Get()

		state := telemetry.AgentState{
			ID:                       entity.ID(),
			State:                    loco.State.String(),
			Faults:                   uint8(loco.Faults),
			SeparationRadius:         agent.SeparationRadius,
			AlignmentRadius:          agent.AlignmentRadius,
			CohesionRadius:           agent.CohesionRadius,
			NeighborAversionDistance: agent.NeighborAversionDistance,
			CurrentHeading:           vec3(steering.CurrentHeading),
			Separation:               vec3(steering.Separation),
			Alignment:                vec3(steering.Alignment),
			Cohesion:                 vec3(steering.Cohesion),
			NeighborAvoidance:        vec3(steering.NeighborAvoidance),
		}
		if g.transformMap.Has(entity) {
			tr := g.transformMap.Get(entity)
			state.Position = vec3(tr.Position)
			state.Facing = vec3(tr.Facing)
		}
		if g.velocityMap.Has(entity) {
			state.Velocity = vec3(g.velocityMap.Get(entity).Linear)
		}

		snapshot.Agents = append(snapshot.Agents, state)
	}

	return snapshot
}

func vec3(v r3.Vec) telemetry.Vec3 {
	return telemetry.Vec3{v.X, v.Y, v.Z}
}
