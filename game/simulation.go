package game

import (
	"log/slog"

	"github.com/pthm-cable/flock/systems"
)

// collectSnapshots gathers every eligible agent into the snapshot array.
// Agents that are walking but have no transform yet are counted as skipped;
// their steering keeps last tick's values.
func (g *Game) collectSnapshots() {
	g.parallel.snapshots = g.parallel.snapshots[:0]
	skipped := 0

	query := g.flockFilter.Query()
	for query.Next() {
		entity := query.Entity()
		agent, loco, steering := query.Get()

		if !loco.CanFlock() {
			continue
		}
		if !g.transformMap.Has(entity) {
			skipped++
			g.lifetimes.RecordSkipped(entity.ID())
			continue
		}
		tr := g.transformMap.Get(entity)

		g.parallel.snapshots = append(g.parallel.snapshots, agentSnapshot{
			Entity:   entity,
			Position: tr.Position,
			Facing:   tr.Facing,
			Heading:  steering.CurrentHeading,
			Agent:    *agent,
		})
	}

	g.lastEligible = len(g.parallel.snapshots)
	g.lastSkipped = skipped
}

// buildGrid rebuilds the spatial hash from the snapshots. It returns only
// after every record is committed.
func (g *Game) buildGrid() {
	g.grid.Reset(g.parallel.numWorkers, len(g.parallel.snapshots))
	g.runPhase(phaseInsert)
	g.grid.Commit()
}

// evaluateFlocking queries the committed grid for every snapshot.
func (g *Game) evaluateFlocking() {
	n := len(g.parallel.snapshots)
	if cap(g.parallel.intents) < n {
		g.parallel.intents = make([]systems.FlockResult, n)
	}
	g.parallel.intents = g.parallel.intents[:n]

	g.runPhase(phaseEvaluate)
}

// applyIntents writes computed steering back to components (single-threaded).
func (g *Game) applyIntents() {
	g.debugRays = g.debugRays[:0]

	for i := range g.parallel.snapshots {
		snap := &g.parallel.snapshots[i]
		res := &g.parallel.intents[i]

		if !g.world.Alive(snap.Entity) {
			continue
		}
		res.ApplyTo(g.steeringMap.Get(snap.Entity))
		g.collector.RecordEvaluation(res.Avoiding, res.Isolated(),
			res.SeparationNeighbors, res.AlignmentNeighbors, res.CohesionNeighbors)
		g.lifetimes.RecordEvaluation(snap.Entity.ID(), res.Avoiding, res.Isolated())

		if !g.settings.Debug {
			continue
		}
		if ray, ok := res.Ray(snap.query()); ok {
			g.debugRays = append(g.debugRays, ray)
			slog.Debug("neighbor avoidance",
				"tick", g.tick,
				"agent", ray.Entity.ID(),
				"neighbor", res.Closest.Entity.ID(),
				"distance", res.ClosestDistance,
			)
		}
	}
}
