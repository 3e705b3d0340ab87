package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/systems"
)

// updateLocomotion is the reference steering consumer. It blends the four
// steering vectors into a desired heading, turns toward it at a limited rate
// and walks agents across the arena.
func (g *Game) updateLocomotion() {
	cfg := g.cfg
	dt := cfg.Physics.DT
	maxTurn := cfg.Locomotion.MaxTurnRate * dt
	speed := cfg.Locomotion.Speed

	query := g.movingFilter.Query()
	for query.Next() {
		tr, vel, loco, steering := query.Get()

		if !loco.CanFlock() {
			vel.Linear = r3.Vec{}
			continue
		}

		heading := steering.CurrentHeading
		if heading == (r3.Vec{}) {
			heading = tr.Facing
		}

		desired := r3.Add(
			r3.Add(heading, steering.Separation),
			r3.Add(r3.Add(steering.Alignment, steering.Cohesion), steering.NeighborAvoidance),
		)
		desired = r3.Add(desired, g.edgeSteer(tr.Position))

		heading = turnToward(heading, desired, maxTurn)
		vel.Linear = r3.Scale(speed, heading)
		tr.Position = g.clampToArena(r3.Add(tr.Position, r3.Scale(dt, vel.Linear)))
		tr.Facing = heading
		steering.CurrentHeading = heading
	}
}

// edgeSteer pushes agents inward once they come within the edge margin.
func (g *Game) edgeSteer(p r3.Vec) r3.Vec {
	lc := g.cfg.Locomotion
	lo, hi := g.cfg.Derived.ArenaMin+lc.EdgeMargin, g.cfg.Derived.ArenaMax-lc.EdgeMargin

	var push r3.Vec
	switch {
	case p.X < lo:
		push.X = lc.EdgeTurn
	case p.X > hi:
		push.X = -lc.EdgeTurn
	}
	switch {
	case p.Z < lo:
		push.Z = lc.EdgeTurn
	case p.Z > hi:
		push.Z = -lc.EdgeTurn
	}
	return push
}

// clampToArena keeps p inside the square arena.
func (g *Game) clampToArena(p r3.Vec) r3.Vec {
	lo, hi := g.cfg.Derived.ArenaMin, g.cfg.Derived.ArenaMax
	p.X = min(max(p.X, lo), hi)
	p.Z = min(max(p.Z, lo), hi)
	p.Y = 0
	return p
}

// turnToward rotates heading on the XZ plane toward desired by at most
// maxTurn radians and returns a unit vector.
func turnToward(heading, desired r3.Vec, maxTurn float64) r3.Vec {
	h := systems.SafeNormalize(r3.Vec{X: heading.X, Z: heading.Z})
	d := systems.SafeNormalize(r3.Vec{X: desired.X, Z: desired.Z})
	if h == (r3.Vec{}) {
		h = r3.Vec{X: 1}
	}
	if d == (r3.Vec{}) {
		return h
	}

	current := math.Atan2(h.Z, h.X)
	delta := normalizeAngle(math.Atan2(d.Z, d.X) - current)
	delta = min(max(delta, -maxTurn), maxTurn)

	a := current + delta
	return r3.Vec{X: math.Cos(a), Z: math.Sin(a)}
}

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// StateCounts tallies live agents by locomotion state.
func (g *Game) StateCounts() map[components.LocomotionState]int {
	counts := make(map[components.LocomotionState]int, 3)
	query := g.flockFilter.Query()
	for query.Next() {
		_, loco, _ := query.Get()
		counts[loco.State]++
	}
	return counts
}
