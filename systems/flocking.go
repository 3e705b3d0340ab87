package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
)

// FlockingSettings holds the process-wide flocking parameters.
// They are read-only while a tick is being evaluated.
type FlockingSettings struct {
	CellSize        float64
	CellZMultiplier int32

	SeparationWeight          float64
	AlignmentWeight           float64
	CohesionWeight            float64
	NeighborAvoidanceStrength float64

	Debug bool // emit a DebugRay whenever avoidance triggers
}

// FlockQuery is the evaluator's read-only view of one querying agent.
type FlockQuery struct {
	Entity   ecs.Entity
	Position r3.Vec
	Heading  r3.Vec // last known heading, used as the zero-neighbor fallback
	Agent    components.FlockAgent
}

// DebugRay is an observational line from an avoiding agent to its closest neighbor.
type DebugRay struct {
	Entity   ecs.Entity
	From, To r3.Vec
}

// FlockResult is the outcome of one agent's neighborhood query.
type FlockResult struct {
	Separation        r3.Vec
	Alignment         r3.Vec
	Cohesion          r3.Vec
	NeighborAvoidance r3.Vec

	SeparationNeighbors int
	AlignmentNeighbors  int
	CohesionNeighbors   int

	HasClosest      bool
	Closest         AgentRecord
	ClosestDistance float64

	Avoiding bool // avoidance steering came from the closest neighbor
}

// ApplyTo overwrites the four steering outputs. CurrentHeading is left untouched.
func (r *FlockResult) ApplyTo(s *components.Steering) {
	s.Separation = r.Separation
	s.Alignment = r.Alignment
	s.Cohesion = r.Cohesion
	s.NeighborAvoidance = r.NeighborAvoidance
	s.Isolated = r.Isolated()
}

// Ray returns the debug ray for an avoiding result.
func (r *FlockResult) Ray(q FlockQuery) (DebugRay, bool) {
	if !r.Avoiding {
		return DebugRay{}, false
	}
	return DebugRay{Entity: q.Entity, From: q.Position, To: r.Closest.Position}, true
}

// Isolated reports whether no neighbor fell inside any of the three radii.
func (r *FlockResult) Isolated() bool {
	return r.SeparationNeighbors == 0 && r.AlignmentNeighbors == 0 && r.CohesionNeighbors == 0
}

// EvaluateFlocking scans the five-cell neighborhood around q and derives its
// separation, alignment, cohesion and neighbor-avoidance steering.
// The grid must be committed; it is only read.
func EvaluateFlocking(grid *SpatialHash, q FlockQuery, s FlockingSettings) FlockResult {
	var (
		res                           FlockResult
		sepSum, alignSum, cohesionSum r3.Vec
	)
	res.ClosestDistance = math.Inf(1)

	for _, key := range grid.Neighborhood(grid.Key(q.Position)) {
		for _, nb := range grid.Cell(key) {
			if nb.Entity == q.Entity || nb.Position == q.Position {
				continue
			}

			away := r3.Sub(q.Position, nb.Position)
			dist := r3.Norm(away)

			if dist < q.Agent.SeparationRadius {
				res.SeparationNeighbors++
				sepSum = r3.Add(sepSum, r3.Scale(1/dist, away))
			}
			if dist < q.Agent.AlignmentRadius {
				res.AlignmentNeighbors++
				alignSum = r3.Add(alignSum, nb.Facing)
			}
			if dist < q.Agent.CohesionRadius {
				res.CohesionNeighbors++
				cohesionSum = r3.Add(cohesionSum, nb.Position)
			}

			// One running minimum across all five cells
			if dist < res.ClosestDistance {
				res.ClosestDistance = dist
				res.Closest = nb
				res.HasClosest = true
			}
		}
	}

	res.Separation = weightedMean(sepSum, res.SeparationNeighbors, q.Heading, s.SeparationWeight)
	res.Alignment = weightedMean(alignSum, res.AlignmentNeighbors, q.Heading, s.AlignmentWeight)

	target := q.Position
	if res.CohesionNeighbors > 0 {
		target = meanOf(cohesionSum, res.CohesionNeighbors)
	}
	res.Cohesion = r3.Scale(s.CohesionWeight, SafeNormalize(r3.Sub(target, q.Position)))

	res.NeighborAvoidance = q.Heading
	if res.HasClosest {
		// The gap takes sqrt of an already-Euclidean distance. Kept for
		// behavioral parity; the units look mismatched.
		gap := math.Sqrt(res.ClosestDistance) - q.Agent.NeighborAversionDistance
		away := r3.Sub(q.Position, res.Closest.Position)
		if gap < 0 && !isZero(away) {
			res.NeighborAvoidance = r3.Scale(s.NeighborAvoidanceStrength, SafeNormalize(away))
			res.Avoiding = true
		}
	}

	return res
}

// weightedMean normalizes the neighbor mean, or the heading when there were
// no neighbors, and scales it by weight.
func weightedMean(sum r3.Vec, count int, heading r3.Vec, weight float64) r3.Vec {
	v := heading
	if count > 0 {
		v = meanOf(sum, count)
	}
	return r3.Scale(weight, SafeNormalize(v))
}
