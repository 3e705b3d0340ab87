package components

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FlockAgent marks an entity as flocking-capable and holds its perception tunables.
// Values are read-only while the flocking systems run.
type FlockAgent struct {
	SeparationRadius         float64
	AlignmentRadius          float64
	CohesionRadius           float64
	NeighborAversionDistance float64
}

// Validate reports the first negative or non-finite tunable.
func (a FlockAgent) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"separation radius", a.SeparationRadius},
		{"alignment radius", a.AlignmentRadius},
		{"cohesion radius", a.CohesionRadius},
		{"neighbor aversion distance", a.NeighborAversionDistance},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%s must be a non-negative number, got %v", f.name, f.v)
		}
	}
	return nil
}

// MaxRadius returns the largest of the three perception radii.
func (a FlockAgent) MaxRadius() float64 {
	return math.Max(a.SeparationRadius, math.Max(a.AlignmentRadius, a.CohesionRadius))
}

// Steering is the per-agent flocking output record.
// CurrentHeading is an input owned by locomotion; the four steering vectors are
// overwritten by the flocking evaluator every tick the agent is eligible.
type Steering struct {
	CurrentHeading r3.Vec

	Separation        r3.Vec
	Alignment         r3.Vec
	Cohesion          r3.Vec
	NeighborAvoidance r3.Vec

	// Isolated is set when the last evaluation found no neighbor in any radius.
	Isolated bool
}
