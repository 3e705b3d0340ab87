package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
)

func vecNear(a, b r3.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func hasNaN(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

var testSettings = FlockingSettings{
	CellSize:                  testCellSize,
	CellZMultiplier:           testZMul,
	SeparationWeight:          2,
	AlignmentWeight:           0.5,
	CohesionWeight:            1.5,
	NeighborAvoidanceStrength: 3,
}

func TestSafeNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   r3.Vec
		want r3.Vec
	}{
		{"zero", r3.Vec{}, r3.Vec{}},
		{"axis", r3.Vec{X: 5}, r3.Vec{X: 1}},
		{"3-4-5", r3.Vec{X: 3, Z: 4}, r3.Vec{X: 0.6, Z: 0.8}},
		{"infinite", r3.Vec{X: math.Inf(1)}, r3.Vec{}},
		{"nan", r3.Vec{Y: math.NaN()}, r3.Vec{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeNormalize(tt.in)
			if !vecNear(got, tt.want, 1e-12) {
				t.Errorf("SafeNormalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvaluateFlocking_ThreeAgentScenario(t *testing.T) {
	ents := newTestEntities(t, 3)
	heading := r3.Vec{Z: 1}
	agent := components.FlockAgent{SeparationRadius: 2}

	records := []AgentRecord{
		{Entity: ents[0], Position: r3.Vec{X: 0}},
		{Entity: ents[1], Position: r3.Vec{X: 1}},
		{Entity: ents[2], Position: r3.Vec{X: 10}},
	}
	g := NewSpatialHash(testCellSize, testZMul)
	g.Build(records)

	eval := func(i int) FlockResult {
		return EvaluateFlocking(g, FlockQuery{
			Entity:   records[i].Entity,
			Position: records[i].Position,
			Heading:  heading,
			Agent:    agent,
		}, testSettings)
	}

	first := eval(0)
	if first.SeparationNeighbors != 1 {
		t.Errorf("agent 1: expected 1 separation neighbor, got %d", first.SeparationNeighbors)
	}
	if want := (r3.Vec{X: -testSettings.SeparationWeight}); !vecNear(first.Separation, want, 1e-9) {
		t.Errorf("agent 1: separation = %v, want %v", first.Separation, want)
	}

	second := eval(1)
	if second.SeparationNeighbors != 1 {
		t.Errorf("agent 2: expected 1 separation neighbor, got %d", second.SeparationNeighbors)
	}
	if want := (r3.Vec{X: testSettings.SeparationWeight}); !vecNear(second.Separation, want, 1e-9) {
		t.Errorf("agent 2: separation = %v, want %v", second.Separation, want)
	}

	third := eval(2)
	if third.SeparationNeighbors != 0 {
		t.Errorf("agent 3: expected no separation neighbors, got %d", third.SeparationNeighbors)
	}
	if want := r3.Scale(testSettings.SeparationWeight, heading); !vecNear(third.Separation, want, 1e-9) {
		t.Errorf("agent 3: separation = %v, want heading fallback %v", third.Separation, want)
	}
}

func TestEvaluateFlocking_ZeroNeighborFallback(t *testing.T) {
	ents := newTestEntities(t, 1)
	g := NewSpatialHash(testCellSize, testZMul)
	pos := r3.Vec{X: 2, Z: 2}
	g.Build([]AgentRecord{{Entity: ents[0], Position: pos}})

	heading := r3.Vec{X: 3, Z: 4}
	res := EvaluateFlocking(g, FlockQuery{
		Entity:   ents[0],
		Position: pos,
		Heading:  heading,
		Agent: components.FlockAgent{
			SeparationRadius:         5,
			AlignmentRadius:          10,
			CohesionRadius:           15,
			NeighborAversionDistance: 2,
		},
	}, testSettings)

	unit := r3.Vec{X: 0.6, Z: 0.8}
	if want := r3.Scale(testSettings.SeparationWeight, unit); !vecNear(res.Separation, want, 1e-9) {
		t.Errorf("separation = %v, want %v", res.Separation, want)
	}
	if want := r3.Scale(testSettings.AlignmentWeight, unit); !vecNear(res.Alignment, want, 1e-9) {
		t.Errorf("alignment = %v, want %v", res.Alignment, want)
	}
	if !vecNear(res.Cohesion, r3.Vec{}, 0) {
		t.Errorf("cohesion = %v, want zero", res.Cohesion)
	}
	if res.NeighborAvoidance != heading {
		t.Errorf("avoidance = %v, want current heading %v", res.NeighborAvoidance, heading)
	}
	if !res.Isolated() || res.HasClosest || res.Avoiding {
		t.Errorf("expected isolated result, got %+v", res)
	}
}

func TestEvaluateFlocking_ZeroHeadingNeverNaN(t *testing.T) {
	ents := newTestEntities(t, 1)
	g := NewSpatialHash(testCellSize, testZMul)
	g.Build(nil)

	res := EvaluateFlocking(g, FlockQuery{
		Entity: ents[0],
		Agent:  components.FlockAgent{SeparationRadius: 1, AlignmentRadius: 1, CohesionRadius: 1},
	}, testSettings)

	for name, v := range map[string]r3.Vec{
		"separation": res.Separation,
		"alignment":  res.Alignment,
		"cohesion":   res.Cohesion,
		"avoidance":  res.NeighborAvoidance,
	} {
		if hasNaN(v) {
			t.Errorf("%s is NaN: %v", name, v)
		}
	}
}

func TestEvaluateFlocking_AvoidanceThreshold(t *testing.T) {
	tests := []struct {
		name      string
		distance  float64
		aversion  float64
		wantAvoid bool
	}{
		{"sqrt below aversion", 1.0, 1.5, true},
		{"boundary is exclusive", 4.0, 2.0, false},
		{"just inside boundary", 3.9, 2.0, true},
		{"far neighbor", 4.0, 1.0, false},
		{"zero aversion", 0.25, 0, false},
	}

	heading := r3.Vec{Z: -1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ents := newTestEntities(t, 2)
			own := r3.Vec{X: 0.5, Z: 0.5}
			other := r3.Vec{X: 0.5 + tt.distance, Z: 0.5}

			g := NewSpatialHash(testCellSize, testZMul)
			g.Build([]AgentRecord{
				{Entity: ents[0], Position: own},
				{Entity: ents[1], Position: other},
			})

			res := EvaluateFlocking(g, FlockQuery{
				Entity:   ents[0],
				Position: own,
				Heading:  heading,
				Agent:    components.FlockAgent{NeighborAversionDistance: tt.aversion},
			}, testSettings)

			if !res.HasClosest || math.Abs(res.ClosestDistance-tt.distance) > 1e-9 {
				t.Fatalf("closest distance = %v (found %v), want %v", res.ClosestDistance, res.HasClosest, tt.distance)
			}
			if res.Avoiding != tt.wantAvoid {
				t.Errorf("avoiding = %v, want %v", res.Avoiding, tt.wantAvoid)
			}

			want := heading
			if tt.wantAvoid {
				want = r3.Vec{X: -testSettings.NeighborAvoidanceStrength}
			}
			if !vecNear(res.NeighborAvoidance, want, 1e-9) {
				t.Errorf("avoidance = %v, want %v", res.NeighborAvoidance, want)
			}
		})
	}
}

func TestEvaluateFlocking_ClosestAcrossCells(t *testing.T) {
	ents := newTestEntities(t, 3)
	own := r3.Vec{X: 4, Z: 2.5}
	g := NewSpatialHash(testCellSize, testZMul)
	g.Build([]AgentRecord{
		{Entity: ents[0], Position: own},
		{Entity: ents[1], Position: r3.Vec{X: 0, Z: 2.5}}, // same cell, distance 4
		{Entity: ents[2], Position: r3.Vec{X: 7, Z: 2.5}}, // cell k+1, distance 3
	})

	res := EvaluateFlocking(g, FlockQuery{
		Entity:   ents[0],
		Position: own,
		Agent:    components.FlockAgent{NeighborAversionDistance: 2},
	}, testSettings)

	if res.Closest.Entity != ents[2] {
		t.Fatalf("expected closest neighbor from the adjacent cell")
	}
	if math.Abs(res.ClosestDistance-3) > 1e-9 {
		t.Errorf("closest distance = %v, want 3", res.ClosestDistance)
	}
	if want := (r3.Vec{X: -testSettings.NeighborAvoidanceStrength}); !vecNear(res.NeighborAvoidance, want, 1e-9) {
		t.Errorf("avoidance = %v, want %v", res.NeighborAvoidance, want)
	}

	ray, ok := res.Ray(FlockQuery{Entity: ents[0], Position: own})
	if !ok || ray.To != (r3.Vec{X: 7, Z: 2.5}) || ray.From != own {
		t.Errorf("unexpected debug ray %+v (ok=%v)", ray, ok)
	}
}

func TestEvaluateFlocking_SkipsSelfAndCoincident(t *testing.T) {
	ents := newTestEntities(t, 2)
	own := r3.Vec{X: 1, Z: 1}
	g := NewSpatialHash(testCellSize, testZMul)
	g.Build([]AgentRecord{
		{Entity: ents[0], Position: r3.Vec{X: 1.5, Z: 1}}, // stale record of the querying agent
		{Entity: ents[1], Position: own},                  // another agent at the identical position
	})

	heading := r3.Vec{X: 1}
	res := EvaluateFlocking(g, FlockQuery{
		Entity:   ents[0],
		Position: own,
		Heading:  heading,
		Agent:    components.FlockAgent{SeparationRadius: 3, AlignmentRadius: 3, CohesionRadius: 3, NeighborAversionDistance: 3},
	}, testSettings)

	if !res.Isolated() || res.HasClosest {
		t.Errorf("expected no neighbors, got %+v", res)
	}
	if hasNaN(res.Separation) {
		t.Error("separation must not be NaN")
	}
}

func TestEvaluateFlocking_AlignmentAndCohesion(t *testing.T) {
	ents := newTestEntities(t, 3)
	own := r3.Vec{X: 0.5, Z: 0.5}
	g := NewSpatialHash(testCellSize, testZMul)
	g.Build([]AgentRecord{
		{Entity: ents[0], Position: own, Facing: r3.Vec{Z: 1}},
		{Entity: ents[1], Position: r3.Vec{X: 2.5, Z: 0.5}, Facing: r3.Vec{X: 1}},
		{Entity: ents[2], Position: r3.Vec{X: 2.5, Z: 2.5}, Facing: r3.Vec{X: 1}},
	})

	res := EvaluateFlocking(g, FlockQuery{
		Entity:   ents[0],
		Position: own,
		Heading:  r3.Vec{Z: 1},
		Agent:    components.FlockAgent{AlignmentRadius: 4, CohesionRadius: 4},
	}, testSettings)

	if res.AlignmentNeighbors != 2 || res.CohesionNeighbors != 2 {
		t.Fatalf("expected 2 alignment and cohesion neighbors, got %d and %d",
			res.AlignmentNeighbors, res.CohesionNeighbors)
	}
	if want := (r3.Vec{X: testSettings.AlignmentWeight}); !vecNear(res.Alignment, want, 1e-9) {
		t.Errorf("alignment = %v, want %v", res.Alignment, want)
	}

	// Target is (2.5, 0, 1.5); direction from own is (2, 0, 1)/sqrt(5)
	dir := r3.Scale(1/math.Sqrt(5), r3.Vec{X: 2, Z: 1})
	if want := r3.Scale(testSettings.CohesionWeight, dir); !vecNear(res.Cohesion, want, 1e-9) {
		t.Errorf("cohesion = %v, want %v", res.Cohesion, want)
	}
}

func TestFlockResultApplyTo(t *testing.T) {
	heading := r3.Vec{X: 1}
	s := components.Steering{
		CurrentHeading: heading,
		Separation:     r3.Vec{Y: 9},
	}
	res := FlockResult{
		Separation:        r3.Vec{X: 1},
		Alignment:         r3.Vec{X: 2},
		Cohesion:          r3.Vec{X: 3},
		NeighborAvoidance: r3.Vec{X: 4},
	}
	res.ApplyTo(&s)

	if s.CurrentHeading != heading {
		t.Errorf("current heading changed to %v", s.CurrentHeading)
	}
	if s.Separation.X != 1 || s.Separation.Y != 0 || s.Alignment.X != 2 || s.Cohesion.X != 3 || s.NeighborAvoidance.X != 4 {
		t.Errorf("outputs not overwritten: %+v", s)
	}
	if !s.Isolated {
		t.Error("result with no neighbors should mark the steering isolated")
	}
}

func BenchmarkEvaluateFlocking(b *testing.B) {
	records := scatteredRecords(newTestEntities(b, 4096))
	g := NewSpatialHash(testCellSize, testZMul)
	g.Build(records)
	agent := components.FlockAgent{SeparationRadius: 2, AlignmentRadius: 4, CohesionRadius: 6, NeighborAversionDistance: 1.5}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		rec := records[n%len(records)]
		EvaluateFlocking(g, FlockQuery{Entity: rec.Entity, Position: rec.Position, Heading: r3.Vec{X: 1}, Agent: agent}, testSettings)
	}
}
