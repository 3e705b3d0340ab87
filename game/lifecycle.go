package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// ErrUnknownAgent is returned for handles that do not name a live agent.
var ErrUnknownAgent = errors.New("unknown agent")

// AgentSpec describes an agent to spawn.
type AgentSpec struct {
	Position r3.Vec
	Facing   r3.Vec // normalized on spawn; zero faces +X
	Agent    components.FlockAgent
	State    components.LocomotionState

	// Deferred spawns have no transform until AttachTransform is called.
	Deferred bool
}

// SpawnAgent creates an agent. The perception tunables are validated first.
func (g *Game) SpawnAgent(spec AgentSpec) (ecs.Entity, error) {
	if err := spec.Agent.Validate(); err != nil {
		return ecs.Entity{}, fmt.Errorf("spawn agent: %w", err)
	}

	facing := flatFacing(spec.Facing)
	vel := components.Velocity{}
	agent := spec.Agent
	loco := components.Locomotion{State: spec.State}
	steering := components.Steering{CurrentHeading: facing}

	var e ecs.Entity
	if spec.Deferred {
		e = g.pendingMapper.NewEntity(&vel, &agent, &loco, &steering)
	} else {
		tr := components.Transform{Position: spec.Position, Facing: facing}
		e = g.agentMapper.NewEntity(&tr, &vel, &agent, &loco, &steering)
	}

	g.agentCount++
	g.collector.RecordSpawn()
	g.lifetimes.Register(e.ID(), g.tick)
	return e, nil
}

// AttachTransform gives a deferred agent its transform.
func (g *Game) AttachTransform(e ecs.Entity, position, facing r3.Vec) error {
	if !g.world.Alive(e) || !g.agentMap.Has(e) {
		return fmt.Errorf("attach transform: %w", ErrUnknownAgent)
	}
	tr := components.Transform{Position: position, Facing: flatFacing(facing)}
	if g.transformMap.Has(e) {
		*g.transformMap.Get(e) = tr
		return nil
	}
	g.transformMap.Add(e, &tr)
	return nil
}

// DespawnAgent removes an agent from the world. Its handle is never reused
// for a different agent.
func (g *Game) DespawnAgent(e ecs.Entity) error {
	if !g.world.Alive(e) || !g.agentMap.Has(e) {
		return fmt.Errorf("despawn agent: %w", ErrUnknownAgent)
	}
	if s := g.lifetimes.Remove(e.ID()); s != nil {
		slog.Debug("agent despawned",
			"agent", e.ID(),
			"lived_ticks", g.tick-s.SpawnTick,
			"flocked_ticks", s.FlockedTicks,
			"avoidance_rate", s.AvoidanceRate(),
			"isolated_ticks", s.IsolatedTicks,
		)
	}
	g.world.RemoveEntity(e)
	g.agentCount--
	g.collector.RecordDespawn()
	return nil
}

// SetLocomotion publishes an agent's life-cycle state and faults.
func (g *Game) SetLocomotion(e ecs.Entity, state components.LocomotionState, faults components.Fault) error {
	if !g.world.Alive(e) || !g.locomotionMap.Has(e) {
		return fmt.Errorf("set locomotion: %w", ErrUnknownAgent)
	}
	*g.locomotionMap.Get(e) = components.Locomotion{State: state, Faults: faults}
	return nil
}

// Steering returns a copy of an agent's steering record.
func (g *Game) Steering(e ecs.Entity) (components.Steering, bool) {
	if !g.world.Alive(e) || !g.steeringMap.Has(e) {
		return components.Steering{}, false
	}
	return *g.steeringMap.Get(e), true
}

// Lifetime returns a copy of an agent's flocking history since spawn.
func (g *Game) Lifetime(e ecs.Entity) (telemetry.LifetimeStats, bool) {
	if !g.world.Alive(e) {
		return telemetry.LifetimeStats{}, false
	}
	s := g.lifetimes.Get(e.ID())
	if s == nil {
		return telemetry.LifetimeStats{}, false
	}
	return *s, true
}

// Transform returns a copy of an agent's transform.
func (g *Game) Transform(e ecs.Entity) (components.Transform, bool) {
	if !g.world.Alive(e) || !g.transformMap.Has(e) {
		return components.Transform{}, false
	}
	return *g.transformMap.Get(e), true
}

// spawnInitialPopulation scatters agents uniformly over the spawn disk.
// Initial facings follow a simplex noise field so nearby agents start
// roughly aligned.
func (g *Game) spawnInitialPopulation() {
	cfg := g.cfg
	noise := opensimplex.NewNormalized(g.seed)
	scale := cfg.Population.FacingNoiseScale

	agent := components.FlockAgent{
		SeparationRadius:         cfg.Agent.SeparationRadius,
		AlignmentRadius:          cfg.Agent.AlignmentRadius,
		CohesionRadius:           cfg.Agent.CohesionRadius,
		NeighborAversionDistance: cfg.Agent.NeighborAversionDistance,
	}

	for i := 0; i < cfg.Population.Initial; i++ {
		r := cfg.Population.SpawnRadius * math.Sqrt(g.rng.Float64())
		theta := g.rng.Float64() * 2 * math.Pi
		pos := r3.Vec{X: r * math.Cos(theta), Z: r * math.Sin(theta)}

		angle := noise.Eval2(pos.X*scale, pos.Z*scale) * 4 * math.Pi
		facing := r3.Vec{X: math.Cos(angle), Z: math.Sin(angle)}

		// Config validation already guarantees non-negative radii
		if _, err := g.SpawnAgent(AgentSpec{
			Position: pos,
			Facing:   facing,
			Agent:    agent,
			State:    components.StateWalking,
		}); err != nil {
			panic(err)
		}
	}
}

// flatFacing projects v onto the XZ plane and normalizes it, falling back to +X.
func flatFacing(v r3.Vec) r3.Vec {
	f := systems.SafeNormalize(r3.Vec{X: v.X, Z: v.Z})
	if f == (r3.Vec{}) {
		return r3.Vec{X: 1}
	}
	return f
}
