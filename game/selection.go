package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/telemetry"
)

// AgentView is a read-only copy of one agent for drawing and inspection.
type AgentView struct {
	Entity     ecs.Entity
	Transform  components.Transform
	Steering   components.Steering
	Locomotion components.Locomotion
	Agent      components.FlockAgent

	Lifetime telemetry.LifetimeStats // set by Selected only
}

// AgentViews appends a view of every agent with a transform to dst.
func (g *Game) AgentViews(dst []AgentView) []AgentView {
	query := g.flockFilter.Query()
	for query.Next() {
		entity := query.Entity()
		agent, loco, steering := query.Get()
		if !g.transformMap.Has(entity) {
			continue
		}
		dst = append(dst, AgentView{
			Entity:     entity,
			Transform:  *g.transformMap.Get(entity),
			Steering:   *steering,
			Locomotion: *loco,
			Agent:      *agent,
		})
	}
	return dst
}

// AgentAt returns the agent closest to p on the XZ plane within maxDist.
func (g *Game) AgentAt(p r3.Vec, maxDist float64) (ecs.Entity, bool) {
	var closest ecs.Entity
	closestDist := maxDist
	found := false

	query := g.movingFilter.Query()
	for query.Next() {
		entity := query.Entity()
		tr, _, _, _ := query.Get()

		dist := math.Hypot(tr.Position.X-p.X, tr.Position.Z-p.Z)
		if dist <= closestDist {
			closestDist = dist
			closest = entity
			found = true
		}
	}

	return closest, found
}

// Select marks an agent for inspection.
func (g *Game) Select(e ecs.Entity) {
	g.selected = e
	g.hasSelection = true
}

// ClearSelection drops the inspected agent.
func (g *Game) ClearSelection() {
	g.hasSelection = false
}

// Selected returns the inspected agent's view while it is alive.
func (g *Game) Selected() (AgentView, bool) {
	if !g.hasSelection || !g.world.Alive(g.selected) || !g.transformMap.Has(g.selected) {
		return AgentView{}, false
	}
	e := g.selected
	v := AgentView{
		Entity:     e,
		Transform:  *g.transformMap.Get(e),
		Steering:   *g.steeringMap.Get(e),
		Locomotion: *g.locomotionMap.Get(e),
		Agent:      *g.agentMap.Get(e),
	}
	v.Lifetime, _ = g.Lifetime(e)
	return v, true
}
