package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/game"
)

// ColorMode picks how agents are tinted.
type ColorMode int

const (
	ColorPlain ColorMode = iota
	ColorState
	ColorIsolation
)

// Agent colors
var (
	colorWalking  = rl.Color{R: 120, G: 200, B: 255, A: 255}
	colorIdle     = rl.Color{R: 140, G: 140, B: 140, A: 255}
	colorArrived  = rl.Color{R: 120, G: 220, B: 120, A: 255}
	colorFaulted  = rl.Color{R: 230, G: 90, B: 80, A: 255}
	colorIsolated = rl.Color{R: 255, G: 200, B: 60, A: 255}
	colorFlocked  = rl.Color{R: 70, G: 110, B: 160, A: 255}

	colorSeparation = rl.Color{R: 255, G: 90, B: 90, A: 200}
	colorAlignment  = rl.Color{R: 90, G: 200, B: 255, A: 200}
	colorCohesion   = rl.Color{R: 120, G: 230, B: 120, A: 200}
	colorAvoidance  = rl.Color{R: 255, G: 200, B: 60, A: 220}
)

// AgentColor returns the fill color of an agent under mode.
func AgentColor(v game.AgentView, mode ColorMode) rl.Color {
	switch mode {
	case ColorState:
		if v.Locomotion.Faults != 0 {
			return colorFaulted
		}
		switch v.Locomotion.State {
		case components.StateIdle:
			return colorIdle
		case components.StateArrived:
			return colorArrived
		}
		return colorWalking
	case ColorIsolation:
		if v.Steering.Isolated && v.Locomotion.CanFlock() {
			return colorIsolated
		}
		return colorFlocked
	}
	return colorWalking
}

// AgentRenderer draws agents and their steering vectors.
type AgentRenderer struct {
	Size        float32 // agent body radius in world units
	VectorScale float32 // world units per unit of steering
}

// NewAgentRenderer creates an agent renderer.
func NewAgentRenderer(size float32) *AgentRenderer {
	return &AgentRenderer{Size: size, VectorScale: 2 * size}
}

// Draw renders every visible agent as an oriented triangle.
func (r *AgentRenderer) Draw(cam *camera.Camera, views []game.AgentView, mode ColorMode) {
	radius := max(r.Size*cam.Zoom, 2)
	for i := range views {
		v := &views[i]
		p := v.Transform.Position
		if !cam.IsVisible(float32(p.X), float32(p.Z), r.Size*2) {
			continue
		}
		sx, sy := cam.WorldToScreen(float32(p.X), float32(p.Z))
		heading := float32(math.Atan2(v.Transform.Facing.Z, v.Transform.Facing.X))
		drawOrientedTriangle(sx, sy, heading, radius, AgentColor(*v, mode))
	}
}

// DrawSteering renders the four steering vectors of every visible,
// flocking agent.
func (r *AgentRenderer) DrawSteering(cam *camera.Camera, views []game.AgentView) {
	for i := range views {
		v := &views[i]
		if !v.Locomotion.CanFlock() {
			continue
		}
		p := v.Transform.Position
		if !cam.IsVisible(float32(p.X), float32(p.Z), r.VectorScale*3) {
			continue
		}
		r.drawVector(cam, p, v.Steering.Separation, colorSeparation)
		r.drawVector(cam, p, v.Steering.Alignment, colorAlignment)
		r.drawVector(cam, p, v.Steering.Cohesion, colorCohesion)
		r.drawVector(cam, p, v.Steering.NeighborAvoidance, colorAvoidance)
	}
}

// DrawSelection highlights the selected agent and optionally its radii.
func (r *AgentRenderer) DrawSelection(cam *camera.Camera, v game.AgentView, radii bool) {
	p := v.Transform.Position
	sx, sy := cam.WorldToScreen(float32(p.X), float32(p.Z))
	center := rl.Vector2{X: sx, Y: sy}

	rl.DrawCircleLinesV(center, r.Size*cam.Zoom*2.5, rl.White)
	if !radii {
		return
	}
	rl.DrawCircleLinesV(center, float32(v.Agent.SeparationRadius)*cam.Zoom, colorSeparation)
	rl.DrawCircleLinesV(center, float32(v.Agent.AlignmentRadius)*cam.Zoom, colorAlignment)
	rl.DrawCircleLinesV(center, float32(v.Agent.CohesionRadius)*cam.Zoom, colorCohesion)
	rl.DrawCircleLinesV(center, float32(v.Agent.NeighborAversionDistance)*cam.Zoom, colorAvoidance)
}

func (r *AgentRenderer) drawVector(cam *camera.Camera, from, v r3.Vec, color rl.Color) {
	if v == (r3.Vec{}) {
		return
	}
	to := r3.Add(from, r3.Scale(float64(r.VectorScale), v))
	x0, y0 := cam.WorldToScreen(float32(from.X), float32(from.Z))
	x1, y1 := cam.WorldToScreen(float32(to.X), float32(to.Z))
	rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 1.5, color)
}

// drawOrientedTriangle draws a triangle pointing in the heading direction.
func drawOrientedTriangle(x, y, heading, radius float32, color rl.Color) {
	cos := float32(math.Cos(float64(heading)))
	sin := float32(math.Sin(float64(heading)))

	front := rl.Vector2{X: x + cos*radius*1.5, Y: y + sin*radius*1.5}

	backAngle := float64(heading) + math.Pi*0.8
	backLeft := rl.Vector2{X: x + float32(math.Cos(backAngle))*radius, Y: y + float32(math.Sin(backAngle))*radius}

	backAngle = float64(heading) - math.Pi*0.8
	backRight := rl.Vector2{X: x + float32(math.Cos(backAngle))*radius, Y: y + float32(math.Sin(backAngle))*radius}

	// DrawTriangle requires counter-clockwise winding
	rl.DrawTriangle(front, backRight, backLeft, color)
}
