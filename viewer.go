package main

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/ui"
)

const controlsLegend = "[Space] pause  [,/.] speed  [Arrows] pan  [Wheel/+/-] zoom  [Home] reset  [Click] select  [O] overlays  [F] tuning  [S] snapshot"

// viewer is the raylib host around a game.
type viewer struct {
	g *game.Game

	camera *camera.Camera
	arena  *renderer.ArenaRenderer
	agents *renderer.AgentRenderer
	debug  *renderer.DebugRenderer

	overlays  *ui.OverlayRegistry
	hud       *ui.HUD
	perf      *ui.PerfPanel
	tuning    *ui.TuningPanel
	controls  *ui.ControlsPanel
	inspector *ui.Inspector

	views []game.AgentView

	screenWidth, screenHeight float32
}

func newViewer(g *game.Game, seed int64) *viewer {
	cfg := g.Config()
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	lo, hi := float32(cfg.Derived.ArenaMin), float32(cfg.Derived.ArenaMax)

	v := &viewer{
		g:            g,
		camera:       camera.New(w, h, lo, hi),
		arena:        renderer.NewArenaRenderer(lo, hi, float32(cfg.Flocking.CellSize), seed),
		agents:       renderer.NewAgentRenderer(float32(cfg.Agent.NeighborAversionDistance) / 2),
		debug:        renderer.NewDebugRenderer(),
		overlays:     ui.NewOverlayRegistry(),
		hud:          ui.NewHUD(),
		perf:         ui.NewPerfPanel(int32(w)-250, 10, 240),
		tuning:       ui.NewTuningPanel(10, 100, 240),
		controls:     ui.NewControlsPanel(10, 300, 240),
		inspector:    ui.NewInspector(int32(w)-250, 200, 240),
		screenWidth:  w,
		screenHeight: h,
	}
	v.overlays.SetEnabled(ui.OverlayStateTint, true)
	v.overlays.SetEnabled(ui.OverlayRays, g.Settings().Debug)
	return v
}

// handleInput processes keyboard and mouse input.
func (v *viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.g.SetPaused(!v.g.Paused())
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		v.g.SetStepsPerUpdate(v.g.StepsPerUpdate() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.g.SetStepsPerUpdate(v.g.StepsPerUpdate() + 1)
	}

	if rl.IsKeyPressed(rl.KeyO) {
		v.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.tuning.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		if _, err := v.g.SaveSnapshot(); err != nil {
			slog.Warn("snapshot not saved", "error", err)
		}
	}

	if key := rl.GetKeyPressed(); key != 0 {
		if id, on, ok := v.overlays.HandleKeyPress(key); ok && id == ui.OverlayRays {
			v.setDebug(on)
		}
	}

	v.handleCameraInput()
	v.handleSelection()
}

// setDebug mirrors the rays overlay into the flocking debug flag.
func (v *viewer) setDebug(on bool) {
	s := v.g.Settings()
	if s.Debug == on {
		return
	}
	s.Debug = on
	v.g.SetSettings(s)
}

// handleResize checks for window resize and propagates new dimensions.
func (v *viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.camera.Resize(w, h)
	v.perf.SetPosition(int32(w)-250, 10)
	v.inspector.SetPosition(int32(w)-250, 200)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *viewer) handleCameraInput() {
	panSpeed := float32(8.0) // screen pixels per frame

	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		v.camera.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}

// handleSelection picks the agent under a left click.
func (v *viewer) handleSelection() {
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if v.tuning.Contains(mouse.X, mouse.Y) {
		return
	}

	wx, wz := v.camera.ScreenToWorld(mouse.X, mouse.Y)
	pickRadius := float64(12 / v.camera.Zoom)
	if e, ok := v.g.AgentAt(r3.Vec{X: float64(wx), Z: float64(wz)}, pickRadius); ok {
		v.g.Select(e)
		return
	}
	v.g.ClearSelection()
}

// draw renders one frame.
func (v *viewer) draw() {
	v.g.RecordFrame()
	v.views = v.g.AgentViews(v.views[:0])

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	v.arena.Draw(v.camera)

	if v.overlays.IsEnabled(ui.OverlayGrid) {
		v.debug.DrawGrid(v.camera, v.g.Grid())
	}

	mode := renderer.ColorPlain
	switch {
	case v.overlays.IsEnabled(ui.OverlayStateTint):
		mode = renderer.ColorState
	case v.overlays.IsEnabled(ui.OverlayIsolated):
		mode = renderer.ColorIsolation
	}
	v.agents.Draw(v.camera, v.views, mode)

	if v.overlays.IsEnabled(ui.OverlaySteering) {
		v.agents.DrawSteering(v.camera, v.views)
	}
	if v.overlays.IsEnabled(ui.OverlayRays) {
		v.debug.DrawRays(v.camera, v.g.DebugRays())
	}

	selected, hasSelection := v.g.Selected()
	if hasSelection {
		v.agents.DrawSelection(v.camera, selected, v.overlays.IsEnabled(ui.OverlayRadii))
	}

	v.drawUI(selected, hasSelection)

	rl.EndDrawing()
}

func (v *viewer) drawUI(selected game.AgentView, hasSelection bool) {
	counts := v.g.StateCounts()
	faulted := 0
	for i := range v.views {
		if v.views[i].Locomotion.Faults != 0 {
			faulted++
		}
	}
	cells, bucket := v.g.Grid().Occupancy()

	v.hud.Draw(ui.HUDData{
		Title:    "Flock",
		Agents:   v.g.AgentCount(),
		Eligible: v.g.Eligible(),
		Walking:  counts[components.StateWalking],
		Faulted:  faulted,
		Tick:     v.g.Tick(),
		Speed:    v.g.StepsPerUpdate(),
		FPS:      rl.GetFPS(),
		Paused:   v.g.Paused(),
		Cells:    cells,
		Bucket:   bucket,
	})
	v.hud.DrawControls(int32(v.screenHeight), controlsLegend)

	v.perf.Draw(v.g.PerfStats())

	if s, changed := v.tuning.Draw(v.g.Settings()); changed {
		v.g.SetSettings(s)
		v.overlays.SetEnabled(ui.OverlayRays, s.Debug)
	}
	v.controls.SetPosition(10, 110+v.tuning.Height())
	v.controls.Draw(v.overlays)

	if hasSelection {
		v.inspector.Draw(selected)
	}
}
