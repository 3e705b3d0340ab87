package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/systems"
)

// OccupiedCell is one non-empty hash cell in world space.
type OccupiedCell struct {
	X, Z  float32 // min corner
	Count int
}

// OccupiedCells lists the non-empty cells of grid with their world-space
// corners, appending to dst. Keys alias across rows, so the corner is taken
// from the first record in each bucket.
func OccupiedCells(grid *systems.SpatialHash, dst []OccupiedCell) []OccupiedCell {
	size := grid.CellSize()
	grid.ForEachCell(func(_ int32, records []systems.AgentRecord) {
		p := records[0].Position
		dst = append(dst, OccupiedCell{
			X:     float32(math.Floor(p.X/size) * size),
			Z:     float32(math.Floor(p.Z/size) * size),
			Count: len(records),
		})
	})
	return dst
}

// CellShade returns the overlay color of a cell holding count records
// when the fullest cell holds maxCount.
func CellShade(count, maxCount int) rl.Color {
	t := float32(1)
	if maxCount > 1 {
		t = float32(count-1) / float32(maxCount-1)
	}
	return rl.Color{R: uint8(40 + 200*t), G: uint8(120 - 80*t), B: 200, A: uint8(50 + 80*t)}
}

// DebugRenderer draws the spatial hash and avoidance rays.
type DebugRenderer struct {
	cells []OccupiedCell
}

// NewDebugRenderer creates a debug renderer.
func NewDebugRenderer() *DebugRenderer {
	return &DebugRenderer{}
}

// DrawGrid shades every occupied cell by its bucket size.
func (d *DebugRenderer) DrawGrid(cam *camera.Camera, grid *systems.SpatialHash) {
	d.cells = OccupiedCells(grid, d.cells[:0])
	_, maxBucket := grid.Occupancy()
	size := float32(grid.CellSize())

	for _, c := range d.cells {
		if !cam.IsVisible(c.X+size/2, c.Z+size/2, size) {
			continue
		}
		sx, sy := cam.WorldToScreen(c.X, c.Z)
		rect := rl.Rectangle{X: sx, Y: sy, Width: size * cam.Zoom, Height: size * cam.Zoom}
		rl.DrawRectangleRec(rect, CellShade(c.Count, maxBucket))
		rl.DrawRectangleLinesEx(rect, 1, rl.Color{R: 200, G: 200, B: 255, A: 60})
	}
}

// DrawRays renders avoidance rays from each avoiding agent to its closest
// neighbor.
func (d *DebugRenderer) DrawRays(cam *camera.Camera, rays []systems.DebugRay) {
	for _, ray := range rays {
		x0, y0 := cam.WorldToScreen(float32(ray.From.X), float32(ray.From.Z))
		x1, y1 := cam.WorldToScreen(float32(ray.To.X), float32(ray.To.Z))
		rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 1, rl.Red)
	}
}
