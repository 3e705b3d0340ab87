// Package renderer draws the flock viewer: the arena floor, agents and the
// flocking debug overlays.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/flock/camera"
)

// ArenaRenderer draws the square arena floor as noise-tinted tiles.
type ArenaRenderer struct {
	min, max float32
	tileSize float32
	tiles    []rl.Color // row-major, tilesPerSide^2
	perSide  int
}

// NewArenaRenderer precomputes the floor tint for the arena [lo, hi]^2.
func NewArenaRenderer(lo, hi, tileSize float32, seed int64) *ArenaRenderer {
	perSide := int((hi - lo) / tileSize)
	if perSide < 1 {
		perSide = 1
	}
	a := &ArenaRenderer{
		min:      lo,
		max:      hi,
		tileSize: (hi - lo) / float32(perSide),
		perSide:  perSide,
		tiles:    make([]rl.Color, perSide*perSide),
	}

	noise := opensimplex.NewNormalized(seed)
	for tz := 0; tz < perSide; tz++ {
		for tx := 0; tx < perSide; tx++ {
			n := noise.Eval2(float64(tx)*0.12, float64(tz)*0.12)
			a.tiles[tz*perSide+tx] = FloorColor(n)
		}
	}
	return a
}

// FloorColor maps a normalized noise sample to a floor tint.
func FloorColor(n float64) rl.Color {
	n = min(max(n, 0), 1)
	base := uint8(28 + n*22)
	return rl.Color{R: base, G: base + 6, B: base + 4, A: 255}
}

// Draw renders visible floor tiles and the arena border.
func (a *ArenaRenderer) Draw(cam *camera.Camera) {
	for tz := 0; tz < a.perSide; tz++ {
		wz := a.min + float32(tz)*a.tileSize
		for tx := 0; tx < a.perSide; tx++ {
			wx := a.min + float32(tx)*a.tileSize
			half := a.tileSize / 2
			if !cam.IsVisible(wx+half, wz+half, a.tileSize) {
				continue
			}
			sx, sy := cam.WorldToScreen(wx, wz)
			size := a.tileSize*cam.Zoom + 1
			rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: size, Y: size}, a.tiles[tz*a.perSide+tx])
		}
	}

	x0, y0 := cam.WorldToScreen(a.min, a.min)
	x1, y1 := cam.WorldToScreen(a.max, a.max)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 2, rl.Color{R: 90, G: 100, B: 110, A: 255})
}
