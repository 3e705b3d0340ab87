// Package camera provides a top-down camera over the XZ arena.
package camera

// Camera controls the viewport into the arena. World X maps to screen X and
// world Z maps to screen Y. Zoom is in pixels per world unit.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Z float32

	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Arena bounds on both axes
	ArenaMin, ArenaMax float32

	MinZoom, MaxZoom float32
}

// New creates a camera centered on the arena, zoomed so the whole arena fits.
func New(viewportW, viewportH, arenaMin, arenaMax float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		ArenaMin:  arenaMin,
		ArenaMax:  arenaMax,
	}
	c.MinZoom = c.fitZoom()
	c.MaxZoom = c.MinZoom * 16
	c.Reset()
	return c
}

// fitZoom is the zoom at which the arena exactly fills the smaller viewport side.
func (c *Camera) fitZoom() float32 {
	size := c.ArenaMax - c.ArenaMin
	if size <= 0 {
		return 1
	}
	return min(c.ViewportW, c.ViewportH) / size
}

// WorldToScreen converts arena coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wz-c.Z)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to arena coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wz = c.Z + (sy-c.ViewportH/2)/c.Zoom
	return wx, wz
}

// IsVisible returns true if a circle at (wx, wz) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wz, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wz-c.Z) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	ratio := c.MaxZoom / c.MinZoom
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fitZoom()
	c.MaxZoom = c.MinZoom * ratio
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays inside the arena.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, c.ArenaMin, c.ArenaMax)
	c.Z = clamp(c.Z+dy/c.Zoom, c.ArenaMin, c.ArenaMax)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the world point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wz := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, nz := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, c.ArenaMin, c.ArenaMax)
	c.Z = clamp(c.Z+wz-nz, c.ArenaMin, c.ArenaMax)
}

// Reset centers the camera on the arena at the fitting zoom.
func (c *Camera) Reset() {
	mid := (c.ArenaMin + c.ArenaMax) / 2
	c.X = mid
	c.Z = mid
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the arena-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
