package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 800, -200, 200)

	if cam.X != 0 || cam.Z != 0 {
		t.Errorf("expected camera at (0, 0), got (%f, %f)", cam.X, cam.Z)
	}
	// 800 px over a 400 unit arena
	if cam.Zoom != 2 || cam.MinZoom != 2 {
		t.Errorf("expected zoom 2, got %f (min %f)", cam.Zoom, cam.MinZoom)
	}
	if cam.MaxZoom != 32 {
		t.Errorf("expected max zoom 32, got %f", cam.MaxZoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 800, -200, 200)

	sx, sy := cam.WorldToScreen(0, 0)
	if !near(sx, 640) || !near(sy, 400) {
		t.Errorf("expected screen center (640, 400), got (%f, %f)", sx, sy)
	}

	// The arena's near edge touches the top of the screen at fit zoom
	_, sy = cam.WorldToScreen(0, -200)
	if !near(sy, 0) {
		t.Errorf("expected arena edge at y=0, got %f", sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 800, -200, 200)
	cam.SetZoom(3.5)
	cam.Pan(120, -40)

	testCases := []struct{ sx, sy float32 }{
		{640, 400},
		{100, 100},
		{1200, 700},
	}

	for _, tc := range testCases {
		wx, wz := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wz)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wz, sx, sy)
		}
	}
}

func TestPanStaysInArena(t *testing.T) {
	cam := New(1280, 800, -200, 200)

	cam.Pan(-10000, 10000)
	if cam.X != -200 || cam.Z != 200 {
		t.Errorf("expected center clamped to (-200, 200), got (%f, %f)", cam.X, cam.Z)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 800, -200, 200)

	tests := []struct {
		name string
		zoom float32
		want float32
	}{
		{"below min", 0.1, 2},
		{"in range", 5, 5},
		{"above max", 100, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetZoom(tt.zoom)
			if cam.Zoom != tt.want {
				t.Errorf("SetZoom(%f) = %f, want %f", tt.zoom, cam.Zoom, tt.want)
			}
		})
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(1280, 800, -200, 200)

	wx, wz := cam.ScreenToWorld(900, 300)
	cam.ZoomAt(900, 300, 2)

	sx, sy := cam.WorldToScreen(wx, wz)
	if !near(sx, 900) || !near(sy, 300) {
		t.Errorf("anchor moved to (%f, %f)", sx, sy)
	}
	if cam.Zoom != 4 {
		t.Errorf("expected zoom 4, got %f", cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 800, -200, 200)
	cam.SetZoom(4) // 320 x 200 units visible

	if !cam.IsVisible(0, 0, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(180, 0, 1) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(170, 0, 20) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestResizeKeepsZoomRange(t *testing.T) {
	cam := New(1280, 800, -200, 200)
	cam.Resize(400, 400)

	if cam.MinZoom != 1 || cam.MaxZoom != 16 {
		t.Errorf("expected zoom range [1, 16], got [%f, %f]", cam.MinZoom, cam.MaxZoom)
	}
	if cam.Zoom != 2 {
		t.Errorf("expected zoom kept at 2, got %f", cam.Zoom)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 800, -200, 200)
	cam.Pan(300, 300)
	cam.SetZoom(10)

	cam.Reset()

	if cam.X != 0 || cam.Z != 0 || cam.Zoom != 2 {
		t.Errorf("expected (0, 0) at zoom 2, got (%f, %f) at %f", cam.X, cam.Z, cam.Zoom)
	}
}
