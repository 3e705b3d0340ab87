package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Agents   int
	Eligible int
	Walking  int
	Faulted  int
	Tick     int32
	Speed    int
	FPS      int32
	Paused   bool
	Cells    int
	Bucket   int // largest cell
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Flocking: %d | Walking: %d | Faulted: %d", data.Agents, data.Eligible, data.Walking, data.Faulted),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d | Cells: %d (max %d)", data.Tick, data.Speed, data.FPS, data.Cells, data.Bucket),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	th := r.Theme
	height := th.Padding*2 + 40 + int32(len(telemetry.Phases))*(th.LineHeight+2)
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + th.Padding
	y := p.y + th.Padding

	rl.DrawText("Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(
		fmt.Sprintf("Tick %s ±%s | %.0f TPS",
			stats.AvgTickDuration.Round(time.Microsecond),
			stats.StdTickDuration.Round(time.Microsecond),
			stats.TicksPerSecond),
		x, y, th.FontSize, rl.Yellow,
	)
	y += 20

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		y = r.DrawBar(x, y, phase, float32(pct), FieldRange{Min: 0, Max: 100}, p.width-th.Padding*2)
	}
}
