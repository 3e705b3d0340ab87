package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/systems"
)

// sliderSpec binds one slider to a settings field.
type sliderSpec struct {
	label    string
	min, max float32
	field    func(*systems.FlockingSettings) *float64
}

var flockSliders = []sliderSpec{
	{"Separation", 0, 5, func(s *systems.FlockingSettings) *float64 { return &s.SeparationWeight }},
	{"Alignment", 0, 5, func(s *systems.FlockingSettings) *float64 { return &s.AlignmentWeight }},
	{"Cohesion", 0, 5, func(s *systems.FlockingSettings) *float64 { return &s.CohesionWeight }},
	{"Avoidance", 0, 10, func(s *systems.FlockingSettings) *float64 { return &s.NeighborAvoidanceStrength }},
}

// TuningPanel edits the process-wide flocking settings at runtime.
type TuningPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewTuningPanel creates a tuning panel.
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition moves the panel.
func (p *TuningPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Toggle switches panel visibility.
func (p *TuningPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Height returns the drawn panel height.
func (p *TuningPanel) Height() int32 {
	th := p.renderer.Theme
	return th.Padding*2 + 22 + int32(len(flockSliders))*36 + 24
}

// Contains reports whether a screen point falls on the panel, so clicks
// on it are not treated as world clicks.
func (p *TuningPanel) Contains(sx, sy float32) bool {
	if !p.visible {
		return false
	}
	return sx >= float32(p.x) && sx <= float32(p.x+p.width) &&
		sy >= float32(p.y) && sy <= float32(p.y+p.Height())
}

// Draw renders the sliders and returns the possibly edited settings and
// whether anything changed.
func (p *TuningPanel) Draw(s systems.FlockingSettings) (systems.FlockingSettings, bool) {
	if !p.visible {
		return s, false
	}

	r := p.renderer
	th := r.Theme
	r.DrawPanel(p.x, p.y, p.width, p.Height())

	x := float32(p.x + th.Padding)
	y := float32(p.y + th.Padding)
	sliderW := float32(p.width-th.Padding*2) - 50

	rl.DrawText("Flocking [F]", int32(x), int32(y), 16, rl.White)
	y += 22

	changed := false
	for _, spec := range flockSliders {
		v := spec.field(&s)

		rl.DrawText(spec.label, int32(x), int32(y), th.FontSize, th.LabelColor)
		y += 14
		next := gui.SliderBar(
			rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 16},
			"", "",
			float32(*v), spec.min, spec.max,
		)
		rl.DrawText(fmt.Sprintf("%.2f", *v), int32(x+sliderW+8), int32(y+2), th.FontSize, th.ValueColor)
		if next != float32(*v) {
			*v = float64(next)
			changed = true
		}
		y += 22
	}

	debug := gui.CheckBox(rl.Rectangle{X: x, Y: y + 2, Width: 14, Height: 14}, "Avoidance debug", s.Debug)
	if debug != s.Debug {
		s.Debug = debug
		changed = true
	}

	return s, changed
}
