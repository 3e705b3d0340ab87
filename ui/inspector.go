package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/game"
)

func view(data any) game.AgentView {
	return data.(game.AgentView)
}

func vecText(v r3.Vec) string {
	return fmt.Sprintf("(%.2f, %.2f) |%.2f|", v.X, v.Z, r3.Norm(v))
}

func faultText(f components.Fault) string {
	if f == 0 {
		return "none"
	}
	var s string
	for _, fl := range []struct {
		bit  components.Fault
		name string
	}{
		{components.FaultFalling, "falling"},
		{components.FaultJumping, "jumping"},
		{components.FaultStuck, "stuck"},
	} {
		if f.Has(fl.bit) {
			if s != "" {
				s += ","
			}
			s += fl.name
		}
	}
	return s
}

// AgentSections describes the inspector layout for one agent.
func AgentSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID:    "locomotion",
			Title: "Locomotion",
			Fields: []FieldDescriptor{
				{ID: "state", Label: "State", Widget: WidgetText, TextGetter: func(d any) string { return view(d).Locomotion.State.String() }},
				{ID: "faults", Label: "Faults", Widget: WidgetText, TextGetter: func(d any) string { return faultText(view(d).Locomotion.Faults) }},
				{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
					p := view(d).Transform.Position
					return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Z)
				}},
				{ID: "heading", Label: "Heading", Widget: WidgetText, TextGetter: func(d any) string { return vecText(view(d).Steering.CurrentHeading) }},
			},
		},
		{
			ID:    "radii",
			Title: "Radii",
			Fields: []FieldDescriptor{
				{ID: "sep_r", Label: "Separation", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return float32(view(d).Agent.SeparationRadius) }},
				{ID: "align_r", Label: "Alignment", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return float32(view(d).Agent.AlignmentRadius) }},
				{ID: "coh_r", Label: "Cohesion", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return float32(view(d).Agent.CohesionRadius) }},
				{ID: "avert", Label: "Aversion", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return float32(view(d).Agent.NeighborAversionDistance) }},
			},
		},
		{
			ID:    "steering",
			Title: "Steering",
			Fields: []FieldDescriptor{
				{ID: "sep", Label: "Separation", Widget: WidgetText, TextGetter: func(d any) string { return vecText(view(d).Steering.Separation) }},
				{ID: "align", Label: "Alignment", Widget: WidgetText, TextGetter: func(d any) string { return vecText(view(d).Steering.Alignment) }},
				{ID: "coh", Label: "Cohesion", Widget: WidgetText, TextGetter: func(d any) string { return vecText(view(d).Steering.Cohesion) }},
				{ID: "avoid", Label: "Avoidance", Widget: WidgetText, TextGetter: func(d any) string { return vecText(view(d).Steering.NeighborAvoidance) }},
				{ID: "turn", Label: "Turn", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 {
					// Sign of the cross product of heading and avoidance on the XZ plane
					v := view(d)
					h, a := v.Steering.CurrentHeading, v.Steering.NeighborAvoidance
					n := r3.Norm(a) * r3.Norm(h)
					if n == 0 {
						return 0
					}
					return float32((h.Z*a.X - h.X*a.Z) / n)
				}},
				{ID: "isolated", Label: "Isolated", Widget: WidgetText, TextGetter: func(d any) string {
					if view(d).Steering.Isolated {
						return "yes"
					}
					return "no"
				}},
			},
		},
		{
			ID:      "lifetime",
			Title:   "Lifetime",
			Visible: func(d any) bool { return view(d).Lifetime.FlockedTicks > 0 },
			Fields: []FieldDescriptor{
				{ID: "spawned", Label: "Spawned", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("tick %d", view(d).Lifetime.SpawnTick) }},
				{ID: "flocked", Label: "Flocked", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%d ticks", view(d).Lifetime.FlockedTicks) }},
				{ID: "avoid_rate", Label: "Avoiding", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float32 {
					l := view(d).Lifetime
					return float32(l.AvoidanceRate())
				}},
				{ID: "alone", Label: "Isolated", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%d ticks", view(d).Lifetime.IsolatedTicks) }},
			},
		},
	}
}

// Inspector renders the selected agent panel.
type Inspector struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		sections: AgentSections(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for v.
func (ins *Inspector) Draw(v game.AgentView) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding*2 + 22
	for _, sd := range ins.sections {
		height += r.SectionHeight(sd, v)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x := ins.x + padding
	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("Agent #%d", v.Entity.ID()), x, y, 16, rl.White)
	y += 22

	for _, sd := range ins.sections {
		y = r.DrawSection(x, y, sd, v, ins.width-padding*2)
	}
	return y
}
