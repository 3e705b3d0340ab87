package components

import (
	"math"
	"testing"
)

func TestFlockAgentValidate(t *testing.T) {
	tests := []struct {
		name    string
		agent   FlockAgent
		wantErr bool
	}{
		{"zero value", FlockAgent{}, false},
		{"typical", FlockAgent{SeparationRadius: 1.5, AlignmentRadius: 4, CohesionRadius: 6, NeighborAversionDistance: 1.2}, false},
		{"negative separation", FlockAgent{SeparationRadius: -1}, true},
		{"negative aversion", FlockAgent{NeighborAversionDistance: -0.1}, true},
		{"nan cohesion", FlockAgent{CohesionRadius: math.NaN()}, true},
		{"infinite alignment", FlockAgent{AlignmentRadius: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.agent.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlockAgentMaxRadius(t *testing.T) {
	a := FlockAgent{SeparationRadius: 1, AlignmentRadius: 7, CohesionRadius: 3}
	if got := a.MaxRadius(); got != 7 {
		t.Errorf("MaxRadius() = %v, want 7", got)
	}
}

func TestLocomotionCanFlock(t *testing.T) {
	tests := []struct {
		name string
		loco Locomotion
		want bool
	}{
		{"walking", Locomotion{State: StateWalking}, true},
		{"idle", Locomotion{State: StateIdle}, false},
		{"arrived", Locomotion{State: StateArrived}, false},
		{"walking but falling", Locomotion{State: StateWalking, Faults: FaultFalling}, false},
		{"walking but jumping", Locomotion{State: StateWalking, Faults: FaultJumping}, false},
		{"walking with fault", Locomotion{State: StateWalking, Faults: FaultStuck}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loco.CanFlock(); got != tt.want {
				t.Errorf("CanFlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFaultHas(t *testing.T) {
	f := FaultFalling | FaultStuck
	if !f.Has(FaultFalling) || !f.Has(FaultStuck) {
		t.Error("expected set flags to be reported")
	}
	if f.Has(FaultJumping) {
		t.Error("unexpected jumping flag")
	}
	if StateWalking.String() != "Walking" {
		t.Errorf("unexpected state name %q", StateWalking.String())
	}
}
