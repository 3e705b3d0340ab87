package components

// LocomotionState is the coarse movement state published by the agent life cycle.
type LocomotionState uint8

const (
	StateIdle LocomotionState = iota
	StateWalking
	StateArrived
)

// String returns the display name for a LocomotionState.
func (s LocomotionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWalking:
		return "Walking"
	case StateArrived:
		return "Arrived"
	}
	return "Unknown"
}

// Fault is a bit set of conditions that suspend flocking.
type Fault uint8

const (
	FaultFalling Fault = 1 << iota
	FaultJumping
	FaultStuck // generic navigation fault
)

// Has reports whether all bits in f are set.
func (f Fault) Has(flag Fault) bool {
	return f&flag == flag
}

// Locomotion holds the life-cycle flags the flocking systems read.
type Locomotion struct {
	State  LocomotionState
	Faults Fault
}

// CanFlock reports whether the agent takes part in flocking this tick:
// it must be walking and free of any fault.
func (l Locomotion) CanFlock() bool {
	return l.State == StateWalking && l.Faults == 0
}
