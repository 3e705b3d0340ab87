// Package components defines ECS components for flocking agents.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Transform is an agent's world transform.
// Agents without one are not ready yet and are skipped by the flocking systems.
type Transform struct {
	Position r3.Vec
	Facing   r3.Vec // heading reference, unit length on the XZ plane
}

// Velocity represents an agent's linear velocity in world units per second.
type Velocity struct {
	Linear r3.Vec
}
