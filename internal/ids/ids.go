// Package ids holds the identity and coordinate value types shared by every
// other package in the simulator. Keeping them in one leaf package avoids
// import cycles between citymap, agent, resource, and matching.
package ids

import "fmt"

// AgentID identifies a vehicle for the lifetime of a simulation run. Being
// string-typed, it tie-breaks lexicographically wherever ordering matters
// (internal/matching's deferred-acceptance tie-break, internal/orderedset's
// iteration order) rather than numerically — "agent-10" sorts before
// "agent-2". Any consistent deterministic order satisfies stability, so
// this doesn't affect matching correctness, but it is a deviation from a
// numeric-id scheme.
type AgentID string

// ResourceID identifies a trip request for the lifetime of a simulation
// run. Same lexicographic tie-break caveat as AgentID.
type ResourceID string

// IntersectionID identifies a node in the road network.
type IntersectionID int64

// RoadID identifies a directed edge in the road network.
type RoadID int64

// RunID identifies one simulation execution, used when persisting or
// reporting results.
type RunID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f,%.6f)", p.Lat, p.Lng)
}
