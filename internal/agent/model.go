// Package agent holds per-vehicle state and the ordered set of agents
// currently searching for work.
package agent

import (
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/orderedset"
)

// Phase is the agent's position in the pickup/dropoff state machine.
type Phase string

const (
	// PhaseIntersectionReached means the agent is unassigned and either
	// idling at an intersection or en route between two while searching.
	PhaseIntersectionReached Phase = "intersection_reached"
	// PhasePickingUp means the agent has been matched and is driving
	// (empty) toward its resource's pickup location.
	PhasePickingUp Phase = "picking_up"
	// PhaseDroppingOff means the agent has picked up its resource and is
	// driving toward the dropoff (or hub-redirect) location. It is a
	// transient bookkeeping phase: the kernel enters and leaves it within
	// a single event trigger, since only one event — the dropoff — is
	// ever scheduled for a matched agent.
	PhaseDroppingOff Phase = "dropping_off"
)

// Assignment records the resource an agent has been matched to, along
// with the dropoff-event target already decided by the dispatch
// scheduler (the resource's own dropoff, or a redirect hub).
type Assignment struct {
	ResourceID   ids.ResourceID
	Pickup       citymap.LocationOnRoad
	FinalLoc     citymap.LocationOnRoad
	RedirectedToHub bool
}

// Agent is a vehicle: its identity, current location, phase, and (if
// matched) assignment. NextEventID is the sequence number of the single
// event currently scheduled for this agent, used to cancel it if the
// agent is reassigned or removed before it fires.
type Agent struct {
	ID              ids.AgentID
	Loc             citymap.LocationOnRoad
	Phase           Phase
	StartSearchTime int64
	NextEventTime   int64
	NextEventID     uint64
	Assignment      *Assignment
}

// IsEmpty reports the data-model invariant: an agent belongs in the empty
// set iff it is unassigned and waiting at (or between) intersections.
func (a *Agent) IsEmpty() bool {
	return a.Phase == PhaseIntersectionReached && a.Assignment == nil
}

// EmptySet is the ordered set of agents currently searching for a
// resource, keyed by agent id for deterministic iteration.
type EmptySet struct {
	set *orderedset.Set[ids.AgentID, *Agent]
}

// NewEmptySet creates an empty EmptySet.
func NewEmptySet() *EmptySet {
	return &EmptySet{set: orderedset.New[ids.AgentID, *Agent]()}
}

func (s *EmptySet) Insert(a *Agent) { s.set.Put(a.ID, a) }
func (s *EmptySet) Remove(id ids.AgentID) { s.set.Remove(id) }
func (s *EmptySet) Has(id ids.AgentID) bool { return s.set.Has(id) }
func (s *EmptySet) Len() int { return s.set.Len() }

// Snapshot returns the agents currently empty, in ascending id order, as a
// defensive copy safe to hold across mutation (used to freeze the pool's
// candidate pool at close time).
func (s *EmptySet) Snapshot() []*Agent {
	out := make([]*Agent, 0, s.set.Len())
	s.set.Each(func(_ ids.AgentID, a *Agent) { out = append(out, a) })
	return out
}
