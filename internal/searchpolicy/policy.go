// Package searchpolicy provides the agent's next-road decision while
// empty. It is a small, swappable collaborator: the kernel depends only
// on the Policy interface, never on a concrete strategy, so callers can
// substitute a routed or learned policy without touching the dispatch
// code.
package searchpolicy

import (
	"math/rand"

	"dispatchsim/internal/citymap"
)

// Policy chooses the next road for an empty agent currently at loc to
// continue searching along. Returning an error leaves the agent in its
// current phase rather than crashing the simulation; the caller logs the
// error and schedules no further search event for that agent, which stays
// in the empty set and can still be matched.
type Policy interface {
	NextRoad(m *citymap.Map, loc citymap.LocationOnRoad) (*citymap.Road, error)
}

// RandomWalk is the default policy: at every intersection it picks
// uniformly at random among the outgoing roads, using a dedicated
// *rand.Rand seeded at construction so the walk is reproducible for a
// fixed agent_placement_seed.
type RandomWalk struct {
	rng *rand.Rand
}

// NewRandomWalk builds a RandomWalk seeded deterministically.
func NewRandomWalk(seed int64) *RandomWalk {
	return &RandomWalk{rng: rand.New(rand.NewSource(seed))}
}

// NextRoad picks a road leaving loc's destination intersection (the end
// of loc.Road); loc.TravelTimeFromStart is not consulted. The simulator
// calls it when the agent reaches that intersection, with loc still
// anchored at the start of the road just travelled, or at the dropoff
// location after a delivery.
func (p *RandomWalk) NextRoad(m *citymap.Map, loc citymap.LocationOnRoad) (*citymap.Road, error) {
	outgoing := m.OutgoingRoads(loc.Road.To)
	if len(outgoing) == 0 {
		// Dead end: turn around and head back the way it came.
		return loc.Road, nil
	}
	return outgoing[p.rng.Intn(len(outgoing))], nil
}
