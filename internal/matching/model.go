// Package matching runs the bilateral stable matching between a pool's
// batched resources and a snapshot of empty agents.
package matching

import (
	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/resource"
)

// HubRedirectThreshold is the maximum hub travel time, in seconds, below
// which a dropped-off agent is redirected to the hub instead of idling at
// the resource's original dropoff.
const HubRedirectThreshold int64 = 60

// Pair is one matched (agent, resource) output of a pool close.
type Pair struct {
	Agent    *agent.Agent
	Resource *resource.Resource
	Benefit  float64
	Reach    int64
}

// Result is the full output of one pool close: the matched pairs plus the
// resources that could not be matched this round (because agents ran out)
// and must be pushed back into waiting_resources with a fresh expiration.
type Result struct {
	Pairs       []Pair
	Unmatched   []*resource.Resource
	PoolBenefit float64
}

// benefit computes trip_dist(r) / (trip_dist(r) + approach_dist(a,r)),
// where tripDist is precomputed once per resource by the caller to avoid
// recomputing a resource-only quantity |A| times.
func benefit(m *citymap.Map, agentLoc citymap.LocationOnRoad, r *resource.Resource, tripDist float64) float64 {
	approach := m.Oracle.GreatCircleDistance(m.Coordinate(agentLoc), m.Coordinate(r.Pickup))
	return tripDist / (tripDist + approach)
}

// reachTime computes travel_time(loc_a, pickup_r) via the map's oracle.
func reachTime(m *citymap.Map, agentLoc citymap.LocationOnRoad, r *resource.Resource) int64 {
	return m.Oracle.TravelTime(agentLoc, r.Pickup)
}
