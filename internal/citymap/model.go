// Package citymap holds the immutable road network and the travel-time
// oracle built on top of it. Everything here is read-only once constructed
// and is shared by every other package in the simulator.
package citymap

import "dispatchsim/internal/ids"

// Intersection is a node in the road graph.
type Intersection struct {
	ID  ids.IntersectionID
	Lat float64
	Lng float64
}

// Road is a directed edge between two intersections with a fixed travel
// time in seconds. SpeedReduction (see config) is already baked into
// TravelTime by the loader, so downstream code never rescales it.
type Road struct {
	ID         ids.RoadID
	From       ids.IntersectionID
	To         ids.IntersectionID
	TravelTime int64 // seconds, > 0
}

// LocationOnRoad pins an exact point along a road. TravelTimeFromStart is
// clamped to [0, Road.TravelTime] by every constructor in this package.
type LocationOnRoad struct {
	Road                *Road
	TravelTimeFromStart int64
}

// AtStart returns the location at the beginning of r.
func AtStart(r *Road) LocationOnRoad {
	return LocationOnRoad{Road: r, TravelTimeFromStart: 0}
}

// AtEnd returns the location at the end of r.
func AtEnd(r *Road) LocationOnRoad {
	return LocationOnRoad{Road: r, TravelTimeFromStart: r.TravelTime}
}

// Map is the immutable road network plus the hub list. It is constructed
// once at setup and never mutated afterward; every other component only
// reads from it.
type Map struct {
	Intersections map[ids.IntersectionID]*Intersection
	Roads         []*Road
	outgoing      map[ids.IntersectionID][]*Road
	Hubs          []LocationOnRoad
	Oracle        TravelTimeOracle
}

// OutgoingRoads returns the roads leaving the given intersection, in a
// stable order (the order roads were added to the map).
func (m *Map) OutgoingRoads(i ids.IntersectionID) []*Road {
	return m.outgoing[i]
}

// NewMap builds the adjacency index and precomputed oracle for a freshly
// loaded set of intersections and roads. Hubs are resolved separately via
// SetHubs once the caller knows where they should sit on the graph.
func NewMap(intersections map[ids.IntersectionID]*Intersection, roads []*Road) *Map {
	m := &Map{
		Intersections: intersections,
		Roads:         roads,
		outgoing:      make(map[ids.IntersectionID][]*Road, len(intersections)),
	}
	for _, r := range roads {
		m.outgoing[r.From] = append(m.outgoing[r.From], r)
	}
	m.Oracle = NewPrecomputedOracle(m)
	return m
}

// SetHubs records the canonical idling/parking locations used by the
// dispatch scheduler's hub-redirect decision.
func (m *Map) SetHubs(hubs []LocationOnRoad) {
	m.Hubs = hubs
}

// Coordinate interpolates the lat/lng of a LocationOnRoad linearly between
// its road's endpoints by elapsed travel time. The matcher uses it for the
// great-circle distances behind the benefit score; telemetry snapshots and
// the simulator's live position updates use it as well.
func (m *Map) Coordinate(l LocationOnRoad) ids.Point {
	from := m.Intersections[l.Road.From]
	to := m.Intersections[l.Road.To]
	if l.Road.TravelTime == 0 {
		return ids.Point{Lat: from.Lat, Lng: from.Lng}
	}
	frac := float64(l.TravelTimeFromStart) / float64(l.Road.TravelTime)
	return ids.Point{
		Lat: from.Lat + (to.Lat-from.Lat)*frac,
		Lng: from.Lng + (to.Lng-from.Lng)*frac,
	}
}
