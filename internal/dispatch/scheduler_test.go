package dispatch

import (
	"testing"

	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/event"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/matching"
	"dispatchsim/internal/resource"
	"dispatchsim/internal/stats"
)

// threeNodeMap builds 0 -> 1 -> 2, each leg 20 seconds, so an agent
// halfway down the 0->1 leg has a known exact position to reconstruct.
func threeNodeMap(t *testing.T) (*citymap.Map, *citymap.Road, *citymap.Road) {
	t.Helper()
	intersections := map[ids.IntersectionID]*citymap.Intersection{
		0: {ID: 0, Lat: 0, Lng: 0},
		1: {ID: 1, Lat: 0.01, Lng: 0},
		2: {ID: 2, Lat: 0.02, Lng: 0},
	}
	road01 := &citymap.Road{ID: 0, From: 0, To: 1, TravelTime: 20}
	road12 := &citymap.Road{ID: 1, From: 1, To: 2, TravelTime: 20}
	m := citymap.NewMap(intersections, []*citymap.Road{road01, road12})
	return m, road01, road12
}

func newFixtures(t *testing.T) (*citymap.Map, *agent.Agent, *resource.Resource, *event.Queue, *stats.Collector, *agent.EmptySet, *resource.WaitingSet) {
	t.Helper()
	m, road01, road12 := threeNodeMap(t)

	q := event.NewQueue()
	c := &stats.Collector{}
	empty := agent.NewEmptySet()
	waiting := resource.NewWaitingSet()

	a := &agent.Agent{
		ID:              "a1",
		Loc:             citymap.LocationOnRoad{Road: road01, TravelTimeFromStart: 5},
		Phase:           agent.PhaseIntersectionReached,
		StartSearchTime: 0,
		NextEventTime:   20, // agent reaches intersection 1 at t=20
	}
	a.NextEventID = q.Push(event.Event{Time: a.NextEventTime, Kind: event.KindAgent, AgentID: a.ID})
	empty.Insert(a)

	r := &resource.Resource{
		ID:             "r1",
		Pickup:         citymap.AtEnd(road12),
		Dropoff:        citymap.AtStart(road12),
		AvailableTime:  0,
		TripTime:       50,
		ExpirationTime: 1000,
	}
	r.NextEventID = q.Push(event.Event{Time: r.ExpirationTime, Kind: event.KindResource, ResourceID: r.ID, Cause: resource.CauseExpired})
	waiting.Insert(r)

	return m, a, r, q, c, empty, waiting
}

func TestScheduleReconstructsAgentLocationAndRecordsStats(t *testing.T) {
	m, a, r, q, c, empty, waiting := newFixtures(t)

	// Pool closes at t=10, partway along the agent's current road leg:
	// travelToEnd = 20 - 10 = 10, travelFromStart = 20 - 10 = 10.
	const t0 = int64(10)
	pair := matching.Pair{Agent: a, Resource: r, Benefit: 0.75, Reach: 999}

	Schedule(m, q, c, empty, waiting, pair, t0)

	wantLoc := citymap.LocationOnRoad{Road: a.Loc.Road, TravelTimeFromStart: 10}
	if a.Loc != wantLoc {
		t.Errorf("agent location = %+v, want %+v", a.Loc, wantLoc)
	}
	if a.Phase != agent.PhasePickingUp {
		t.Errorf("agent phase = %v, want %v", a.Phase, agent.PhasePickingUp)
	}
	if a.Assignment == nil || a.Assignment.ResourceID != r.ID {
		t.Fatalf("expected assignment to %s, got %+v", r.ID, a.Assignment)
	}
	if a.Assignment.RedirectedToHub {
		t.Errorf("expected no hub redirect with no hubs configured")
	}
	if a.Assignment.FinalLoc != r.Dropoff {
		t.Errorf("final loc = %+v, want resource dropoff %+v", a.Assignment.FinalLoc, r.Dropoff)
	}

	if empty.Has(a.ID) {
		t.Errorf("agent should have been removed from the empty set")
	}
	if waiting.Has(r.ID) {
		t.Errorf("resource should have been removed from the waiting set")
	}

	if c.TotalAssignments != 1 {
		t.Fatalf("TotalAssignments = %d, want 1", c.TotalAssignments)
	}
	wantCruise := t0 - a.StartSearchTime // 10
	if c.SumCruiseTime != wantCruise {
		t.Errorf("SumCruiseTime = %d, want %d", c.SumCruiseTime, wantCruise)
	}
	if c.SumBenefit != pair.Benefit {
		t.Errorf("SumBenefit = %v, want %v", c.SumBenefit, pair.Benefit)
	}

	if q.Len() != 1 {
		t.Fatalf("expected exactly 1 pending event (the dropoff), got %d", q.Len())
	}
	next, ok := q.Peek()
	if !ok || next.Kind != event.KindAgent || next.AgentID != a.ID {
		t.Fatalf("expected the pending event to be the agent's dropoff, got %+v", next)
	}
	if next.Time != a.NextEventTime {
		t.Errorf("queued dropoff time %d does not match agent's recorded NextEventTime %d", next.Time, a.NextEventTime)
	}
}

func TestScheduleRedirectsToNearbyHub(t *testing.T) {
	m, a, r, q, c, empty, waiting := newFixtures(t)

	// Put a hub right at the resource's own dropoff location: travel time
	// from dropoff to hub is 0, well under the redirect threshold.
	m.SetHubs([]citymap.LocationOnRoad{r.Dropoff})

	pair := matching.Pair{Agent: a, Resource: r, Benefit: 0.5, Reach: 1}
	Schedule(m, q, c, empty, waiting, pair, 10)

	if !a.Assignment.RedirectedToHub {
		t.Fatalf("expected hub redirect when a hub sits at the dropoff")
	}
	if a.Assignment.FinalLoc != r.Dropoff {
		t.Errorf("final loc = %+v, want hub at resource dropoff %+v", a.Assignment.FinalLoc, r.Dropoff)
	}
}

func TestScheduleDoesNotRedirectToFarHub(t *testing.T) {
	// Build the map with the extra, far-away intersection present from
	// the start, so the adjacency index includes the long road: a hub
	// reachable only by it sits well beyond the redirect threshold.
	intersections := map[ids.IntersectionID]*citymap.Intersection{
		0:  {ID: 0, Lat: 0, Lng: 0},
		1:  {ID: 1, Lat: 0.01, Lng: 0},
		2:  {ID: 2, Lat: 0.02, Lng: 0},
		99: {ID: 99, Lat: 1, Lng: 1},
	}
	road01 := &citymap.Road{ID: 0, From: 0, To: 1, TravelTime: 20}
	road12 := &citymap.Road{ID: 1, From: 1, To: 2, TravelTime: 20}
	longRoad := &citymap.Road{ID: 99, From: 2, To: 99, TravelTime: 100}
	m := citymap.NewMap(intersections, []*citymap.Road{road01, road12, longRoad})
	m.SetHubs([]citymap.LocationOnRoad{citymap.AtEnd(longRoad)})

	if matching.HubRedirectThreshold >= longRoad.TravelTime {
		t.Fatalf("test fixture invalid: hub travel time must exceed the redirect threshold")
	}

	q := event.NewQueue()
	c := &stats.Collector{}
	empty := agent.NewEmptySet()
	waiting := resource.NewWaitingSet()

	a := &agent.Agent{
		ID:              "a1",
		Loc:             citymap.LocationOnRoad{Road: road01, TravelTimeFromStart: 5},
		Phase:           agent.PhaseIntersectionReached,
		StartSearchTime: 0,
		NextEventTime:   20,
	}
	a.NextEventID = q.Push(event.Event{Time: a.NextEventTime, Kind: event.KindAgent, AgentID: a.ID})
	empty.Insert(a)

	r := &resource.Resource{
		ID:             "r1",
		Pickup:         citymap.AtEnd(road12),
		Dropoff:        citymap.AtStart(road12),
		AvailableTime:  0,
		TripTime:       50,
		ExpirationTime: 1000,
	}
	r.NextEventID = q.Push(event.Event{Time: r.ExpirationTime, Kind: event.KindResource, ResourceID: r.ID, Cause: resource.CauseExpired})
	waiting.Insert(r)

	pair := matching.Pair{Agent: a, Resource: r, Benefit: 0.5, Reach: 1}
	Schedule(m, q, c, empty, waiting, pair, 10)

	if a.Assignment.RedirectedToHub {
		t.Errorf("expected no redirect when the nearest hub exceeds the threshold")
	}
}
