// Package dispatch turns a matched (agent, resource) pair into updated
// agent/resource state, accumulated statistics, and the single dropoff
// event that carries the agent through pickup and delivery.
package dispatch

import (
	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/event"
	"dispatchsim/internal/matching"
	"dispatchsim/internal/resource"
	"dispatchsim/internal/stats"
)

// Schedule applies one matched pair at pool-close wall time t: it
// reconstructs the agent's exact position, computes the pickup arrival
// time, folds the derived durations into c, removes the agent and
// resource from their respective sets, cancels whatever event either had
// outstanding, and enqueues the single dropoff event that will carry the
// agent from PICKING_UP through DROPPING_OFF back to
// INTERSECTION_REACHED.
//
// Only one event is ever scheduled per match: the PICKING_UP ->
// DROPPING_OFF -> INTERSECTION_REACHED transitions described as separate
// states are all resolved within a single trigger call when that event
// fires, since the dropoff (and any hub redirect) location and time are
// already fully determined here.
func Schedule(m *citymap.Map, q *event.Queue, c *stats.Collector, empty *agent.EmptySet, waiting *resource.WaitingSet, pair matching.Pair, t int64) {
	a, r := pair.Agent, pair.Resource

	travelToEnd := a.NextEventTime - t
	travelFromStart := a.Loc.Road.TravelTime - travelToEnd
	agentLoc := citymap.LocationOnRoad{Road: a.Loc.Road, TravelTimeFromStart: travelFromStart}

	arriveTime := t + m.Oracle.TravelTime(agentLoc, r.Pickup)

	cruiseTime := t - a.StartSearchTime
	approachTime := arriveTime - t
	searchTime := cruiseTime + approachTime
	waitTime := arriveTime - r.AvailableTime
	c.RecordAssignment(cruiseTime, approachTime, searchTime, waitTime, r.TripTime, pair.Benefit)

	empty.Remove(a.ID)
	waiting.Remove(r.ID)
	q.Remove(a.NextEventID)
	q.Remove(r.NextEventID)

	dropoffLoc, dropoffTime, redirected := hubDecision(m, r, arriveTime)

	a.Loc = agentLoc
	a.Phase = agent.PhasePickingUp
	a.Assignment = &agent.Assignment{
		ResourceID:      r.ID,
		Pickup:          r.Pickup,
		FinalLoc:        dropoffLoc,
		RedirectedToHub: redirected,
	}
	a.NextEventTime = dropoffTime
	a.NextEventID = q.Push(event.Event{Time: dropoffTime, Kind: event.KindAgent, AgentID: a.ID})
}

// hubDecision picks the nearest hub to r's dropoff and decides whether the
// agent should be redirected there instead of idling at the dropoff
// itself, per the hub-redirect threshold.
func hubDecision(m *citymap.Map, r *resource.Resource, arriveTime int64) (loc citymap.LocationOnRoad, dropoffTime int64, redirected bool) {
	if len(m.Hubs) == 0 {
		return r.Dropoff, arriveTime + r.TripTime, false
	}
	bestHub := m.Hubs[0]
	bestTime := m.Oracle.TravelTime(r.Dropoff, bestHub)
	for _, h := range m.Hubs[1:] {
		tt := m.Oracle.TravelTime(r.Dropoff, h)
		if tt < bestTime {
			bestTime, bestHub = tt, h
		}
	}
	if bestTime < matching.HubRedirectThreshold {
		return bestHub, arriveTime + r.TripTime + bestTime, true
	}
	return r.Dropoff, arriveTime + r.TripTime, false
}
