// Package sim ties the event queue, pool batcher, matcher, and dispatch
// scheduler together into the main discrete-event loop.
package sim

import (
	"context"
	"fmt"
	"log"

	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/dispatch"
	"dispatchsim/internal/event"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/matching"
	"dispatchsim/internal/pool"
	"dispatchsim/internal/resource"
	"dispatchsim/internal/searchpolicy"
	"dispatchsim/internal/stats"
	"dispatchsim/internal/telemetry"
)

// Telemetry is the subset of telemetry.Board the simulator pushes live
// updates to. It is optional and purely observational: a nil Telemetry
// (the default) makes the run behave exactly as if telemetry did not
// exist, which keeps the deterministic core independent of anything
// network-bound.
type Telemetry interface {
	SetAgentPosition(ctx context.Context, agentID ids.AgentID, p ids.Point) error
	RemoveAgent(ctx context.Context, agentID ids.AgentID) error
	PublishProgress(ctx context.Context, ev telemetry.ProgressEvent) error
}

// InvariantViolation reports a condition the kernel's own bookkeeping
// should have made impossible. Run returns it, aborting the run, for an
// event of unknown kind, an agent event in an unexpected phase, or a
// PICKING_UP agent with no assignment. A matched agent that is no longer
// in empty_agents is not reported this way: closePool logs it and skips
// the pair. Dropoff durations are not checked.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("sim: invariant violation: %s", e.Detail)
}

// Simulator owns every piece of mutable state for one run: the event
// queue, the empty-agent and waiting-resource sets, the current pool
// window, and the running statistics. Nothing outside the simulator's own
// call stack ever mutates this state.
type Simulator struct {
	m       *citymap.Map
	q       *event.Queue
	empty   *agent.EmptySet
	waiting *resource.WaitingSet
	agents  map[ids.AgentID]*agent.Agent
	resrcs  map[ids.ResourceID]*resource.Resource
	policy  searchpolicy.Policy
	stats   *stats.Collector
	log     *log.Logger
	board   Telemetry

	poolStart int64
	poolEnd   int64
	batch     *pool.Batch

	simulationStart int64
	simulationEnd   int64
	totalResources  int64
}

// New constructs a simulator ready to run, given an already-loaded map,
// placed agents, and loaded resources.
func New(m *citymap.Map, agents []*agent.Agent, resources []*resource.Resource, policy searchpolicy.Policy, simulationStart, simulationEnd int64, logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.Default()
	}
	s := &Simulator{
		m:               m,
		q:               event.NewQueue(),
		empty:           agent.NewEmptySet(),
		waiting:         resource.NewWaitingSet(),
		agents:          make(map[ids.AgentID]*agent.Agent, len(agents)),
		resrcs:          make(map[ids.ResourceID]*resource.Resource, len(resources)),
		policy:          policy,
		stats:           &stats.Collector{},
		log:             logger,
		poolStart:       simulationStart,
		poolEnd:         simulationStart + pool.WindowSeconds,
		batch:           pool.New(),
		simulationStart: simulationStart,
		simulationEnd:   simulationEnd,
		totalResources:  int64(len(resources)),
	}
	for _, a := range agents {
		s.agents[a.ID] = a
		s.empty.Insert(a)
	}
	for _, r := range resources {
		s.resrcs[r.ID] = r
	}
	InitialEvents(s.q, agents, resources, simulationStart)
	return s
}

// SetTelemetry attaches a live telemetry sink. Publish failures are
// logged and otherwise ignored; telemetry is never allowed to affect the
// deterministic outcome of a run.
func (s *Simulator) SetTelemetry(board Telemetry) {
	s.board = board
}

func (s *Simulator) publishAgentEmpty(a *agent.Agent) {
	if s.board == nil {
		return
	}
	if err := s.board.SetAgentPosition(context.Background(), a.ID, s.m.Coordinate(a.Loc)); err != nil {
		s.log.Printf("telemetry: publishing position for agent %s: %v", a.ID, err)
	}
}

func (s *Simulator) publishAgentMatched(a *agent.Agent) {
	if s.board == nil {
		return
	}
	if err := s.board.RemoveAgent(context.Background(), a.ID); err != nil {
		s.log.Printf("telemetry: removing agent %s: %v", a.ID, err)
	}
}

func (s *Simulator) publishProgress(t int64) {
	if s.board == nil {
		return
	}
	ev := telemetry.ProgressEvent{
		Time:             t,
		TotalAssignments: s.stats.TotalAssignments,
		ExpiredResources: s.stats.ExpiredResources,
	}
	if err := s.board.PublishProgress(context.Background(), ev); err != nil {
		s.log.Printf("telemetry: publishing progress: %v", err)
	}
}

// Run drains the event queue up to simulationEnd, dispatching every event
// to the pool batcher or to the agent/resource trigger as appropriate. Per
// §4.10, the window only advances for events that are NOT themselves an
// in-window arrival: advancing first would make the in-window check below
// trivially true for every BECOMES_AVAILABLE event, since advancePoolWindow's
// postcondition is poolStart <= t < poolEnd.
func (s *Simulator) Run() (stats.Report, error) {
	for {
		e, ok := s.q.Peek()
		if !ok || e.Time > s.simulationEnd {
			break
		}
		e, _ = s.q.Pop()

		if e.Kind == event.KindResource && e.Cause == resource.CauseBecomesAvailable && e.Time >= s.poolStart && e.Time < s.poolEnd {
			s.handleArrival(e)
			continue
		}
		s.advancePoolWindow(e.Time)
		if e.Kind == event.KindAgent {
			if a, ok := s.agents[e.AgentID]; ok && a.NextEventID != e.Seq {
				continue // the pool close above matched this agent and rescheduled it
			}
		}
		if err := s.trigger(e); err != nil {
			return stats.Report{}, err
		}
	}
	s.flushRemainingBatch()
	return s.stats.Finalize(s.totalResources, s.remainingSearchTime(), int64(s.empty.Len())), nil
}

// remainingSearchTime sums, over every agent still empty (never matched)
// when the run ends, the time it spent searching until simulationEnd —
// the still-in-flight counterpart to SumSearchTime for agents that did
// get matched.
func (s *Simulator) remainingSearchTime() int64 {
	var total int64
	for _, a := range s.empty.Snapshot() {
		total += s.simulationEnd - a.StartSearchTime
	}
	return total
}

// advancePoolWindow closes the current window, if it has anything
// buffered, the moment an event crosses poolEnd, then slides the window
// forward in WindowSeconds increments until it covers t. A window with
// nothing buffered slides forward with no matcher call at all.
func (s *Simulator) advancePoolWindow(t int64) {
	if t < s.poolEnd {
		return
	}
	if s.batch.Len() > 0 {
		s.closePool(s.poolEnd)
	}
	for s.poolEnd <= t {
		s.poolStart = s.poolEnd
		s.poolEnd += pool.WindowSeconds
	}
}

// handleArrival implements the §4.5 interception of an in-window
// BECOMES_AVAILABLE event. It also reproduces the documented anomaly: if
// the batch already holds a resource from earlier in this same window, a
// further in-window arrival forces the pool closed immediately, using
// this event's own (earlier than poolEnd) firing time as the close time,
// then slides the window forward by one WindowSeconds step (the new window
// starts at the old poolEnd) and starts a fresh batch holding this
// resource.
func (s *Simulator) handleArrival(e event.Event) {
	r, ok := s.resrcs[e.ResourceID]
	if !ok {
		return
	}
	if s.batch.Len() > 0 {
		s.closePool(e.Time)
		s.poolStart = s.poolEnd
		s.poolEnd = s.poolStart + pool.WindowSeconds
	}
	s.batch.Add(r)
}

// closePool runs the matcher against the currently batched resources and
// the current empty-agent snapshot, applies the dispatch scheduler to
// every matched pair, and pushes any surplus resources into
// waiting_resources with their expiration event. NoFeasibleMatch (an
// empty batch or empty agent snapshot) is not an error: the pool simply
// closes with zero assignments.
func (s *Simulator) closePool(closeTime int64) {
	defer s.batch.Reset()
	s.stats.RecordPool(closeTime - s.poolStart)

	pooled := s.batch.Resources()
	if len(pooled) == 0 {
		return
	}
	agentsSnapshot := s.empty.Snapshot()
	result := matching.Match(s.m, pooled, agentsSnapshot)

	for _, pair := range result.Pairs {
		if !s.empty.Has(pair.Agent.ID) {
			s.log.Printf("invariant violation: matched agent %s not in empty set", pair.Agent.ID)
			continue
		}
		dispatch.Schedule(s.m, s.q, s.stats, s.empty, s.waiting, pair, closeTime)
		s.publishAgentMatched(pair.Agent)
	}
	s.publishProgress(closeTime)
	for _, r := range result.Unmatched {
		s.waiting.Insert(r)
		r.NextEventID = s.q.Push(event.Event{
			Time:       r.ExpirationTime,
			Kind:       event.KindResource,
			ResourceID: r.ID,
			Cause:      resource.CauseExpired,
		})
	}
}

// flushRemainingBatch closes out whatever is still buffered when the
// simulation horizon is reached, so resource accounting stays consistent
// even for a window that never saw a closing event.
func (s *Simulator) flushRemainingBatch() {
	if s.batch.Len() > 0 {
		s.closePool(s.simulationEnd)
	}
}

// trigger dispatches a non-pool event to the agent or resource state
// machine and re-enqueues whatever event it produces, if any.
func (s *Simulator) trigger(e event.Event) error {
	switch e.Kind {
	case event.KindAgent:
		return s.triggerAgent(e)
	case event.KindResource:
		return s.triggerResource(e)
	default:
		return &InvariantViolation{Detail: fmt.Sprintf("unknown event kind %d", e.Kind)}
	}
}

// triggerAgent advances one agent's state machine per §4.8.
func (s *Simulator) triggerAgent(e event.Event) error {
	a, ok := s.agents[e.AgentID]
	if !ok {
		return nil // agent was removed/reassigned; stale event already cancelled elsewhere
	}

	switch a.Phase {
	case agent.PhaseIntersectionReached:
		return s.triggerSearch(a, e.Time)
	case agent.PhasePickingUp:
		return s.triggerPickup(a, e.Time)
	default:
		return &InvariantViolation{Detail: fmt.Sprintf("agent %s fired event in phase %s", a.ID, a.Phase)}
	}
}

// triggerSearch handles an empty agent that has just reached the
// intersection at the end of a.Loc.Road (or, for a freshly placed agent,
// is starting its very first leg): the search policy picks the next
// road, and the agent's next event is scheduled at
// current_time + road.travel_time.
func (s *Simulator) triggerSearch(a *agent.Agent, t int64) error {
	next, err := s.policy.NextRoad(s.m, a.Loc)
	if err != nil {
		s.log.Printf("search policy error for agent %s: %v", a.ID, err)
		return nil
	}
	a.Loc = citymap.AtStart(next)
	a.NextEventTime = t + next.TravelTime
	a.NextEventID = s.q.Push(event.Event{Time: a.NextEventTime, Kind: event.KindAgent, AgentID: a.ID})
	s.publishAgentEmpty(a)
	return nil
}

// triggerPickup handles the single dropoff event scheduled by the
// dispatch scheduler: the agent is carried through DROPPING_OFF
// (bookkeeping only) back to INTERSECTION_REACHED as an empty agent.
func (s *Simulator) triggerPickup(a *agent.Agent, t int64) error {
	if a.Assignment == nil {
		return &InvariantViolation{Detail: fmt.Sprintf("agent %s in PICKING_UP with no assignment", a.ID)}
	}
	a.Phase = agent.PhaseDroppingOff
	a.Loc = a.Assignment.FinalLoc
	a.Assignment = nil
	a.Phase = agent.PhaseIntersectionReached
	a.StartSearchTime = t

	s.empty.Insert(a)
	return s.triggerSearch(a, t)
}

// triggerResource handles the two resource causes that can reach the
// generic trigger path: EXPIRED per §4.9, and a BECOMES_AVAILABLE arrival
// that missed its pool window (fired at or after poolEnd rather than
// strictly inside [pool_start, pool_end)). The latter is not interception
// material anymore — closing and advancing past it already happened in
// Run — so it is admitted straight into waiting_resources with its
// expiration scheduled, the same fate a surplus resource gets out of a
// pool close (§4.6). Dropping it silently would leak a resource that
// never gets matched or counted as expired.
func (s *Simulator) triggerResource(e event.Event) error {
	switch e.Cause {
	case resource.CauseBecomesAvailable:
		return s.admitMissedWindowResource(e)
	case resource.CauseExpired:
		if !s.waiting.Has(e.ResourceID) {
			return nil // already matched; drop silently per §4.9
		}
		s.waiting.Remove(e.ResourceID)
		s.stats.RecordExpiration()
		return nil
	default:
		return nil
	}
}

func (s *Simulator) admitMissedWindowResource(e event.Event) error {
	r, ok := s.resrcs[e.ResourceID]
	if !ok {
		return nil
	}
	s.waiting.Insert(r)
	r.NextEventID = s.q.Push(event.Event{
		Time:       r.ExpirationTime,
		Kind:       event.KindResource,
		ResourceID: r.ID,
		Cause:      resource.CauseExpired,
	})
	return nil
}
