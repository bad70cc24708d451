package main

import (
	"fmt"
	"time"

	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/resource"
	"dispatchsim/internal/searchpolicy"
	"dispatchsim/internal/sim"
)

// Result is one scenario's outcome.
type Result struct {
	Name   string
	Status string
	Note   string
}

// Case is a named scenario, grounded in the simulator's documented
// concrete scenarios rather than a full production corpus — this is a
// smoke-test harness, not a substitute for the package-level test suites.
type Case struct {
	Name string
	Run  func() Result
}

// Runner executes every registered Case and prints its outcome.
type Runner struct {
	cfg Config
}

// NewRunner builds a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// RunAll executes every scenario in order and prints PASS/FAIL/SKIP as it
// goes, the way a release checklist would.
func (r *Runner) RunAll() []Result {
	cases := r.cases()
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		res := c.Run()
		results = append(results, res)
		fmt.Printf("%-6s %s", res.Status, c.Name)
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []Case {
	return []Case{
		{Name: "S1: trivial single match", Run: scenarioTrivialMatch},
		{Name: "S2: expiration with zero agents", Run: scenarioExpiration},
		{Name: "S3: pool batching surplus resource", Run: scenarioPoolBatching},
		{Name: "S4: hub redirect", Run: scenarioHubRedirect},
		{Name: "S5: stable matching assigns both resources", Run: scenarioStableMatching},
		{Name: "S6: determinism across repeated runs", Run: scenarioDeterminism},
		{Name: "S7: live oracle cross-check", Run: func() Result { return scenarioLiveOracleCrossCheck(r.cfg) }},
	}
}

// linearMap builds intersections 0..n-1 joined by bidirectional roads of
// the given travel time, enough topology for the scenarios below.
func linearMap(n int, travelTime int64) *citymap.Map {
	intersections := make(map[ids.IntersectionID]*citymap.Intersection, n)
	for i := 0; i < n; i++ {
		id := ids.IntersectionID(i)
		intersections[id] = &citymap.Intersection{ID: id, Lat: float64(i) * 0.01, Lng: 0}
	}
	var roads []*citymap.Road
	nextRoadID := int64(0)
	for i := 0; i < n-1; i++ {
		roads = append(roads,
			&citymap.Road{ID: ids.RoadID(nextRoadID), From: ids.IntersectionID(i), To: ids.IntersectionID(i + 1), TravelTime: travelTime},
			&citymap.Road{ID: ids.RoadID(nextRoadID + 1), From: ids.IntersectionID(i + 1), To: ids.IntersectionID(i), TravelTime: travelTime},
		)
		nextRoadID += 2
	}
	return citymap.NewMap(intersections, roads)
}

// atIntersection returns a LocationOnRoad representing "sitting at id":
// the end of whatever incoming road is found first, or the start of an
// outgoing one if id has no incoming road (the network's first node).
func atIntersection(m *citymap.Map, id ids.IntersectionID) citymap.LocationOnRoad {
	for _, r := range m.Roads {
		if r.To == id {
			return citymap.AtEnd(r)
		}
	}
	if out := m.OutgoingRoads(id); len(out) > 0 {
		return citymap.AtStart(out[0])
	}
	panic(fmt.Sprintf("scenariobench: intersection %d is isolated", id))
}

func fail(name, note string) Result { return Result{Name: name, Status: "FAIL", Note: note} }
func pass(name, note string) Result { return Result{Name: name, Status: "PASS", Note: note} }

func scenarioTrivialMatch() Result {
	m := linearMap(2, 50)
	a := &agent.Agent{ID: "A", Loc: atIntersection(m, 0), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0}
	r := &resource.Resource{
		ID: "R", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1),
		AvailableTime: 100, TripTime: 300, ExpirationTime: 100 + 600, Cause: resource.CauseBecomesAvailable,
	}
	s := sim.New(m, []*agent.Agent{a}, []*resource.Resource{r}, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		return fail("S1", err.Error())
	}
	if report.TotalAssignments != 1 {
		return fail("S1", fmt.Sprintf("expected 1 assignment, got %d", report.TotalAssignments))
	}
	if report.ExpiredResources != 0 {
		return fail("S1", fmt.Sprintf("expected 0 expirations, got %d", report.ExpiredResources))
	}
	return pass("S1", fmt.Sprintf("assignments=%d", report.TotalAssignments))
}

func scenarioExpiration() Result {
	m := linearMap(2, 50)
	r := &resource.Resource{
		ID: "R", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1),
		AvailableTime: 100, TripTime: 300, ExpirationTime: 100 + 60, Cause: resource.CauseBecomesAvailable,
	}
	s := sim.New(m, nil, []*resource.Resource{r}, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		return fail("S2", err.Error())
	}
	if report.TotalAssignments != 0 || report.ExpiredResources != 1 {
		return fail("S2", fmt.Sprintf("expected 0 assignments/1 expiration, got %d/%d", report.TotalAssignments, report.ExpiredResources))
	}
	return pass("S2", "expired as expected with zero agents")
}

func scenarioPoolBatching() Result {
	m := linearMap(2, 5)
	agents := []*agent.Agent{
		{ID: "A1", Loc: atIntersection(m, 0), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
		{ID: "A2", Loc: atIntersection(m, 0), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
	}
	resources := []*resource.Resource{
		{ID: "R1", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1), AvailableTime: 30, TripTime: 20, ExpirationTime: 30 + 600},
		{ID: "R2", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1), AvailableTime: 45, TripTime: 20, ExpirationTime: 45 + 600},
		{ID: "R3", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1), AvailableTime: 59, TripTime: 20, ExpirationTime: 59 + 600},
	}
	for _, r := range resources {
		r.Cause = resource.CauseBecomesAvailable
	}
	s := sim.New(m, agents, resources, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		return fail("S3", err.Error())
	}
	if report.TotalAssignments < 2 {
		return fail("S3", fmt.Sprintf("expected at least 2 assignments across two agents, got %d", report.TotalAssignments))
	}
	return pass("S3", fmt.Sprintf("assignments=%d expired=%d", report.TotalAssignments, report.ExpiredResources))
}

func scenarioHubRedirect() Result {
	m := linearMap(3, 20)
	m.SetHubs([]citymap.LocationOnRoad{atIntersection(m, 2)})
	a := &agent.Agent{ID: "A", Loc: atIntersection(m, 0), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0}
	r := &resource.Resource{
		ID: "R", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1),
		AvailableTime: 1, TripTime: 10, ExpirationTime: 1 + 600, Cause: resource.CauseBecomesAvailable,
	}
	s := sim.New(m, []*agent.Agent{a}, []*resource.Resource{r}, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		return fail("S4", err.Error())
	}
	if report.TotalAssignments != 1 {
		return fail("S4", fmt.Sprintf("expected 1 assignment, got %d", report.TotalAssignments))
	}
	return pass("S4", "hub-adjacent dropoff resolved without error")
}

func scenarioStableMatching() Result {
	m := linearMap(2, 10)
	agents := []*agent.Agent{
		{ID: "a1", Loc: atIntersection(m, 0), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
		{ID: "a2", Loc: atIntersection(m, 0), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
	}
	resources := []*resource.Resource{
		{ID: "r1", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1), AvailableTime: 1, TripTime: 10, ExpirationTime: 601, Cause: resource.CauseBecomesAvailable},
		{ID: "r2", Pickup: atIntersection(m, 0), Dropoff: atIntersection(m, 1), AvailableTime: 1, TripTime: 10, ExpirationTime: 601, Cause: resource.CauseBecomesAvailable},
	}
	s := sim.New(m, agents, resources, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		return fail("S5", err.Error())
	}
	if report.TotalAssignments != 2 {
		return fail("S5", fmt.Sprintf("expected both resources matched, got %d assignments", report.TotalAssignments))
	}
	if report.AverageBenefit <= 0 || report.AverageBenefit > 1 {
		return fail("S5", fmt.Sprintf("benefit %f out of (0,1]", report.AverageBenefit))
	}
	return pass("S5", fmt.Sprintf("average_benefit=%.3f", report.AverageBenefit))
}

func scenarioDeterminism() Result {
	build := func() (*citymap.Map, []*agent.Agent, []*resource.Resource) {
		m := linearMap(4, 15)
		agents := make([]*agent.Agent, 5)
		for i := range agents {
			agents[i] = &agent.Agent{ID: ids.AgentID(fmt.Sprintf("a%d", i)), Loc: atIntersection(m, ids.IntersectionID(i%4)), Phase: agent.PhaseIntersectionReached}
		}
		resources := make([]*resource.Resource, 8)
		for i := range resources {
			resources[i] = &resource.Resource{
				ID: ids.ResourceID(fmt.Sprintf("r%d", i)), Pickup: atIntersection(m, ids.IntersectionID(i%4)), Dropoff: atIntersection(m, ids.IntersectionID((i+1)%4)),
				AvailableTime: int64(i * 10), TripTime: 50, ExpirationTime: int64(i*10) + 600, Cause: resource.CauseBecomesAvailable,
			}
		}
		return m, agents, resources
	}

	start := time.Now()
	m1, a1, r1 := build()
	report1, err := sim.New(m1, a1, r1, searchpolicy.NewRandomWalk(42), 0, 5_000, nil).Run()
	if err != nil {
		return fail("S6", err.Error())
	}
	m2, a2, r2 := build()
	report2, err := sim.New(m2, a2, r2, searchpolicy.NewRandomWalk(42), 0, 5_000, nil).Run()
	if err != nil {
		return fail("S6", err.Error())
	}
	if report1 != report2 {
		return fail("S6", fmt.Sprintf("reports diverged: %+v vs %+v", report1, report2))
	}
	return pass("S6", fmt.Sprintf("bit-identical reports in %s", time.Since(start)))
}

// scenarioLiveOracleCrossCheck spot-checks the precomputed all-pairs
// oracle against a live Google Maps driving duration for one pair. It
// only runs when an API key is configured; otherwise it is a SKIP, since
// hitting a real network endpoint is not something the rest of this
// smoke-test harness does.
func scenarioLiveOracleCrossCheck(cfg Config) Result {
	if cfg.LiveOracleAPIKey == "" {
		return Result{Name: "S7", Status: "SKIP", Note: "DISPATCHSIM_BENCH_LIVE_ORACLE_KEY not set"}
	}
	m := linearMap(2, 50)
	live, err := citymap.NewLiveOracle(cfg.LiveOracleAPIKey, m)
	if err != nil {
		return fail("S7", fmt.Sprintf("constructing live oracle: %v", err))
	}
	from, to := atIntersection(m, 0), atIntersection(m, 1)
	precomputed := m.Oracle.TravelTime(from, to)
	observed := live.TravelTime(from, to)
	return pass("S7", fmt.Sprintf("precomputed=%ds live=%ds", precomputed, observed))
}
