package sim

import (
	"testing"

	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/resource"
	"dispatchsim/internal/searchpolicy"
)

// twoNodeMap mirrors the scenario bench's linear map helper: two
// intersections joined by bidirectional roads of the given travel time.
func twoNodeMap(travelTime int64) (*citymap.Map, *citymap.Road, *citymap.Road) {
	intersections := map[ids.IntersectionID]*citymap.Intersection{
		0: {ID: 0, Lat: 0, Lng: 0},
		1: {ID: 1, Lat: 0.01, Lng: 0},
	}
	roadAB := &citymap.Road{ID: 0, From: 0, To: 1, TravelTime: travelTime}
	roadBA := &citymap.Road{ID: 1, From: 1, To: 0, TravelTime: travelTime}
	m := citymap.NewMap(intersections, []*citymap.Road{roadAB, roadBA})
	return m, roadAB, roadBA
}

func TestRunMatchesASingleAgentToASingleResource(t *testing.T) {
	m, _, roadBA := twoNodeMap(50)
	a := &agent.Agent{ID: "a1", Loc: citymap.AtEnd(roadBA), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0}
	r := &resource.Resource{
		ID:             "r1",
		Pickup:         citymap.AtEnd(roadBA),
		Dropoff:        citymap.AtStart(roadBA),
		AvailableTime:  100,
		TripTime:       300,
		ExpirationTime: 700,
		Cause:          resource.CauseBecomesAvailable,
	}

	s := New(m, []*agent.Agent{a}, []*resource.Resource{r}, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if report.TotalAssignments != 1 {
		t.Errorf("TotalAssignments = %d, want 1", report.TotalAssignments)
	}
	if report.ExpiredResources != 0 {
		t.Errorf("ExpiredResources = %d, want 0", report.ExpiredResources)
	}
	if report.AverageBenefit <= 0 || report.AverageBenefit > 1 {
		t.Errorf("AverageBenefit = %v, want in (0,1]", report.AverageBenefit)
	}
}

func TestRunExpiresAResourceWithNoAgents(t *testing.T) {
	m, _, roadBA := twoNodeMap(50)
	r := &resource.Resource{
		ID:             "r1",
		Pickup:         citymap.AtEnd(roadBA),
		Dropoff:        citymap.AtStart(roadBA),
		AvailableTime:  100,
		TripTime:       300,
		ExpirationTime: 160,
		Cause:          resource.CauseBecomesAvailable,
	}

	s := New(m, nil, []*resource.Resource{r}, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if report.TotalAssignments != 0 {
		t.Errorf("TotalAssignments = %d, want 0", report.TotalAssignments)
	}
	if report.ExpiredResources != 1 {
		t.Errorf("ExpiredResources = %d, want 1", report.ExpiredResources)
	}
	if report.ExpirationRate != 1 {
		t.Errorf("ExpirationRate = %v, want 1", report.ExpirationRate)
	}
}

func TestRunBatchesMultipleArrivalsInOneWindow(t *testing.T) {
	m, _, roadBA := twoNodeMap(5)
	agents := []*agent.Agent{
		{ID: "a1", Loc: citymap.AtEnd(roadBA), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
		{ID: "a2", Loc: citymap.AtEnd(roadBA), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
	}
	resources := []*resource.Resource{
		{ID: "r1", Pickup: citymap.AtEnd(roadBA), Dropoff: citymap.AtStart(roadBA), AvailableTime: 30, TripTime: 20, ExpirationTime: 630, Cause: resource.CauseBecomesAvailable},
		{ID: "r2", Pickup: citymap.AtEnd(roadBA), Dropoff: citymap.AtStart(roadBA), AvailableTime: 45, TripTime: 20, ExpirationTime: 645, Cause: resource.CauseBecomesAvailable},
	}

	s := New(m, agents, resources, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if report.TotalAssignments < 1 {
		t.Errorf("expected at least 1 assignment, got %d", report.TotalAssignments)
	}
	if report.TotalAssignments+report.ExpiredResources != 2 {
		t.Errorf("every resource should end up either assigned or expired, got assignments=%d expired=%d", report.TotalAssignments, report.ExpiredResources)
	}
}

func TestRunTreatsWindowBoundaryArrivalAsMissedNotIntercepted(t *testing.T) {
	m, _, roadBA := twoNodeMap(5)
	a := &agent.Agent{ID: "a1", Loc: citymap.AtEnd(roadBA), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0}
	// The first pool window is [0, 30). A resource firing exactly at t=30
	// falls outside it (time < pool_end fails) and must NOT be batched.
	r := &resource.Resource{
		ID:             "r1",
		Pickup:         citymap.AtEnd(roadBA),
		Dropoff:        citymap.AtStart(roadBA),
		AvailableTime:  30,
		TripTime:       20,
		ExpirationTime: 35,
		Cause:          resource.CauseBecomesAvailable,
	}

	s := New(m, []*agent.Agent{a}, []*resource.Resource{r}, searchpolicy.NewRandomWalk(1), 0, 10_000, nil)
	report, err := s.Run()
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if report.TotalAssignments != 0 {
		t.Errorf("TotalAssignments = %d, want 0: a boundary arrival must miss the window it arrives on, not be matched against it", report.TotalAssignments)
	}
	if report.ExpiredResources != 1 {
		t.Errorf("ExpiredResources = %d, want 1", report.ExpiredResources)
	}
	if report.TotalPoolTime != 0 {
		t.Errorf("TotalPoolTime = %v, want 0: no window ever closed with a non-empty batch", report.TotalPoolTime)
	}
}

func TestRunIsDeterministicForIdenticalInputs(t *testing.T) {
	build := func() (*citymap.Map, []*agent.Agent, []*resource.Resource) {
		m, _, roadBA := twoNodeMap(20)
		agents := []*agent.Agent{
			{ID: "a1", Loc: citymap.AtEnd(roadBA), Phase: agent.PhaseIntersectionReached, StartSearchTime: 0},
		}
		resources := []*resource.Resource{
			{ID: "r1", Pickup: citymap.AtEnd(roadBA), Dropoff: citymap.AtStart(roadBA), AvailableTime: 10, TripTime: 40, ExpirationTime: 610, Cause: resource.CauseBecomesAvailable},
		}
		return m, agents, resources
	}

	m1, agents1, resources1 := build()
	s1 := New(m1, agents1, resources1, searchpolicy.NewRandomWalk(42), 0, 5_000, nil)
	report1, err := s1.Run()
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}

	m2, agents2, resources2 := build()
	s2 := New(m2, agents2, resources2, searchpolicy.NewRandomWalk(42), 0, 5_000, nil)
	report2, err := s2.Run()
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}

	if report1 != report2 {
		t.Errorf("identical inputs with the same seed produced different reports: %+v vs %+v", report1, report2)
	}
}
