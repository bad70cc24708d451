package sim

import (
	"fmt"
	"math/rand"

	"dispatchsim/internal/agent"
	"dispatchsim/internal/citymap"
	"dispatchsim/internal/event"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/resource"
)

// Config is the full set of enumerated simulation parameters.
type Config struct {
	MapFile             string
	ResourceFile        string
	BoundingPolygonFile string
	TotalAgents         int
	ResourceMaxLifeTime int64
	AgentPlacementSeed  int64
	SpeedReduction      float64
	SimulationEnd       int64
}

// SetupError wraps a failure to load the map, resources, or validate
// configuration before the simulation loop can start. It is always fatal
// and always surfaced to the caller, never recovered from internally.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("sim: setup failed at %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Load performs the external-collaborator work described for MapCreator
// and MapWithData: parsing the road network and resource trace files,
// clipping the network to the bounding polygon if one is configured, and
// producing the fully map-matched resource list ready for scheduling.
func Load(cfg Config) (*citymap.Map, []*resource.Resource, error) {
	m, err := citymap.LoadMap(cfg.MapFile, cfg.SpeedReduction)
	if err != nil {
		return nil, nil, &SetupError{Stage: "map", Err: err}
	}

	if cfg.BoundingPolygonFile != "" {
		poly, err := citymap.LoadBoundingPolygon(cfg.BoundingPolygonFile)
		if err != nil {
			return nil, nil, &SetupError{Stage: "bounding_polygon", Err: err}
		}
		clipToPolygon(m, poly)
	}

	rows, err := resource.LoadTrace(cfg.ResourceFile)
	if err != nil {
		return nil, nil, &SetupError{Stage: "resource_trace", Err: err}
	}
	resources, err := resource.BuildResources(m, rows, cfg.ResourceMaxLifeTime)
	if err != nil {
		return nil, nil, &SetupError{Stage: "resource_map_match", Err: err}
	}
	return m, resources, nil
}

// clipToPolygon drops every intersection outside poly and the roads that
// touch them, then rebuilds the adjacency index and travel-time table over
// what remains; hubs on dropped roads are discarded. This is the
// simulator-side half of the bounding-polygon collaborator; the KML
// parsing itself lives in citymap.
func clipToPolygon(m *citymap.Map, poly *citymap.BoundingPolygon) {
	for id, it := range m.Intersections {
		if !poly.Contains(ids.Point{Lat: it.Lat, Lng: it.Lng}) {
			delete(m.Intersections, id)
		}
	}
	kept := make([]*citymap.Road, 0, len(m.Roads))
	for _, r := range m.Roads {
		if _, ok := m.Intersections[r.From]; !ok {
			continue
		}
		if _, ok := m.Intersections[r.To]; !ok {
			continue
		}
		kept = append(kept, r)
	}
	var hubs []citymap.LocationOnRoad
	for _, h := range m.Hubs {
		_, fromOK := m.Intersections[h.Road.From]
		_, toOK := m.Intersections[h.Road.To]
		if fromOK && toOK {
			hubs = append(hubs, h)
		}
	}
	*m = *citymap.NewMap(m.Intersections, kept)
	m.SetHubs(hubs)
}

// PlaceAgents scatters total agents uniformly at random among the map's
// roads, seeded by seed so placement is reproducible for a fixed
// configuration. Placed agents start idling at the end of their chosen
// road (its destination intersection); StartSearchTime is simulationStart
// per the open-question resolution for agents that never transitioned
// into empty from a dropoff.
func PlaceAgents(m *citymap.Map, total int, seed int64, simulationStart int64) []*agent.Agent {
	if len(m.Roads) == 0 || total == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	agents := make([]*agent.Agent, total)
	for i := 0; i < total; i++ {
		road := m.Roads[rng.Intn(len(m.Roads))]
		agents[i] = &agent.Agent{
			ID:              ids.AgentID(fmt.Sprintf("agent-%d", i)),
			Loc:             citymap.AtEnd(road),
			Phase:           agent.PhaseIntersectionReached,
			StartSearchTime: simulationStart,
		}
	}
	return agents
}

// InitialEvents builds the event set a fresh run starts from: one
// INTERSECTION_REACHED self-trigger per placed agent (so the search
// policy immediately picks a direction) and one BECOMES_AVAILABLE event
// per loaded resource.
func InitialEvents(q *event.Queue, agents []*agent.Agent, resources []*resource.Resource, simulationStart int64) {
	for _, a := range agents {
		a.NextEventTime = simulationStart
		a.NextEventID = q.Push(event.Event{Time: simulationStart, Kind: event.KindAgent, AgentID: a.ID})
	}
	for _, r := range resources {
		r.NextEventID = q.Push(event.Event{
			Time:       r.AvailableTime,
			Kind:       event.KindResource,
			ResourceID: r.ID,
			Cause:      resource.CauseBecomesAvailable,
		})
	}
}
