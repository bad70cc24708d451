package citymap

import (
	"container/heap"
	"math"

	"dispatchsim/internal/ids"
)

// TravelTimeOracle answers shortest-travel-time and great-circle-distance
// queries. PrecomputedOracle is the deterministic, always-on implementation
// the dispatch kernel depends on; LiveOracle (see liveoracle.go) is an
// optional secondary backend used only for offline validation.
type TravelTimeOracle interface {
	TravelTime(a, b LocationOnRoad) int64
	GreatCircleDistance(a, b ids.Point) float64
}

// earthRadiusMeters is the mean earth radius used for the haversine
// approximation — good enough for the short trip/approach distances the
// benefit model compares against one another.
const earthRadiusMeters = 6371000.0

// GreatCircleDistance returns the distance in meters between two decimal
// degree coordinates.
func GreatCircleDistance(a, b ids.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)
	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// PrecomputedOracle answers travel_time queries from an all-pairs
// shortest-time table computed once over the intersections, with an
// on-road offset correction applied for the partial road segment at each
// end of the query.
type PrecomputedOracle struct {
	m       *Map
	index   map[ids.IntersectionID]int
	order   []ids.IntersectionID
	allPair [][]int64
}

// NewPrecomputedOracle runs one Dijkstra per intersection over m and caches
// the resulting all-pairs shortest-time table. Construction is O(V*(E log V))
// and happens exactly once, at setup.
func NewPrecomputedOracle(m *Map) *PrecomputedOracle {
	o := &PrecomputedOracle{
		m:     m,
		index: make(map[ids.IntersectionID]int, len(m.Intersections)),
	}
	for id := range m.Intersections {
		o.index[id] = len(o.order)
		o.order = append(o.order, id)
	}
	o.allPair = make([][]int64, len(o.order))
	for i, src := range o.order {
		o.allPair[i] = o.dijkstra(src)
	}
	return o
}

const infTravelTime = int64(1) << 62

func (o *PrecomputedOracle) dijkstra(src ids.IntersectionID) []int64 {
	dist := make([]int64, len(o.order))
	for i := range dist {
		dist[i] = infTravelTime
	}
	dist[o.index[src]] = 0

	pq := &priorityQueue{{node: src, dist: 0}}
	visited := make(map[ids.IntersectionID]bool, len(o.order))
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		for _, r := range o.m.OutgoingRoads(cur.node) {
			nd := cur.dist + r.TravelTime
			if nd < dist[o.index[r.To]] {
				dist[o.index[r.To]] = nd
				heap.Push(pq, pqItem{node: r.To, dist: nd})
			}
		}
	}
	return dist
}

// TravelTime returns the shortest travel time in seconds from a to b,
// including the along-road offset at each endpoint. Same-road pairs where b
// lies ahead of a on the same road take the direct along-road delta; if b
// lies behind a on the same road the query falls through to the
// intersection table like any other pair.
func (o *PrecomputedOracle) TravelTime(a, b LocationOnRoad) int64 {
	if a.Road == b.Road && b.TravelTimeFromStart >= a.TravelTimeFromStart {
		return b.TravelTimeFromStart - a.TravelTimeFromStart
	}
	toEndOfA := a.Road.TravelTime - a.TravelTimeFromStart
	fromStartOfB := b.TravelTimeFromStart
	between := o.allPair[o.index[a.Road.To]][o.index[b.Road.From]]
	if between >= infTravelTime {
		return infTravelTime
	}
	return toEndOfA + between + fromStartOfB
}

// GreatCircleDistance delegates to the package-level haversine helper; it
// does not depend on the road network at all, only on the oracle
// satisfying the shared interface.
func (o *PrecomputedOracle) GreatCircleDistance(a, b ids.Point) float64 {
	return GreatCircleDistance(a, b)
}

type pqItem struct {
	node ids.IntersectionID
	dist int64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}
