package citymap

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"

	"dispatchsim/internal/ids"
)

// mapFile mirrors the OpenStreetMap-derived JSON the external MapCreator
// collaborator is expected to produce: plain intersections and directed
// roads carrying a posted speed limit rather than a precomputed travel
// time, plus a list of intersection ids to treat as hubs.
type mapFile struct {
	Intersections []struct {
		ID  int64   `json:"id"`
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"intersections"`
	Roads []struct {
		ID            int64   `json:"id"`
		From          int64   `json:"from"`
		To            int64   `json:"to"`
		LengthMeters  float64 `json:"length_m"`
		SpeedLimitKmh float64 `json:"speed_limit_kmh"`
	} `json:"roads"`
	Hubs []int64 `json:"hubs"`
}

// LoadMap parses an OpenStreetMap-style JSON road network, applies
// speedReduction to every road's travel time, and returns the immutable
// Map together with the resolved hub locations. speedReduction must be in
// (0, 1]; it models congestion or conservative trip planning by uniformly
// slowing down every road.
func LoadMap(path string, speedReduction float64) (*Map, error) {
	if speedReduction <= 0 || speedReduction > 1 {
		return nil, fmt.Errorf("citymap: speed_reduction must be in (0,1], got %v", speedReduction)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("citymap: reading map file: %w", err)
	}
	var mf mapFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("citymap: parsing map file: %w", err)
	}
	if len(mf.Intersections) == 0 {
		return nil, fmt.Errorf("citymap: map file has no intersections")
	}

	intersections := make(map[ids.IntersectionID]*Intersection, len(mf.Intersections))
	for _, mi := range mf.Intersections {
		id := ids.IntersectionID(mi.ID)
		intersections[id] = &Intersection{ID: id, Lat: mi.Lat, Lng: mi.Lng}
	}

	roads := make([]*Road, 0, len(mf.Roads))
	for _, mr := range mf.Roads {
		from, to := ids.IntersectionID(mr.From), ids.IntersectionID(mr.To)
		if _, ok := intersections[from]; !ok {
			return nil, fmt.Errorf("citymap: road %d references unknown intersection %d", mr.ID, mr.From)
		}
		if _, ok := intersections[to]; !ok {
			return nil, fmt.Errorf("citymap: road %d references unknown intersection %d", mr.ID, mr.To)
		}
		if mr.SpeedLimitKmh <= 0 {
			return nil, fmt.Errorf("citymap: road %d has non-positive speed limit", mr.ID)
		}
		speedMps := (mr.SpeedLimitKmh * 1000.0 / 3600.0) * speedReduction
		tt := int64(mr.LengthMeters / speedMps)
		if tt <= 0 {
			tt = 1
		}
		roads = append(roads, &Road{ID: ids.RoadID(mr.ID), From: from, To: to, TravelTime: tt})
	}

	m := NewMap(intersections, roads)
	m.SetHubs(resolveHubs(m, mf.Hubs))
	return m, nil
}

// resolveHubs turns a bare list of intersection ids into LocationOnRoad
// values by anchoring each hub at the start of one of its outgoing roads
// (or, for a dead-end intersection, the end of one of its incoming roads).
func resolveHubs(m *Map, hubIDs []int64) []LocationOnRoad {
	incoming := make(map[ids.IntersectionID]*Road)
	for _, r := range m.Roads {
		if _, ok := incoming[r.To]; !ok {
			incoming[r.To] = r
		}
	}
	hubs := make([]LocationOnRoad, 0, len(hubIDs))
	for _, raw := range hubIDs {
		id := ids.IntersectionID(raw)
		if out := m.OutgoingRoads(id); len(out) > 0 {
			hubs = append(hubs, AtStart(out[0]))
			continue
		}
		if r, ok := incoming[id]; ok {
			hubs = append(hubs, AtEnd(r))
		}
	}
	return hubs
}

// BoundingPolygon is a simple closed ring used to clip the road network to
// a coverage area, parsed from a KML file's <coordinates> element.
type BoundingPolygon struct {
	points []ids.Point
}

type kmlDocument struct {
	Placemarks []struct {
		Polygon struct {
			OuterBoundary struct {
				LinearRing struct {
					Coordinates string `xml:"coordinates"`
				} `xml:"LinearRing"`
			} `xml:"outerBoundaryIs"`
		} `xml:"Polygon"`
	} `xml:"Document>Placemark"`
}

// LoadBoundingPolygon parses the outer ring of the first Polygon placemark
// in a KML file.
func LoadBoundingPolygon(path string) (*BoundingPolygon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("citymap: reading bounding polygon: %w", err)
	}
	var doc kmlDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("citymap: parsing bounding polygon: %w", err)
	}
	if len(doc.Placemarks) == 0 {
		return nil, fmt.Errorf("citymap: no Placemark/Polygon found in %s", path)
	}
	coords := doc.Placemarks[0].Polygon.OuterBoundary.LinearRing.Coordinates
	return &BoundingPolygon{points: parseKMLCoordinates(coords)}, nil
}

func parseKMLCoordinates(raw string) []ids.Point {
	var pts []ids.Point
	var lng, lat, alt float64
	n := 0
	start := 0
	flush := func(tok string) {
		if tok == "" {
			return
		}
		var vals [3]float64
		count, _ := fmt.Sscanf(tok, "%f,%f,%f", &vals[0], &vals[1], &vals[2])
		if count >= 2 {
			lng, lat, alt = vals[0], vals[1], vals[2]
			_ = alt
			pts = append(pts, ids.Point{Lat: lat, Lng: lng})
			n++
		}
	}
	for i, c := range raw {
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			flush(raw[start:i])
			start = i + 1
		}
	}
	flush(raw[start:])
	return pts
}

// Contains reports whether p lies inside the polygon, using the standard
// even-odd ray casting test.
func (b *BoundingPolygon) Contains(p ids.Point) bool {
	if len(b.points) < 3 {
		return true
	}
	inside := false
	n := len(b.points)
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := b.points[i], b.points[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) {
			slope := (p.Lat - pi.Lat) / (pj.Lat - pi.Lat)
			x := pi.Lng + slope*(pj.Lng-pi.Lng)
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
