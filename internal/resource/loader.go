package resource

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
)

// TraceRow is one parsed line of the resource trace: available_time,
// pickup_lat, pickup_lon, dropoff_lat, dropoff_lon, trip_time. This is the
// shape the external MapWithData collaborator is expected to hand off once
// it has converted a taxi-trip CSV dataset into integer simulation time.
type TraceRow struct {
	AvailableTime int64
	PickupLat     float64
	PickupLng     float64
	DropoffLat    float64
	DropoffLng    float64
	TripTime      int64
}

// LoadTrace parses a CSV resource trace. The file is expected to have a
// header row followed by one row per trip request, columns in the order
// documented on TraceRow.
func LoadTrace(path string) ([]TraceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resource: opening trace file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		if err == io.EOF {
			return nil, fmt.Errorf("resource: trace file is empty")
		}
		return nil, fmt.Errorf("resource: reading trace header: %w", err)
	}

	var rows []TraceRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resource: reading trace row: %w", err)
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("resource: trace row has %d columns, want 6", len(rec))
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (TraceRow, error) {
	var row TraceRow
	var err error
	if row.AvailableTime, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return row, fmt.Errorf("resource: parsing available_time: %w", err)
	}
	if row.PickupLat, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return row, fmt.Errorf("resource: parsing pickup_lat: %w", err)
	}
	if row.PickupLng, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return row, fmt.Errorf("resource: parsing pickup_lon: %w", err)
	}
	if row.DropoffLat, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return row, fmt.Errorf("resource: parsing dropoff_lat: %w", err)
	}
	if row.DropoffLng, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return row, fmt.Errorf("resource: parsing dropoff_lon: %w", err)
	}
	if row.TripTime, err = strconv.ParseInt(rec[5], 10, 64); err != nil {
		return row, fmt.Errorf("resource: parsing trip_time: %w", err)
	}
	return row, nil
}

// MapMatch resolves a raw lat/lng to the nearest intersection on m and
// returns a LocationOnRoad anchored at the start of one of its outgoing
// roads (or the end of an incoming one for a dead end). Full map-matching
// against actual road geometry is explicitly out of scope for the
// simulator core; this nearest-intersection approximation is the minimum
// needed to drive the kernel end to end against a real map.
func MapMatch(m *citymap.Map, p ids.Point) (citymap.LocationOnRoad, error) {
	var best ids.IntersectionID
	bestDist := math.MaxFloat64
	found := false
	for id, it := range m.Intersections {
		d := citymap.GreatCircleDistance(p, ids.Point{Lat: it.Lat, Lng: it.Lng})
		if d < bestDist {
			bestDist, best, found = d, id, true
		}
	}
	if !found {
		return citymap.LocationOnRoad{}, fmt.Errorf("resource: map has no intersections to match against")
	}
	if out := m.OutgoingRoads(best); len(out) > 0 {
		return citymap.AtStart(out[0]), nil
	}
	for _, r := range m.Roads {
		if r.To == best {
			return citymap.AtEnd(r), nil
		}
	}
	return citymap.LocationOnRoad{}, fmt.Errorf("resource: intersection %d has no adjacent roads", best)
}

// BuildResources converts parsed trace rows into Resources, map-matching
// pickup and dropoff coordinates onto m and computing each resource's
// expiration deadline from maxLifeTime.
func BuildResources(m *citymap.Map, rows []TraceRow, maxLifeTime int64) ([]*Resource, error) {
	out := make([]*Resource, 0, len(rows))
	for i, row := range rows {
		pickup, err := MapMatch(m, ids.Point{Lat: row.PickupLat, Lng: row.PickupLng})
		if err != nil {
			return nil, fmt.Errorf("resource: matching pickup for row %d: %w", i, err)
		}
		dropoff, err := MapMatch(m, ids.Point{Lat: row.DropoffLat, Lng: row.DropoffLng})
		if err != nil {
			return nil, fmt.Errorf("resource: matching dropoff for row %d: %w", i, err)
		}
		out = append(out, &Resource{
			ID:             ids.ResourceID(strconv.Itoa(i)),
			Pickup:         pickup,
			Dropoff:        dropoff,
			AvailableTime:  row.AvailableTime,
			TripTime:       row.TripTime,
			ExpirationTime: row.AvailableTime + maxLifeTime,
			Cause:          CauseBecomesAvailable,
		})
	}
	return out, nil
}
