package citymap

import (
	"context"
	"fmt"
	"strconv"

	gmaps "googlemaps.github.io/maps"

	"dispatchsim/internal/ids"
)

// LiveOracle queries the Google Maps Distance Matrix API for a driving duration
// instead of consulting the precomputed all-pairs table. It exists purely
// as an offline validation backend for the scenario bench tool: spot-check
// the precomputed oracle against a live routing provider for a sample of
// pairs. It must never be wired into the live Simulator — network calls
// are neither deterministic nor bounded in latency, both of which the
// dispatch kernel requires from its oracle.
type LiveOracle struct {
	client *gmaps.Client
	m      *Map
}

// NewLiveOracle creates a LiveOracle backed by the given Google Maps API
// key, resolving coordinates against m.
func NewLiveOracle(apiKey string, m *Map) (*LiveOracle, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &LiveOracle{client: client, m: m}, nil
}

// TravelTime fetches a live driving duration between two locations on the
// map, for comparison against PrecomputedOracle.TravelTime on the same
// pair. Returns infTravelTime on any API error so a bench diff reports it
// as a large discrepancy rather than panicking.
func (o *LiveOracle) TravelTime(a, b LocationOnRoad) int64 {
	ca, cb := o.m.Coordinate(a), o.m.Coordinate(b)
	req := &gmaps.DistanceMatrixRequest{
		Origins:      []string{latLngString(ca.Lat, ca.Lng)},
		Destinations: []string{latLngString(cb.Lat, cb.Lng)},
		Mode:         gmaps.TravelModeDriving,
	}
	resp, err := o.client.DistanceMatrix(context.Background(), req)
	if err != nil || len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return infTravelTime
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return infTravelTime
	}
	return int64(el.Duration.Seconds())
}

// GreatCircleDistance delegates to the shared haversine helper; live
// routing has no bearing on straight-line distance.
func (o *LiveOracle) GreatCircleDistance(a, b ids.Point) float64 {
	return GreatCircleDistance(a, b)
}

func latLngString(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
}
