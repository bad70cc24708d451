// Package telemetry publishes a live view of the running simulation to
// Redis: a GEO set of currently empty agents, and a progress channel
// other processes can subscribe to. It is purely observational — nothing
// it does feeds back into the deterministic simulation core.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatchsim/internal/citymap"
	"dispatchsim/internal/ids"
)

const (
	emptyAgentGeoKeyFmt = "dispatchsim:%s:empty_agents"
	progressChannelFmt  = "dispatchsim:%s:progress"
	keyTTL              = 24 * time.Hour
)

// Board publishes per-run telemetry for one simulation run, identified by
// runID, over a shared Redis client.
type Board struct {
	redis *redis.Client
	runID ids.RunID
}

// NewBoard returns a Board publishing under runID.
func NewBoard(client *redis.Client, runID ids.RunID) *Board {
	return &Board{redis: client, runID: runID}
}

// SetAgentPosition upserts an empty agent's current coordinate into the
// GEO set, so a dashboard can render the live fleet.
func (b *Board) SetAgentPosition(ctx context.Context, agentID ids.AgentID, p ids.Point) error {
	return b.redis.GeoAdd(ctx, b.geoKey(), &redis.GeoLocation{
		Name:      string(agentID),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

// RemoveAgent drops an agent from the live GEO set once it is no longer
// empty (matched, or the run has ended).
func (b *Board) RemoveAgent(ctx context.Context, agentID ids.AgentID) error {
	return b.redis.ZRem(ctx, b.geoKey(), string(agentID)).Err()
}

// NearbyEmptyAgents returns the empty agents within radiusKm of p, nearest
// first. Used only by telemetry consumers, never by the matcher itself —
// the simulator always matches against its own in-memory empty_agents
// snapshot to keep the run deterministic.
func (b *Board) NearbyEmptyAgents(ctx context.Context, p ids.Point, radiusKm float64) ([]ids.AgentID, error) {
	results, err := b.redis.GeoSearch(ctx, b.geoKey(), &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("telemetry: geo search: %w", err)
	}
	out := make([]ids.AgentID, len(results))
	for i, r := range results {
		out[i] = ids.AgentID(r)
	}
	return out, nil
}

// ProgressEvent is one tick of the run's progress, published on the
// progress pub/sub channel.
type ProgressEvent struct {
	Time             int64 `json:"time"`
	TotalAssignments int64 `json:"total_assignments"`
	ExpiredResources int64 `json:"expired_resources"`
}

// PublishProgress serializes and publishes ev to the run's progress
// channel. Delivery is best-effort: callers are expected to treat a
// publish error as non-fatal to the simulation itself.
func (b *Board) PublishProgress(ctx context.Context, ev ProgressEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("telemetry: marshaling progress event: %w", err)
	}
	return b.redis.Publish(ctx, b.progressChannel(), payload).Err()
}

// Clear removes the run's GEO key entirely, for use once a run completes.
func (b *Board) Clear(ctx context.Context) error {
	return b.redis.Del(ctx, b.geoKey()).Err()
}

func (b *Board) geoKey() string {
	return fmt.Sprintf(emptyAgentGeoKeyFmt, b.runID)
}

func (b *Board) progressChannel() string {
	return fmt.Sprintf(progressChannelFmt, b.runID)
}

// Snapshot reports the live coordinates of every currently empty agent,
// given the map needed to resolve each LocationOnRoad to a coordinate.
func Snapshot(m *citymap.Map, locations map[ids.AgentID]citymap.LocationOnRoad) map[ids.AgentID]ids.Point {
	out := make(map[ids.AgentID]ids.Point, len(locations))
	for id, loc := range locations {
		out[id] = m.Coordinate(loc)
	}
	return out
}
