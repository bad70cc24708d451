// Package report persists run configuration and final statistics to
// Postgres, and exposes them over a small gin HTTP API.
package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dispatchsim/internal/ids"
	"dispatchsim/internal/sim"
	"dispatchsim/internal/stats"
)

// Store persists one run's configuration and final report.
type Store struct {
	db *pgxpool.Pool
}

// NewStore wraps an already-connected pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Run is a completed simulation run as persisted and served back out.
type Run struct {
	ID        ids.RunID     `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Config    sim.Config    `json:"config"`
	Report    stats.Report  `json:"report"`
}

// Save inserts a completed run's configuration and statistics.
func (s *Store) Save(ctx context.Context, run Run) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO dispatch_runs (
			id, started_at,
			map_file, resource_file, total_agents, resource_max_life_time,
			agent_placement_seed, speed_reduction, simulation_end,
			total_assignments, expired_resources, total_resources,
			average_search_time, average_cruise_time, average_approach_time,
			average_wait_time, average_trip_time, expiration_rate,
			total_pool_time, average_pool_time, average_benefit
		) VALUES (
			$1, $2,
			$3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17, $18,
			$19, $20, $21
		)`,
		string(run.ID), run.StartedAt,
		run.Config.MapFile, run.Config.ResourceFile, run.Config.TotalAgents, run.Config.ResourceMaxLifeTime,
		run.Config.AgentPlacementSeed, run.Config.SpeedReduction, run.Config.SimulationEnd,
		run.Report.TotalAssignments, run.Report.ExpiredResources, run.Report.TotalResources,
		run.Report.AverageSearchTime, run.Report.AverageCruiseTime, run.Report.AverageApproachTime,
		run.Report.AverageWaitTime, run.Report.AverageTripTime, run.Report.ExpirationRate,
		run.Report.TotalPoolTime, run.Report.AveragePoolTime, run.Report.AverageBenefit,
	)
	return err
}

// Get loads one persisted run by id.
func (s *Store) Get(ctx context.Context, id ids.RunID) (*Run, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at,
			map_file, resource_file, total_agents, resource_max_life_time,
			agent_placement_seed, speed_reduction, simulation_end,
			total_assignments, expired_resources, total_resources,
			average_search_time, average_cruise_time, average_approach_time,
			average_wait_time, average_trip_time, expiration_rate,
			total_pool_time, average_pool_time, average_benefit
		FROM dispatch_runs WHERE id = $1`, string(id))

	var run Run
	var rawID string
	if err := row.Scan(
		&rawID, &run.StartedAt,
		&run.Config.MapFile, &run.Config.ResourceFile, &run.Config.TotalAgents, &run.Config.ResourceMaxLifeTime,
		&run.Config.AgentPlacementSeed, &run.Config.SpeedReduction, &run.Config.SimulationEnd,
		&run.Report.TotalAssignments, &run.Report.ExpiredResources, &run.Report.TotalResources,
		&run.Report.AverageSearchTime, &run.Report.AverageCruiseTime, &run.Report.AverageApproachTime,
		&run.Report.AverageWaitTime, &run.Report.AverageTripTime, &run.Report.ExpirationRate,
		&run.Report.TotalPoolTime, &run.Report.AveragePoolTime, &run.Report.AverageBenefit,
	); err != nil {
		return nil, err
	}
	run.ID = ids.RunID(rawID)
	return &run, nil
}
