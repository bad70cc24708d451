// Command dispatchsim runs one discrete-event dispatch simulation end to
// end: load the map and resource trace, place agents, run the event loop,
// and print the resulting statistics. Persistence and live telemetry are
// both optional and enabled only when their connection settings resolve.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatchsim/internal/config"
	"dispatchsim/internal/ids"
	"dispatchsim/internal/infra"
	"dispatchsim/internal/report"
	"dispatchsim/internal/searchpolicy"
	"dispatchsim/internal/sim"
	"dispatchsim/internal/stats"
	"dispatchsim/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := newRunID()
	startedAt := time.Now()

	simCfg := sim.Config{
		MapFile:             cfg.MapFile,
		ResourceFile:        cfg.ResourceFile,
		BoundingPolygonFile: cfg.BoundingPolygonFile,
		TotalAgents:         cfg.TotalAgents,
		ResourceMaxLifeTime: cfg.ResourceMaxLifeTime,
		AgentPlacementSeed:  cfg.AgentPlacementSeed,
		SpeedReduction:      cfg.SpeedReduction,
		SimulationEnd:       cfg.SimulationEnd,
	}

	log.Printf("dispatchsim: run %s starting, map=%s resources=%s agents=%d", runID, cfg.MapFile, cfg.ResourceFile, cfg.TotalAgents)

	m, resources, err := sim.Load(simCfg)
	if err != nil {
		log.Fatalf("dispatchsim: setup failed: %v", err)
	}

	agents := sim.PlaceAgents(m, cfg.TotalAgents, cfg.AgentPlacementSeed, 0)
	policy := searchpolicy.NewRandomWalk(cfg.AgentPlacementSeed)

	s := sim.New(m, agents, resources, policy, 0, cfg.SimulationEnd, log.Default())

	board, stopTelemetry := maybeAttachTelemetry(ctx, cfg, runID)
	if board != nil {
		s.SetTelemetry(board)
		defer stopTelemetry()
	}

	result, err := s.Run()
	if err != nil {
		log.Fatalf("dispatchsim: run failed: %v", err)
	}

	printReport(runID, simCfg, result)

	if store := maybeOpenStore(ctx, cfg); store != nil {
		run := report.Run{ID: runID, StartedAt: startedAt, Config: simCfg, Report: result}
		if err := store.Save(ctx, run); err != nil {
			log.Printf("dispatchsim: saving run report: %v", err)
		}
		if cfg.HTTP.Addr != "" {
			serveReportAPI(cfg, store)
		}
	}
}

// maybeAttachTelemetry wires a live telemetry board over Redis. Redis is
// optional infrastructure: a run with no reachable Redis proceeds with a
// nil board exactly as if telemetry were never configured.
func maybeAttachTelemetry(ctx context.Context, cfg config.Config, runID ids.RunID) (sim.Telemetry, func()) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := infra.NewRedis(cfg.Redis.Addr)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("dispatchsim: telemetry disabled, redis unreachable at %s: %v", cfg.Redis.Addr, err)
		_ = client.Close()
		return nil, nil
	}
	board := telemetry.NewBoard(client, runID)
	return board, func() { _ = client.Close() }
}

// maybeOpenStore connects the Postgres run-report store. A run with no
// reachable database still prints its report to stdout; persistence is
// strictly additive.
func maybeOpenStore(ctx context.Context, cfg config.Config) *report.Store {
	if cfg.DB.DSN == "" {
		return nil
	}
	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Printf("dispatchsim: run report will not be persisted, db unreachable: %v", err)
		return nil
	}
	return report.NewStore(pool)
}

// serveReportAPI blocks serving the persisted-run HTTP API. It is reached
// only after the simulation has finished and a save of its report was
// attempted (a failed save is logged, and serving starts anyway).
// dispatchsim has no server-only mode: config.Load requires the map and
// resource files on every invocation.
func serveReportAPI(cfg config.Config, store *report.Store) {
	srv := report.NewServer(store)
	httpServer := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Routes()}
	log.Printf("dispatchsim: report API listening on %s", cfg.HTTP.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("dispatchsim: report API stopped: %v", err)
	}
}

// printReport echoes the run's configuration and resulting statistics to
// stdout, per the configuration-echo-plus-statistics contract every run
// must satisfy regardless of whether persistence is configured.
func printReport(runID ids.RunID, cfg sim.Config, r stats.Report) {
	fmt.Printf("\n== dispatchsim run %s ==\n", runID)
	fmt.Printf("map_file=%s resource_file=%s total_agents=%d resource_max_life_time=%d agent_placement_seed=%d speed_reduction=%.3f simulation_end=%d\n",
		cfg.MapFile, cfg.ResourceFile, cfg.TotalAgents, cfg.ResourceMaxLifeTime, cfg.AgentPlacementSeed, cfg.SpeedReduction, cfg.SimulationEnd)
	fmt.Println("-- statistics --")
	fmt.Printf("total_assignments:      %d\n", r.TotalAssignments)
	fmt.Printf("expired_resources:      %d (%.2f%%)\n", r.ExpiredResources, r.ExpirationRate*100)
	fmt.Printf("total_resources:        %d\n", r.TotalResources)
	fmt.Printf("average_search_time:    %.2fs\n", r.AverageSearchTime)
	fmt.Printf("average_cruise_time:    %.2fs\n", r.AverageCruiseTime)
	fmt.Printf("average_approach_time:  %.2fs\n", r.AverageApproachTime)
	fmt.Printf("average_wait_time:      %.2fs\n", r.AverageWaitTime)
	fmt.Printf("average_trip_time:      %.2fs\n", r.AverageTripTime)
	fmt.Printf("total_pool_time:        %ds\n", r.TotalPoolTime)
	fmt.Printf("average_pool_time:      %.2fs\n", r.AveragePoolTime)
	fmt.Printf("average_benefit:        %.4f\n", r.AverageBenefit)
}

func newRunID() ids.RunID {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return ids.RunID(fmt.Sprintf("run-%d", time.Now().UnixNano()))
	}
	return ids.RunID("run-" + hex.EncodeToString(buf))
}
