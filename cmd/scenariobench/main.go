// Command scenariobench runs the simulator's standard concrete scenarios
// and reports PASS/FAIL/SKIP for each, the way a release checklist would.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	cfg := loadConfig()

	bench := NewRunner(cfg)
	results := bench.RunAll()

	fmt.Println("\n== Summary ==")
	pass, fail, skip := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case "PASS":
			pass++
		case "FAIL":
			fail++
		case "SKIP":
			skip++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skip)

	if fail > 0 {
		os.Exit(1)
	}
}

// Config holds the bench's settings. Only LiveOracleAPIKey changes what
// RunAll does; Verbose and Timeout are parsed from flags and the
// environment but not consulted, so every scenario runs, prints its note,
// and has no time limit.
type Config struct {
	Verbose bool
	Timeout time.Duration
	// LiveOracleAPIKey, when set, enables the S7 live-routing cross-check
	// against the Google Maps Distance Matrix API. Left empty, S7 reports
	// SKIP rather than making a network call.
	LiveOracleAPIKey string
}

func loadConfig() Config {
	var cfg Config
	flag.BoolVar(&cfg.Verbose, "verbose", envOrDefaultBool("DISPATCHSIM_BENCH_VERBOSE", false), "per-scenario detail (parsed but not consulted; each scenario's note is always printed)")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("DISPATCHSIM_BENCH_TIMEOUT", 30*time.Second), "per-scenario timeout (parsed but not applied)")
	flag.StringVar(&cfg.LiveOracleAPIKey, "live-oracle-key", os.Getenv("DISPATCHSIM_BENCH_LIVE_ORACLE_KEY"), "Google Maps API key; enables the S7 live-routing cross-check")
	flag.Parse()
	return cfg
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
