package config

import (
	"time"

	"github.com/mosheduminer/lmql/common/env"
)

var (
	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// CapacityTotal is the process-wide budget of in-flight token capacity
	// shared by all concurrent streams. A stream reserves num_prompts *
	// max_tokens units before opening its connection; lower values throttle
	// throughput and reduce upstream rate limiting.
	CapacityTotal = func() int64 {
		v := env.Int64("CAPACITY_TOTAL", 32000)
		if v <= 0 {
			panic("CAPACITY_TOTAL must be positive")
		}
		return v
	}()

	// CapacityPollInterval sets how often a blocked stream re-checks the
	// capacity budget while waiting for admission (seconds).
	CapacityPollInterval = time.Duration(env.Float64("CAPACITY_POLL_INTERVAL", 0.5) * float64(time.Second))

	// StreamChunkTimeout is the default stall timeout: a stream is aborted
	// when no complete frame arrives within this window (seconds). Requests
	// may override it per call.
	StreamChunkTimeout = time.Duration(env.Float64("STREAM_CHUNK_TIMEOUT", 1.5) * float64(time.Second))

	// WatchdogInterval sets the cadence at which the stall watchdog samples
	// inter-frame latency (seconds).
	WatchdogInterval = time.Duration(env.Float64("WATCHDOG_INTERVAL", 0.5) * float64(time.Second))

	// TokenizerEncoding selects the tiktoken encoding backing the default
	// tokenizer handle. r50k_base is the GPT-2 byte-pair vocabulary.
	TokenizerEncoding = env.String("TOKENIZER_ENCODING", "r50k_base")

	// RelayTimeout bounds upstream HTTP requests (seconds) before aborting
	// them; 0 disables the overall bound so stream liveness is governed by
	// the stall watchdog alone.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)

	// EnablePrometheusMetrics activates the prometheus collectors when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)
)

var (
	// SweepScenarioFile points the cmd/sweep harness at its YAML scenario
	// list.
	SweepScenarioFile = env.String("SWEEP_SCENARIOS", "scenarios.yaml")
	// SweepConcurrency caps how many scenarios cmd/sweep streams at once.
	SweepConcurrency = env.Int("SWEEP_CONCURRENCY", 4)
	// SweepMetricsAddr exposes a /metrics listener from cmd/sweep when set
	// (e.g. ":2112"); empty disables it.
	SweepMetricsAddr = env.String("SWEEP_METRICS_ADDR", "")
)
