// Package monitor exposes Prometheus collectors for the streaming client.
// Collectors are registered on the default registry; serving them is the
// embedding program's choice.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveStreams counts generations holding an open upstream connection.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lmql",
		Name:      "active_streams",
		Help:      "Streams with an open upstream connection.",
	})

	// CapacityReserved tracks the units currently reserved by running
	// requests.
	CapacityReserved = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lmql",
		Name:      "capacity_reserved_units",
		Help:      "Capacity units reserved by in-flight requests.",
	})

	// CapacityTotal reports the configured admission ceiling.
	CapacityTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lmql",
		Name:      "capacity_total_units",
		Help:      "Configured capacity ceiling in units.",
	})

	// FramesTotal counts complete frames extracted from upstream streams.
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lmql",
		Name:      "frames_total",
		Help:      "Complete frames extracted, by wire format.",
	}, []string{"format"})

	// DecodeWarnings counts frames skipped because they failed to parse.
	DecodeWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lmql",
		Name:      "decode_warnings_total",
		Help:      "Frames skipped after a parse failure, by wire format.",
	}, []string{"format"})

	// StreamStalls counts streams aborted by the watchdog.
	StreamStalls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lmql",
		Name:      "stream_stalls_total",
		Help:      "Streams aborted because no frame arrived in time.",
	})

	// RateLimits counts upstream rate-limit errors.
	RateLimits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lmql",
		Name:      "rate_limits_total",
		Help:      "Upstream responses classified as rate limits.",
	})

	// FirstFrameLatency observes the time from request start to the first
	// complete frame.
	FirstFrameLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lmql",
		Name:      "first_frame_latency_seconds",
		Help:      "Latency until the first complete frame, by wire format.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"format"})

	// StreamDuration observes the wall time of finished streams.
	StreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lmql",
		Name:      "stream_duration_seconds",
		Help:      "Stream wall time from open to termination.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"format", "outcome"})
)

// SetCapacity records one admission snapshot.
func SetCapacity(reserved, total int64) {
	CapacityReserved.Set(float64(reserved))
	CapacityTotal.Set(float64(total))
}
