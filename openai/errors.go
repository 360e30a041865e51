package openai

import (
	"fmt"
	"time"
)

// ConfigurationError reports an unresolved endpoint or credential, or a
// request that violates the wire format's own rules. It always surfaces
// before any network traffic.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// RateLimitError reports upstream throttling. Reserved and Total snapshot
// the local admission state at classification time, so the caller can tell
// an overloaded client apart from an overloaded account.
type RateLimitError struct {
	Message  string
	Reserved int64
	Total    int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (local capacity %d/%d units reserved)", e.Message, e.Reserved, e.Total)
}

// StreamStallError reports that the watchdog closed the connection because
// no complete frame arrived within Timeout.
type StreamStallError struct {
	Timeout          time.Duration
	Elapsed          time.Duration
	Frames           int
	AvgFrameInterval time.Duration
}

func (e *StreamStallError) Error() string {
	return fmt.Sprintf("token stream took too long to produce the next frame: %.2fs since last frame exceeds the %.2fs timeout (%d frames received, average frame interval %.2fs)",
		e.Elapsed.Seconds(), e.Timeout.Seconds(), e.Frames, e.AvgFrameInterval.Seconds())
}

// StreamError reports a malformed or unexpected upstream payload, or an
// embedded upstream error that is not a rate limit. The counters describe
// the stream up to the point of failure.
type StreamError struct {
	Message          string
	Frames           int
	SinceLastFrame   time.Duration
	AvgFrameInterval time.Duration
	Duration         time.Duration
	Residual         string
}

func (e *StreamError) Error() string {
	msg := fmt.Sprintf("%s (after receiving %d frames, %.2fs since last frame, average frame interval %.2fs, stream duration %.2fs)",
		e.Message, e.Frames, e.SinceLastFrame.Seconds(), e.AvgFrameInterval.Seconds(), e.Duration.Seconds())
	if e.Residual != "" {
		msg += fmt.Sprintf(": residual %q", e.Residual)
	}
	return msg
}
