package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mosheduminer/lmql/common/config"
	"github.com/mosheduminer/lmql/monitor"
)

const readBufferSize = 4 << 10

// Stream is one in-flight generation. Events arrive in order on Events;
// once that channel closes, Err reports the terminal outcome, nil meaning
// the stream ended normally. The producer applies backpressure, so a stream
// must be consumed or its context cancelled.
type Stream struct {
	events chan *NormalizedEvent

	mu  sync.Mutex
	err error
}

func newStream() *Stream {
	return &Stream{events: make(chan *NormalizedEvent)}
}

// Events returns the event channel. Range over it, then check Err.
func (s *Stream) Events() <-chan *NormalizedEvent { return s.events }

// Err reports the terminal outcome. Meaningful only after Events closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Stream) send(ctx context.Context, ev *NormalizedEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamJob carries everything the producer goroutine needs, prepared
// synchronously by Complete.
type streamJob struct {
	req      *GenerationRequest
	chat     bool
	echo     *NormalizedEvent
	endpoint *ResolvedEndpoint
	body     []byte
	units    int64
	timeout  time.Duration
	id       string
}

func (j *streamJob) format() string {
	if j.chat {
		return "chat"
	}
	return "completion"
}

// run is the producer goroutine behind one Stream. Order matters: the echo
// event goes out before any capacity is reserved or connection opened, and
// reserved units are released exactly once on every exit path.
func (c *Client) run(ctx context.Context, job *streamJob, s *Stream, lg glog.Logger) {
	defer close(s.events)

	if job.echo != nil {
		if !s.send(ctx, job.echo) {
			s.fail(errors.Wrap(ctx.Err(), "deliver echo event"))
			return
		}
	}
	// a chat request for zero tokens ends after the echo, no network at all
	if job.chat && job.req.MaxTokens == 0 {
		return
	}

	if err := c.capacity.Acquire(ctx, job.units); err != nil {
		s.fail(err)
		return
	}
	defer func() {
		c.capacity.Release(job.units)
		monitor.SetCapacity(c.capacity.Snapshot())
	}()
	monitor.SetCapacity(c.capacity.Snapshot())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, job.endpoint.URL, bytes.NewReader(job.body))
	if err != nil {
		s.fail(errors.Wrap(err, "build upstream request"))
		return
	}
	for k, v := range job.endpoint.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		s.fail(errors.Wrap(err, "open upstream stream"))
		return
	}

	st := newStreamState(job.timeout)
	closeBody := sync.OnceFunc(func() { _ = resp.Body.Close() })
	defer closeBody()

	monitor.ActiveStreams.Inc()
	defer monitor.ActiveStreams.Dec()

	wctx, stopWatchdog := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		st.watch(wctx, closeBody, lg)
		return nil
	})

	err = c.decodeLoop(ctx, job, s, resp.Body, st, lg)
	stopWatchdog()
	_ = g.Wait()

	if err != nil {
		s.fail(err)
	}
	monitor.StreamDuration.WithLabelValues(job.format(), outcomeLabel(err)).
		Observe(time.Since(st.start).Seconds())
}

// decodeLoop reads the response body, reassembles frames and yields
// normalized events until the sentinel, a classified failure, or the end of
// the source.
func (c *Client) decodeLoop(ctx context.Context, job *streamJob, s *Stream, body io.Reader, st *streamState, lg glog.Logger) error {
	dec := &streamDecoder{}
	norm := &chatNormalizer{tokenizer: c.tokenizer}
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			frames, done := dec.feed(string(buf[:n]))
			for _, frame := range frames {
				if frame == Done {
					return nil
				}
				if first := st.observeFrame(); first {
					monitor.FirstFrameLatency.WithLabelValues(job.format()).
						Observe(time.Since(st.start).Seconds())
				}
				monitor.FramesTotal.WithLabelValues(job.format()).Inc()

				ev, err := c.handleFrame(job, frame, norm, st, lg)
				if err != nil {
					return err
				}
				if ev == nil {
					continue
				}
				if !s.send(ctx, ev) {
					return errors.Wrap(ctx.Err(), "deliver stream event")
				}
			}
			if done {
				break
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if st.stalled.Load() {
				monitor.StreamStalls.Inc()
				return st.stallError()
			}
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), "read upstream stream")
			}
			return errors.Wrap(readErr, "read upstream stream")
		}
	}

	residual := dec.finish()
	if residual == Done {
		return nil
	}
	return c.classifyResidual(residual, st)
}

// handleFrame interprets one complete frame. nil event with nil error means
// the frame was skipped.
func (c *Client) handleFrame(job *streamJob, frame string, norm *chatNormalizer, st *streamState, lg glog.Logger) (*NormalizedEvent, error) {
	if job.chat {
		var resp chatStreamResponse
		if err := json.Unmarshal([]byte(frame), &resp); err != nil {
			lg.Warn("skipping frame that failed to decode",
				zap.String("frame", frame), zap.Error(err))
			monitor.DecodeWarnings.WithLabelValues(job.format()).Inc()
			return nil, nil
		}
		if resp.Error != nil {
			return nil, c.classifyUpstreamError(resp.Error.Message, st)
		}
		return norm.normalize(&resp)
	}

	var resp completionStreamResponse
	if err := json.Unmarshal([]byte(frame), &resp); err != nil {
		lg.Warn("skipping frame that failed to decode",
			zap.String("frame", frame), zap.Error(err))
		monitor.DecodeWarnings.WithLabelValues(job.format()).Inc()
		return nil, nil
	}
	if resp.Error != nil {
		return nil, c.classifyUpstreamError(resp.Error.Message, st)
	}
	return resp.normalized(), nil
}

// classifyResidual interprets what is left in the buffer when the source
// closes without a sentinel. Request-level failures arrive as a plain JSON
// error body with no frame prefix, so the residual is parsed as an error
// envelope first.
func (c *Client) classifyResidual(residual string, st *streamState) error {
	var envelope errorEnvelope
	if err := json.Unmarshal([]byte(residual), &envelope); err != nil {
		frames, sinceLast, avgInterval, duration := st.stats()
		return &StreamError{
			Message:          "unexpected end of stream",
			Frames:           frames,
			SinceLastFrame:   sinceLast,
			AvgFrameInterval: avgInterval,
			Duration:         duration,
			Residual:         residual,
		}
	}
	message := ""
	if envelope.Error != nil {
		message = envelope.Error.Message
	}
	return c.classifyUpstreamError(message, st)
}

// classifyUpstreamError maps an embedded upstream error onto the typed
// failure the caller dispatches on. Rate limits snapshot the local admission
// state so the caller can tell which side is saturated.
func (c *Client) classifyUpstreamError(message string, st *streamState) error {
	if strings.Contains(strings.ToLower(message), "rate limit") {
		monitor.RateLimits.Inc()
		reserved, total := c.capacity.Snapshot()
		return &RateLimitError{Message: message, Reserved: reserved, Total: total}
	}
	frames, sinceLast, avgInterval, duration := st.stats()
	return &StreamError{
		Message:          message,
		Frames:           frames,
		SinceLastFrame:   sinceLast,
		AvgFrameInterval: avgInterval,
		Duration:         duration,
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var rateLimit *RateLimitError
	var stall *StreamStallError
	switch {
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &stall):
		return "stall"
	default:
		return "error"
	}
}

// streamState tracks frame arrival for the watchdog and for error
// diagnostics. lastFrame is shared with the watchdog goroutine.
type streamState struct {
	start   time.Time
	timeout time.Duration

	lastFrame atomic.Int64
	stalled   atomic.Bool

	mu           sync.Mutex
	frames       int
	intervalsSum time.Duration
}

func newStreamState(timeout time.Duration) *streamState {
	st := &streamState{start: time.Now(), timeout: timeout}
	st.lastFrame.Store(st.start.UnixNano())
	return st
}

// observeFrame records one complete frame, reporting whether it was the
// first. Frames that later fail to parse count too: the watchdog measures
// upstream liveness, not payload quality.
func (st *streamState) observeFrame() (first bool) {
	now := time.Now()
	last := time.Unix(0, st.lastFrame.Load())
	st.lastFrame.Store(now.UnixNano())

	st.mu.Lock()
	first = st.frames == 0
	st.frames++
	st.intervalsSum += now.Sub(last)
	st.mu.Unlock()
	return first
}

func (st *streamState) stats() (frames int, sinceLast, avgInterval, duration time.Duration) {
	st.mu.Lock()
	frames = st.frames
	sum := st.intervalsSum
	st.mu.Unlock()
	if frames > 0 {
		avgInterval = sum / time.Duration(frames)
	}
	sinceLast = time.Since(time.Unix(0, st.lastFrame.Load()))
	duration = time.Since(st.start)
	return frames, sinceLast, avgInterval, duration
}

// watch closes the response body when no complete frame arrives within the
// timeout, at most once, then exits. It also exits when the stream context
// is cancelled.
func (st *streamState) watch(ctx context.Context, closeBody func(), lg glog.Logger) {
	ticker := time.NewTicker(config.WatchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(time.Unix(0, st.lastFrame.Load()))
			if elapsed <= st.timeout {
				continue
			}
			st.stalled.Store(true)
			lg.Warn("no complete frame within timeout, closing stream",
				zap.Duration("elapsed", elapsed),
				zap.Duration("timeout", st.timeout))
			closeBody()
			return
		}
	}
}

func (st *streamState) stallError() *StreamStallError {
	frames, sinceLast, avgInterval, _ := st.stats()
	return &StreamStallError{
		Timeout:          st.timeout,
		Elapsed:          sinceLast,
		Frames:           frames,
		AvgFrameInterval: avgInterval,
	}
}
