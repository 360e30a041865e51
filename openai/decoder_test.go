package openai

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleStream = "data: {\"id\":\"1\"}\n\ndata: {\"id\":\"2\"}\n\ndata: {\"id\":\"3\"}\n\ndata: [DONE]\n\n"

var sampleFrames = []string{`{"id":"1"}`, `{"id":"2"}`, `{"id":"3"}`}

func drain(dec *streamDecoder, chunks ...string) (frames []string, done bool) {
	for _, c := range chunks {
		fs, d := dec.feed(c)
		frames = append(frames, fs...)
		done = d
	}
	return frames, done
}

func TestFeedSingleChunk(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := dec.feed(sampleStream)
	require.Equal(t, sampleFrames, frames)
	require.True(t, done)
	require.Equal(t, Done, dec.finish())
}

func TestFeedSplitIndependence(t *testing.T) {
	for i := 1; i < len(sampleStream); i++ {
		dec := &streamDecoder{}
		frames, done := drain(dec, sampleStream[:i], sampleStream[i:])
		require.Equalf(t, sampleFrames, frames, "split at byte %d", i)
		require.Truef(t, done, "split at byte %d", i)
		require.Equalf(t, Done, dec.finish(), "split at byte %d", i)
	}
}

func TestFeedByteAtATime(t *testing.T) {
	dec := &streamDecoder{}
	var frames []string
	done := false
	for i := 0; i < len(sampleStream); i++ {
		fs, d := dec.feed(sampleStream[i : i+1])
		frames = append(frames, fs...)
		done = d
	}
	require.Equal(t, sampleFrames, frames)
	require.True(t, done)
	require.Equal(t, Done, dec.finish())
}

func TestFeedRandomSplits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 100; trial++ {
		dec := &streamDecoder{}
		var frames []string
		done := false
		rest := sampleStream
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			fs, d := dec.feed(rest[:n])
			frames = append(frames, fs...)
			done = d
			rest = rest[n:]
		}
		require.Equal(t, sampleFrames, frames)
		require.True(t, done)
		require.Equal(t, Done, dec.finish())
	}
}

func TestFeedHoldsPartialFrame(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := dec.feed("data: {\"par")
	require.Empty(t, frames)
	require.False(t, done)

	frames, done = dec.feed("tial\":1}\n\ndata: [DONE]\n\n")
	require.Equal(t, []string{`{"partial":1}`}, frames)
	require.True(t, done)
	require.Equal(t, Done, dec.finish())
}

func TestFeedSkipsEmptyFrames(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := drain(dec,
		"data: A\n\ndata: \n\ndata: B\n\n",
		"data: [DONE]\n\n",
	)
	require.Equal(t, []string{"A", "B"}, frames)
	require.True(t, done)
	require.Equal(t, Done, dec.finish())
}

func TestFeedSentinelWithTrailingWhitespace(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := dec.feed("data: {\"a\":1}\n\ndata: [DONE]  \n\n")
	require.Equal(t, []string{`{"a":1}`}, frames)
	require.True(t, done)
	require.Equal(t, Done, dec.finish())
}

func TestFinishReturnsUnframedResidual(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := dec.feed(`{"error": {"message": "boom"}}`)
	require.Empty(t, frames)
	require.False(t, done)
	require.Equal(t, `{"error": {"message": "boom"}}`, dec.finish())
}

func TestFinishReturnsTruncatedFrame(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := dec.feed("data: {\"a\":1}\n\ndata: {\"trunc")
	require.Equal(t, []string{`{"a":1}`}, frames)
	require.False(t, done)
	require.Equal(t, `{"trunc`, dec.finish())
}

func TestFeedExtractsInteriorSentinelAsFrame(t *testing.T) {
	dec := &streamDecoder{}
	frames, done := dec.feed("data: {\"a\":1}\n\ndata: [DONE]\n\ndata: {\"b\":2}\n\n")
	require.Equal(t, []string{`{"a":1}`, Done}, frames)
	require.False(t, done)
	require.Equal(t, `{"b":2}`, dec.finish())
}
