package openai

import (
	"strings"
)

const (
	// DataPrefix labels one event frame on the wire.
	DataPrefix = "data: "
	// Done is the terminal sentinel frame.
	Done = "[DONE]"
)

// frameDelimiter separates complete frames inside the accumulation buffer.
const frameDelimiter = "\n" + DataPrefix

// streamDecoder reassembles complete frames from a stream delivered in
// arbitrary chunk sizes. It only owns the accumulation buffer; interpreting
// frame payloads is the caller's job.
type streamDecoder struct {
	buf string
}

// feed appends one raw chunk and returns every frame it completed, in order,
// with the "data: " prefix and surrounding whitespace removed. Empty frames
// are dropped. done reports whether the buffered data now ends with the
// terminal sentinel; a partially delivered frame stays buffered.
func (d *streamDecoder) feed(chunk string) (frames []string, done bool) {
	d.buf += chunk
	done = strings.HasSuffix(strings.TrimSpace(d.buf), Done)

	for strings.Contains(d.buf, DataPrefix) {
		parts := strings.Split(d.buf, frameDelimiter)
		for len(parts) > 0 && parts[0] == "" {
			parts = parts[1:]
		}
		if len(parts) == 0 {
			d.buf = ""
			break
		}
		if len(parts) == 1 {
			// head of a frame whose tail has not arrived yet
			d.buf = parts[0]
			break
		}
		frame := strings.TrimSpace(parts[0])
		d.buf = strings.Join(parts[1:], frameDelimiter)
		frame = strings.TrimPrefix(frame, DataPrefix)
		if strings.TrimSpace(frame) == "" {
			continue
		}
		frames = append(frames, frame)
	}
	return frames, done
}

// finish returns the trimmed residual once the source is exhausted. A normal
// stream leaves exactly the sentinel behind.
func (d *streamDecoder) finish() string {
	return strings.TrimSpace(d.buf)
}
