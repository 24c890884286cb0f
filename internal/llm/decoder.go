package llm

import (
	"bytes"
)

var dataPrefix = []byte("data: ")

// Decoder turns a provider's raw SSE body into canonical events. Input may
// be split anywhere, including inside a line; partial lines are held until
// their newline arrives. Once a terminal event has been produced the
// decoder ignores all further input.
type Decoder struct {
	proto   wireProtocol
	pending []byte
	closed  bool
}

// NewDecoder returns a decoder for the named protocol family.
func NewDecoder(protocol string) (*Decoder, error) {
	proto, err := protocolFor(protocol)
	if err != nil {
		return nil, err
	}
	return newDecoder(proto), nil
}

func newDecoder(proto wireProtocol) *Decoder {
	return &Decoder{proto: proto}
}

// Closed reports whether a terminal event has been produced.
func (d *Decoder) Closed() bool {
	return d.closed
}

// Feed consumes the next piece of the body. When a terminal marker is found
// the rest of the piece is discarded along with any later input.
func (d *Decoder) Feed(p []byte) []Event {
	if d.closed {
		return nil
	}
	d.pending = append(d.pending, p...)

	var out []Event
	start := 0
	for {
		i := bytes.IndexByte(d.pending[start:], '\n')
		if i < 0 {
			break
		}
		line := d.pending[start : start+i]
		start += i + 1
		if e, ok := d.line(line); ok {
			out = append(out, e)
			if e.Terminal() {
				d.finish()
				return out
			}
		}
	}
	n := copy(d.pending, d.pending[start:])
	d.pending = d.pending[:n]
	return out
}

// Close marks the end of the body. A final unterminated line is still
// interpreted, and done is produced if no terminal marker was seen.
func (d *Decoder) Close() []Event {
	if d.closed {
		return nil
	}
	var out []Event
	if len(d.pending) > 0 {
		if e, ok := d.line(d.pending); ok {
			out = append(out, e)
		}
	}
	if len(out) == 0 || !out[len(out)-1].Terminal() {
		out = append(out, done())
	}
	d.finish()
	return out
}

// Fail ends the stream with an error event unless it already ended.
func (d *Decoder) Fail(err error) []Event {
	if d.closed {
		return nil
	}
	d.finish()
	return []Event{failure(err.Error())}
}

func (d *Decoder) finish() {
	d.closed = true
	d.pending = nil
}

// line interprets one SSE line. Blank lines, non-data lines and payloads
// that do not parse are skipped.
func (d *Decoder) line(raw []byte) (Event, bool) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 || !bytes.HasPrefix(line, dataPrefix) {
		return Event{}, false
	}
	f := d.proto.parseEvent(line[len(dataPrefix):])
	switch f.kind {
	case frameText:
		return chunk(f.text), true
	case frameStop:
		return done(), true
	case frameError:
		return failure(f.text), true
	}
	return Event{}, false
}
