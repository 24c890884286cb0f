package llm

// EventKind is one of the three canonical stream events.
type EventKind string

const (
	EventChunk EventKind = "chunk"
	EventDone  EventKind = "done"
	EventError EventKind = "error"
)

// Event is one canonical stream event. Text holds the incremental text of a
// chunk or the message of an error, and is empty for done.
type Event struct {
	Kind EventKind
	Text string
}

// Terminal reports whether no event can follow e.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// Topic returns the address of e under prefix, e.g. "refine:chunk".
func (e Event) Topic(prefix string) string {
	return prefix + ":" + string(e.Kind)
}

func chunk(text string) Event {
	return Event{Kind: EventChunk, Text: text}
}

func done() Event {
	return Event{Kind: EventDone}
}

func failure(msg string) Event {
	return Event{Kind: EventError, Text: msg}
}

// Sink receives events published under a topic. Payload is the chunk text,
// the error message, or nil for done.
type Sink interface {
	Emit(topic string, payload any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(topic string, payload any)

// Emit calls f.
func (f SinkFunc) Emit(topic string, payload any) { f(topic, payload) }

func publish(sink Sink, prefix string, e Event) {
	var payload any
	if e.Kind != EventDone {
		payload = e.Text
	}
	sink.Emit(e.Topic(prefix), payload)
}
