// Package llm sends text to a language-model provider and republishes the
// provider's token stream as canonical chunk/done/error events.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/config"
)

const readBufferSize = 4096

// Normalizer performs provider requests using the configuration active at
// the time of each call.
type Normalizer struct {
	source config.Source
	client *http.Client
	log    *zap.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithHTTPClient replaces the HTTP client. The default client has no
// timeout of its own.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Normalizer) { n.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

// New returns a Normalizer reading provider settings from source.
func New(source config.Source, opts ...Option) *Normalizer {
	n := &Normalizer{
		source: source,
		client: &http.Client{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Stream sends one streaming request. Failures before the body is reached
// are returned directly. Otherwise the returned channel yields zero or more
// chunks followed by exactly one done or error event, then closes.
//
// The stream runs until the provider finishes or the connection fails.
// Cancelling ctx aborts the underlying request, which surfaces as an error
// event; callers that want a stream to outlive a request scope should pass
// context.WithoutCancel.
func (n *Normalizer) Stream(ctx context.Context, system, user string) (<-chan Event, error) {
	resp, proto, err := n.open(ctx, system, user, true)
	if err != nil {
		return nil, err
	}
	events := make(chan Event, 16)
	go n.pump(resp, proto, events)
	return events, nil
}

// Run is the fire-and-forget form of Stream: events are published to sink
// under prefix from a background goroutine.
func (n *Normalizer) Run(ctx context.Context, prefix, system, user string, sink Sink) error {
	events, err := n.Stream(ctx, system, user)
	if err != nil {
		n.log.Warn("Stream rejected", zap.String("prefix", prefix), zap.Error(err))
		return err
	}
	go Collect(events, prefix, sink)
	return nil
}

// Complete sends one non-streaming request and returns the full text.
func (n *Normalizer) Complete(ctx context.Context, system, user string) (string, error) {
	resp, proto, err := n.open(ctx, system, user, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "read LLM response", Err: err}
	}
	return proto.parseCompletion(body)
}

func (n *Normalizer) open(ctx context.Context, system, user string, stream bool) (*http.Response, wireProtocol, error) {
	cfg := n.source.Active()
	proto, err := protocolFor(cfg.Protocol)
	if err != nil {
		return nil, nil, err
	}
	req, err := proto.newRequest(ctx, cfg, system, user, stream)
	if err != nil {
		return nil, nil, &TransportError{Op: "build LLM request", Err: err}
	}

	n.log.Debug("Sending LLM request",
		zap.String("protocol", proto.name()), zap.String("model", cfg.Model), zap.Bool("stream", stream))
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Op: "send request to LLM API", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		text := strings.TrimSpace(string(body))
		if err != nil && text == "" {
			text = fmt.Sprintf("%s (reading body: %v)", resp.Status, err)
		}
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: text}
	}
	return resp, proto, nil
}

// pump reads the body until a terminal event, then closes events.
func (n *Normalizer) pump(resp *http.Response, proto wireProtocol, events chan<- Event) {
	defer close(events)
	defer resp.Body.Close()

	start := time.Now()
	dec := newDecoder(proto)
	chunks := 0
	emit := func(batch []Event) {
		for _, e := range batch {
			switch e.Kind {
			case EventChunk:
				chunks++
			case EventDone:
				n.log.Info("Stream completed",
					zap.String("protocol", proto.name()), zap.Int("chunks", chunks), zap.Duration("elapsed", time.Since(start)))
			case EventError:
				n.log.Warn("Stream failed",
					zap.String("protocol", proto.name()), zap.String("error", e.Text), zap.Duration("elapsed", time.Since(start)))
			}
			events <- e
		}
	}

	buf := make([]byte, readBufferSize)
	for !dec.Closed() {
		nr, err := resp.Body.Read(buf)
		if nr > 0 {
			emit(dec.Feed(buf[:nr]))
		}
		switch {
		case errors.Is(err, io.EOF):
			emit(dec.Close())
		case err != nil:
			emit(dec.Fail(err))
		}
	}
}

// Collect drains events, publishing each to sink under prefix when sink is
// non-nil, and returns the concatenated chunks. An error event becomes the
// returned error.
func Collect(events <-chan Event, prefix string, sink Sink) (string, error) {
	var b strings.Builder
	var streamErr error
	for e := range events {
		if sink != nil {
			publish(sink, prefix, e)
		}
		switch e.Kind {
		case EventChunk:
			b.WriteString(e.Text)
		case EventError:
			streamErr = errors.New(e.Text)
		}
	}
	return b.String(), streamErr
}
