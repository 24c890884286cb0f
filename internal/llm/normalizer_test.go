package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/wagnerlima/promptmux/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// captured is what the fake provider saw on its latest request.
type captured struct {
	path    string
	headers http.Header
	body    map[string]any
}

func fakeProvider(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		last captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{path: r.URL.Path, headers: r.Header.Clone()}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &c.body)
		mu.Lock()
		last = c
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, func() captured {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func writeSSE(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	for _, l := range lines {
		fmt.Fprint(w, l)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func newNormalizer(t *testing.T, p config.Provider) *Normalizer {
	t.Helper()
	return New(config.Static(p), WithLogger(zaptest.NewLogger(t)))
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestStream_OpenAI(t *testing.T) {
	srv, seen := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, openAIChunk("Hel"), "\n", openAIChunk("lo"), "\n", "data: [DONE]\n\n")
	})
	n := newNormalizer(t, config.Provider{Provider: "openai", APIKey: "sk-1", BaseURL: srv.URL + "/", Model: "gpt-test"})

	events, err := n.Stream(context.Background(), "be brief", "hello")
	require.NoError(t, err)
	assert.Equal(t, []Event{chunk("Hel"), chunk("lo"), done()}, drain(t, events))

	assert.Equal(t, "/chat/completions", seen().path)
	assert.Equal(t, "Bearer sk-1", seen().headers.Get("Authorization"))
	assert.Equal(t, "application/json", seen().headers.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", seen().headers.Get("Accept"))
	assert.Equal(t, "gpt-test", seen().body["model"])
	assert.Equal(t, true, seen().body["stream"])
	assert.Equal(t, []any{
		map[string]any{"role": "system", "content": "be brief"},
		map[string]any{"role": "user", "content": "hello"},
	}, seen().body["messages"])
}

func TestStream_Anthropic(t *testing.T) {
	srv, seen := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w,
			"event: message_start\ndata: {\"type\":\"message_start\"}\n\n",
			anthropicDelta("Hi"),
			"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
		)
	})
	n := newNormalizer(t, config.Provider{Provider: "Claude", APIKey: "sk-ant", BaseURL: srv.URL})

	events, err := n.Stream(context.Background(), "be brief", "hello")
	require.NoError(t, err)
	assert.Equal(t, []Event{chunk("Hi"), done()}, drain(t, events))

	assert.Equal(t, "/messages", seen().path)
	assert.Equal(t, "sk-ant", seen().headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", seen().headers.Get("anthropic-version"))
	assert.Empty(t, seen().headers.Get("Authorization"))
	assert.Equal(t, "claude-3-sonnet-20240229", seen().body["model"])
	assert.Equal(t, float64(4096), seen().body["max_tokens"])
	assert.Equal(t, []any{
		map[string]any{"role": "user", "content": "be brief\n\nhello"},
	}, seen().body["messages"])
}

func TestStream_StatusErrorIsSynchronous(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	n := newNormalizer(t, config.Provider{APIKey: "bad", BaseURL: srv.URL})

	events, err := n.Stream(context.Background(), "s", "u")
	assert.Nil(t, events)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Contains(t, err.Error(), "401")
}

func TestRun_StatusErrorPublishesNothing(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	n := newNormalizer(t, config.Provider{APIKey: "bad", BaseURL: srv.URL})

	var published int
	err := n.Run(context.Background(), "refine", "s", "u", SinkFunc(func(string, any) { published++ }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Zero(t, published)
}

func TestStream_UnknownProtocol(t *testing.T) {
	n := newNormalizer(t, config.Provider{Protocol: "gemini"})

	_, err := n.Stream(context.Background(), "s", "u")
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
}

func TestStream_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	n := newNormalizer(t, config.Provider{BaseURL: url})

	_, err := n.Stream(context.Background(), "s", "u")
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestStream_BrokenBodyEndsWithError(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body := openAIChunk("partial")
		// Promise more than is sent so the client sees a truncated body.
		w.Header().Set("Content-Length", fmt.Sprint(len(body)+100))
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	})
	n := newNormalizer(t, config.Provider{BaseURL: srv.URL})

	events, err := n.Stream(context.Background(), "s", "u")
	require.NoError(t, err)
	got := drain(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, chunk("partial"), got[0])
	assert.Equal(t, EventError, got[1].Kind)
}

func TestStream_CancelEndsWithError(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, openAIChunk("first"))
		<-r.Context().Done()
	})
	n := newNormalizer(t, config.Provider{BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	events, err := n.Stream(ctx, "s", "u")
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, chunk("first"), first)
	cancel()

	rest := drain(t, events)
	require.Len(t, rest, 1)
	assert.Equal(t, EventError, rest[0].Kind)
}

func TestRun_PublishesTopics(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, openAIChunk("a"), openAIChunk("b"), "data: [DONE]\n")
	})
	n := newNormalizer(t, config.Provider{BaseURL: srv.URL})

	type published struct {
		topic   string
		payload any
	}
	var (
		mu  sync.Mutex
		got []published
	)
	finished := make(chan struct{})
	sink := SinkFunc(func(topic string, payload any) {
		mu.Lock()
		got = append(got, published{topic, payload})
		mu.Unlock()
		if topic == "er:done" {
			close(finished)
		}
	})

	require.NoError(t, n.Run(context.Background(), "er", "s", "u", sink))
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("no done event")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []published{
		{"er:chunk", "a"},
		{"er:chunk", "b"},
		{"er:done", nil},
	}, got)
}

func TestCollect(t *testing.T) {
	events := make(chan Event, 3)
	events <- chunk("a")
	events <- chunk("b")
	events <- failure("boom")
	close(events)

	text, err := Collect(events, "qa", nil)
	assert.Equal(t, "ab", text)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

// switchable is a Source whose configuration can change between calls.
type switchable struct {
	mu sync.Mutex
	p  config.Provider
}

func (s *switchable) Active() config.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Normalized()
}

func (s *switchable) set(p config.Provider) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func TestStream_ReadsConfigPerRequest(t *testing.T) {
	srv, seen := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "data: [DONE]\n")
	})
	src := &switchable{p: config.Provider{Provider: "openai", BaseURL: srv.URL, Model: "m1"}}
	n := New(src)

	events, err := n.Stream(context.Background(), "s", "u")
	require.NoError(t, err)
	drain(t, events)
	assert.Equal(t, "m1", seen().body["model"])

	src.set(config.Provider{Provider: "openai", BaseURL: srv.URL, Model: "m2"})
	events, err = n.Stream(context.Background(), "s", "u")
	require.NoError(t, err)
	drain(t, events)
	assert.Equal(t, "m2", seen().body["model"])
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		path     string
		response string
		want     string
		wantPath string
	}{
		{"openai", "openai", "/chat/completions", `{"choices":[{"message":{"role":"assistant","content":"full text"}}]}`, "full text", ""},
		{"anthropic", "anthropic", "/messages", `{"content":[{"type":"text","text":"full text"}]}`, "full text", ""},
		{"openai shape", "openai", "/chat/completions", `{"choices":[]}`, "", "choices[0].message.content"},
		{"anthropic shape", "anthropic", "/messages", `{"content":[{"type":"tool_use"}]}`, "", "content[0].text"},
		{"not json", "openai", "/chat/completions", `<html>`, "", "choices[0].message.content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.response)
			})
			n := newNormalizer(t, config.Provider{Provider: tt.provider, BaseURL: srv.URL})

			text, err := n.Complete(context.Background(), "s", "u")
			assert.Equal(t, tt.path, seen().path)
			assert.NotContains(t, seen().body, "stream")
			if tt.wantPath != "" {
				var se *ShapeError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.wantPath, se.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := &TransportError{Op: "send request to LLM API", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "send request to LLM API")
}
