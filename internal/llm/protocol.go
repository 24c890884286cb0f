package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wagnerlima/promptmux/internal/config"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

type frameKind int

const (
	frameSkip frameKind = iota
	frameText
	frameStop
	frameError
)

// frame is the result of parsing one SSE data payload.
type frame struct {
	kind frameKind
	text string
}

// wireProtocol is one provider family's request and response layout.
type wireProtocol interface {
	name() string
	newRequest(ctx context.Context, p config.Provider, system, user string, stream bool) (*http.Request, error)
	// parseEvent interprets the payload of one "data: " line.
	parseEvent(data []byte) frame
	// parseCompletion extracts the text of a non-streaming response.
	parseCompletion(body []byte) (string, error)
}

func protocolFor(name string) (wireProtocol, error) {
	switch name {
	case config.ProtocolOpenAI:
		return chatCompletions{}, nil
	case config.ProtocolAnthropic:
		return messages{}, nil
	}
	return nil, &ProtocolError{Protocol: name}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func newJSONRequest(ctx context.Context, url string, body any, stream bool) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

// chatCompletions is the OpenAI-style family.
type chatCompletions struct{}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (chatCompletions) name() string { return config.ProtocolOpenAI }

func (chatCompletions) newRequest(ctx context.Context, p config.Provider, system, user string, stream bool) (*http.Request, error) {
	body := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: stream,
	}
	req, err := newJSONRequest(ctx, p.BaseURL+"/chat/completions", body, stream)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	return req, nil
}

var doneMarker = []byte("[DONE]")

func (chatCompletions) parseEvent(data []byte) frame {
	if bytes.Equal(data, doneMarker) {
		return frame{kind: frameStop}
	}
	var c chatChunk
	if err := json.Unmarshal(data, &c); err != nil {
		return frame{}
	}
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
		return frame{}
	}
	return frame{kind: frameText, text: c.Choices[0].Delta.Content}
}

func (chatCompletions) parseCompletion(body []byte) (string, error) {
	var c chatCompletion
	if err := json.Unmarshal(body, &c); err != nil || len(c.Choices) == 0 || c.Choices[0].Message.Content == nil {
		return "", &ShapeError{Protocol: config.ProtocolOpenAI, Path: "choices[0].message.content"}
	}
	return *c.Choices[0].Message.Content, nil
}

// messages is the Anthropic-style family. It has no system field; the
// instruction is prepended to the single user message.
type messages struct{}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream,omitempty"`
}

type messagesEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type messagesCompletion struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

func (messages) name() string { return config.ProtocolAnthropic }

func (messages) newRequest(ctx context.Context, p config.Provider, system, user string, stream bool) (*http.Request, error) {
	content := user
	if system != "" {
		content = system + "\n\n" + user
	}
	body := messagesRequest{
		Model:     p.Model,
		MaxTokens: anthropicMaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: content}},
		Stream:    stream,
	}
	req, err := newJSONRequest(ctx, p.BaseURL+"/messages", body, stream)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", p.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	return req, nil
}

func (messages) parseEvent(data []byte) frame {
	var e messagesEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return frame{}
	}
	switch e.Type {
	case "content_block_delta":
		if e.Delta != nil && e.Delta.Text != "" {
			return frame{kind: frameText, text: e.Delta.Text}
		}
	case "message_stop":
		return frame{kind: frameStop}
	case "error":
		msg := "provider reported an error"
		if e.Error != nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return frame{kind: frameError, text: msg}
	}
	return frame{}
}

func (messages) parseCompletion(body []byte) (string, error) {
	var c messagesCompletion
	if err := json.Unmarshal(body, &c); err != nil || len(c.Content) == 0 || c.Content[0].Text == nil {
		return "", &ShapeError{Protocol: config.ProtocolAnthropic, Path: "content[0].text"}
	}
	return *c.Content[0].Text, nil
}
