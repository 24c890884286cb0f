package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/config"
	"github.com/wagnerlima/promptmux/internal/llm"
	"github.com/wagnerlima/promptmux/internal/models"
	"github.com/wagnerlima/promptmux/internal/prompts"
	"github.com/wagnerlima/promptmux/internal/session"
)

// SettingsStore reads and replaces the provider settings.
type SettingsStore interface {
	config.Source
	Save(p config.Provider) error
}

// RefineTools holds references needed by the model-backed tool handlers.
type RefineTools struct {
	Session    *session.Session
	Normalizer *llm.Normalizer
	Settings   SettingsStore
	Log        *zap.Logger
}

// --- Input types ---

type RefineInput struct {
	Target     string `json:"target" jsonschema:"Refinement target: refine, qa, er, uml, flowchart, journey or stories"`
	Content    string `json:"content" jsonschema:"Text to send to the model"`
	Question   string `json:"question,omitempty" jsonschema:"Question to answer (qa target only)"`
	RecordKind string `json:"record_kind,omitempty" jsonschema:"Where to record the result: project, section or topic"`
	RecordID   string `json:"record_id,omitempty" jsonschema:"Id of the project, section or topic that records the result"`
}

type RefineOutput struct {
	Prefix       string             `json:"prefix"`
	Text         string             `json:"text"`
	Refinement   *models.Refinement `json:"refinement,omitempty"`
	SavedDiagram models.DiagramKind `json:"saved_diagram,omitempty"`
}

type SaveSettingsInput struct {
	Provider string `json:"provider" jsonschema:"Provider label, e.g. openai or anthropic"`
	Protocol string `json:"protocol,omitempty" jsonschema:"Wire protocol: openai or anthropic; inferred from provider when empty"`
	APIKey   string `json:"api_key" jsonschema:"Provider API key"`
	BaseURL  string `json:"base_url,omitempty" jsonschema:"API base URL"`
	Model    string `json:"model,omitempty" jsonschema:"Model name"`
}

// --- Handlers ---

// Refine streams the model's answer. Every canonical event is forwarded to
// the client as a log notification whose logger is the event topic
// ("refine:chunk", "er:done", ...). The assembled text is returned once
// the stream ends and, if requested, recorded as a refinement.
func (t *RefineTools) Refine(ctx context.Context, req *mcp.CallToolRequest, input RefineInput) (*mcp.CallToolResult, any, error) {
	target, err := prompts.Lookup(input.Target)
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	if input.Content == "" {
		return toolError("Content is required"), nil, nil
	}
	if target.Mode == models.ModeQA && input.Question == "" {
		return toolError("A question is required for the %s target", target.Prefix), nil, nil
	}

	events, err := t.Normalizer.Stream(ctx, target.System, target.UserMessage(input.Content, input.Question))
	if err != nil {
		return toolError("Failed to start %s: %v", target.Prefix, err), nil, nil
	}
	var sink llm.Sink
	if req != nil && req.Session != nil {
		sink = &notifySink{ctx: ctx, ss: req.Session, log: t.logger()}
	}
	text, err := llm.Collect(events, target.Prefix, sink)
	if err != nil {
		return toolError("%s failed: %v", target.Prefix, err), nil, nil
	}

	out := RefineOutput{Prefix: target.Prefix, Text: text}
	if input.RecordKind != "" {
		r, err := t.Session.AppendRefinement(input.RecordKind, input.RecordID, models.Refinement{
			OriginalContent: input.Content,
			RefinedContent:  text,
			Kind:            target.Kind,
			Mode:            target.Mode,
		})
		if err != nil {
			return toolError("Model answered but recording failed: %v", err), nil, nil
		}
		out.Refinement = &r
		if target.Diagram != "" && input.RecordKind == session.TargetProject {
			if err := t.Session.SaveDiagram(input.RecordID, target.Diagram, text); err != nil {
				return toolError("Model answered but saving the diagram failed: %v", err), nil, nil
			}
			out.SavedDiagram = target.Diagram
		}
	}
	return toolJSON(out)
}

func (t *RefineTools) GetSettings(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.Settings.Active().Redacted())
}

func (t *RefineTools) SaveSettings(_ context.Context, _ *mcp.CallToolRequest, input SaveSettingsInput) (*mcp.CallToolResult, any, error) {
	if input.APIKey == "" {
		return toolError("An API key is required"), nil, nil
	}
	p := config.Provider{
		Provider: input.Provider,
		Protocol: input.Protocol,
		APIKey:   input.APIKey,
		BaseURL:  input.BaseURL,
		Model:    input.Model,
	}.Normalized()
	if p.Protocol != config.ProtocolOpenAI && p.Protocol != config.ProtocolAnthropic {
		return toolError("Unsupported protocol %q (use openai or anthropic)", p.Protocol), nil, nil
	}
	if err := t.Settings.Save(p); err != nil {
		return toolError("Failed to save settings: %v", err), nil, nil
	}
	return toolJSON(t.Settings.Active().Redacted())
}

func (t *RefineTools) logger() *zap.Logger {
	if t.Log == nil {
		return zap.NewNop()
	}
	return t.Log
}

// notifySink forwards stream events to the MCP client as log messages.
type notifySink struct {
	ctx context.Context
	ss  *mcp.ServerSession
	log *zap.Logger
}

func (s *notifySink) Emit(topic string, payload any) {
	err := s.ss.Log(s.ctx, &mcp.LoggingMessageParams{
		Level:  "info",
		Logger: topic,
		Data:   payload,
	})
	if err != nil {
		s.log.Debug("Dropped stream notification", zap.String("topic", topic), zap.Error(err))
	}
}
