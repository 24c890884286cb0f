package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wagnerlima/promptmux/internal/models"
	"github.com/wagnerlima/promptmux/internal/server"
)

// fakeProvider answers chat-completions requests with "Hello", streamed in
// two chunks when the client asks for a stream.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hello"}}]}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupIntegration creates a real MCP server with in-memory transport and returns a connected client session.
func setupIntegration(t *testing.T, opts *mcp.ClientOptions) *mcp.ClientSession {
	t.Helper()

	dir := t.TempDir()
	provider := fakeProvider(t)
	settings := filepath.Join(dir, "settings.json")
	doc := fmt.Sprintf(`{
		// test provider
		"provider": "openai",
		"api_key": "sk-test-key",
		"base_url": %q,
	}`, provider.URL)
	require.NoError(t, os.WriteFile(settings, []byte(doc), 0o600))
	t.Setenv("PROMPTMUX_API_KEY", "")
	t.Setenv("PROMPTMUX_BASE_URL", "")
	t.Setenv("PROMPTMUX_MODEL", "")

	a, err := openApp(dir, settings, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := server.New(a.deps())

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	_, err = srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err, "server connect")

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, opts)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client connect")
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool is a helper that calls a tool and returns the text content.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
	}
	return tc.Text
}

// callToolExpectError calls a tool and expects an error response (IsError=true).
func callToolExpectError(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): protocol error: %v", name, err)
	}
	tc := result.Content[0].(*mcp.TextContent)
	if !result.IsError {
		t.Fatalf("CallTool(%s): expected error but got success: %s", name, tc.Text)
	}
	return tc.Text
}

func decode[T any](t *testing.T, text string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(text), &v), "decode %q", text)
	return v
}

func TestIntegration_ListTools(t *testing.T) {
	session := setupIntegration(t, nil)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	expectedTools := []string{
		"get_workspace", "get_project", "create_project", "delete_project",
		"switch_project", "rename_project", "get_merged_output", "save_diagram",
		"undo", "redo",
		"create_section", "rename_section", "delete_section",
		"create_topic", "rename_topic", "update_topic_content", "delete_topic",
		"reorder_item", "save_refinement", "delete_refinement",
		"search_topics", "list_revisions",
		"refine", "get_llm_settings", "save_llm_settings",
	}

	toolNames := make(map[string]bool)
	for _, tool := range result.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range expectedTools {
		assert.True(t, toolNames[name], "missing tool: %s", name)
	}
	assert.Len(t, result.Tools, len(expectedTools))
}

func TestIntegration_FullWorkflow(t *testing.T) {
	session := setupIntegration(t, nil)

	// Step 1: a fresh workspace holds one default project
	ws := decode[models.Workspace](t, callTool(t, session, "get_workspace", nil))
	require.Len(t, ws.Projects, 1)
	assert.Equal(t, "My Project", ws.Projects[0].Name)
	assert.Equal(t, ws.Projects[0].ID, ws.ActiveProjectID)

	// Step 2: sections and topics
	intro := decode[models.Section](t, callTool(t, session, "create_section", map[string]any{"name": "Intro"}))
	body := decode[models.Section](t, callTool(t, session, "create_section", map[string]any{"name": "Body"}))
	assert.Equal(t, 0, intro.OrderIndex)
	assert.Equal(t, 1, body.OrderIndex)

	a := decode[models.Topic](t, callTool(t, session, "create_topic", map[string]any{"section_id": intro.ID, "name": "a"}))
	b := decode[models.Topic](t, callTool(t, session, "create_topic", map[string]any{"section_id": body.ID, "name": "b"}))
	callTool(t, session, "update_topic_content", map[string]any{"topic_id": a.ID, "content": "alpha"})
	callTool(t, session, "update_topic_content", map[string]any{"topic_id": b.ID, "content": "beta"})

	// Step 3: merged output
	text := callTool(t, session, "get_merged_output", nil)
	assert.Equal(t, "// Section: Intro\nalpha\n\n---\n\n// Section: Body\nbeta", text)

	html := callTool(t, session, "get_merged_output", map[string]any{"format": "html"})
	assert.Contains(t, html, "<h2>Intro</h2>")
	assert.Contains(t, html, "<p>alpha</p>")

	// Step 4: move Body in front of Intro
	proj := decode[models.Project](t, callTool(t, session, "reorder_item", map[string]any{
		"item_type": "section", "id": body.ID, "new_index": 0,
	}))
	require.Len(t, proj.Sections, 2)
	assert.Equal(t, "Body", proj.Sections[0].Name)
	assert.Equal(t, 0, proj.Sections[0].OrderIndex)
	assert.Equal(t, 1, proj.Sections[1].OrderIndex)

	text = callTool(t, session, "get_merged_output", nil)
	assert.True(t, strings.HasPrefix(text, "// Section: Body\nbeta"), text)

	// Step 5: search and revisions come from the store
	hits := decode[[]models.TopicHit](t, callTool(t, session, "search_topics", map[string]any{"query": "alpha"}))
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].TopicID)

	revs := decode[[]models.Revision](t, callTool(t, session, "list_revisions", nil))
	assert.NotEmpty(t, revs)

	// Step 6: undo the reorder
	ws = decode[models.Workspace](t, callTool(t, session, "undo", nil))
	active := ws.ActiveProject()
	require.NotNil(t, active)
	assert.Equal(t, "Intro", active.Sections[0].Name)

	ws = decode[models.Workspace](t, callTool(t, session, "redo", nil))
	assert.Equal(t, "Body", ws.ActiveProject().Sections[0].Name)

	// Step 7: a second project, switch and delete
	second := decode[models.Project](t, callTool(t, session, "create_project", map[string]any{"name": "Second"}))
	ws = decode[models.Workspace](t, callTool(t, session, "get_workspace", nil))
	assert.NotEqual(t, second.ID, ws.ActiveProjectID, "creating a project must not switch to it")

	callTool(t, session, "switch_project", map[string]any{"project_id": second.ID})
	text = callTool(t, session, "delete_project", map[string]any{"project_id": second.ID})
	assert.Contains(t, text, "deleted")

	ws = decode[models.Workspace](t, callTool(t, session, "get_workspace", nil))
	require.Len(t, ws.Projects, 1)
	assert.Equal(t, ws.Projects[0].ID, ws.ActiveProjectID)
}

func TestIntegration_Refine(t *testing.T) {
	var (
		mu     sync.Mutex
		topics []string
		chunks []string
	)
	session := setupIntegration(t, &mcp.ClientOptions{
		LoggingMessageHandler: func(_ context.Context, req *mcp.LoggingMessageRequest) {
			mu.Lock()
			defer mu.Unlock()
			topics = append(topics, req.Params.Logger)
			if s, ok := req.Params.Data.(string); ok {
				chunks = append(chunks, s)
			}
		},
	})
	require.NoError(t, session.SetLoggingLevel(context.Background(), &mcp.SetLoggingLevelParams{Level: "info"}))

	sec := decode[models.Section](t, callTool(t, session, "create_section", map[string]any{"name": "Intro"}))
	topic := decode[models.Topic](t, callTool(t, session, "create_topic", map[string]any{"section_id": sec.ID, "name": "t"}))

	out := decode[struct {
		Prefix     string             `json:"prefix"`
		Text       string             `json:"text"`
		Refinement *models.Refinement `json:"refinement"`
	}](t, callTool(t, session, "refine", map[string]any{
		"target":      "refine",
		"content":     "helo",
		"record_kind": "topic",
		"record_id":   topic.ID,
	}))
	assert.Equal(t, "refine", out.Prefix)
	assert.Equal(t, "Hello", out.Text)
	require.NotNil(t, out.Refinement)
	assert.Equal(t, "helo", out.Refinement.OriginalContent)
	assert.Equal(t, models.KindText, out.Refinement.Kind)
	assert.Equal(t, models.ModeEdit, out.Refinement.Mode)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(topics) == 3
	}, 5*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"refine:chunk", "refine:chunk", "refine:done"}, topics)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
	mu.Unlock()

	proj := decode[models.Project](t, callTool(t, session, "get_project", nil))
	require.Len(t, proj.Sections[0].Topics[0].History, 1)
	assert.Equal(t, "Hello", proj.Sections[0].Topics[0].History[0].RefinedContent)
}

func TestIntegration_RefineSavesDiagram(t *testing.T) {
	session := setupIntegration(t, nil)

	proj := decode[models.Project](t, callTool(t, session, "get_project", nil))
	callTool(t, session, "refine", map[string]any{
		"target":      "er",
		"content":     "users have orders",
		"record_kind": "project",
		"record_id":   proj.ID,
	})

	proj = decode[models.Project](t, callTool(t, session, "get_project", nil))
	require.NotNil(t, proj.ERDiagram)
	assert.Equal(t, "Hello", *proj.ERDiagram)
	require.Len(t, proj.History, 1)
	assert.Equal(t, models.KindER, proj.History[0].Kind)
}

func TestIntegration_Settings(t *testing.T) {
	session := setupIntegration(t, nil)

	got := decode[map[string]any](t, callTool(t, session, "get_llm_settings", nil))
	assert.Equal(t, "sk-t****-key", got["api_key"])
	assert.Equal(t, "openai", got["protocol"])

	got = decode[map[string]any](t, callTool(t, session, "save_llm_settings", map[string]any{
		"provider": "anthropic",
		"api_key":  "sk-ant-0123456789",
	}))
	assert.Equal(t, "anthropic", got["protocol"])
	assert.Equal(t, "https://api.anthropic.com/v1", got["base_url"])
	assert.Equal(t, "claude-3-sonnet-20240229", got["model"])
	assert.Equal(t, "sk-a****6789", got["api_key"])
}

func TestIntegration_ErrorCases(t *testing.T) {
	session := setupIntegration(t, nil)

	ws := decode[models.Workspace](t, callTool(t, session, "get_workspace", nil))
	onlyID := ws.Projects[0].ID

	// Error: the last project cannot be deleted
	errText := callToolExpectError(t, session, "delete_project", map[string]any{"project_id": onlyID})
	assert.Contains(t, errText, "cannot remove the last project")

	// Error: unknown ids
	errText = callToolExpectError(t, session, "switch_project", map[string]any{"project_id": "nope"})
	assert.Contains(t, errText, "not found")

	errText = callToolExpectError(t, session, "create_topic", map[string]any{"section_id": "nope", "name": "x"})
	assert.Contains(t, errText, "not found")

	errText = callToolExpectError(t, session, "rename_topic", map[string]any{"topic_id": "nope", "name": "x"})
	assert.Contains(t, errText, "not found")

	// Error: bad kinds
	errText = callToolExpectError(t, session, "reorder_item", map[string]any{
		"item_type": "project", "id": onlyID, "new_index": 0,
	})
	assert.Contains(t, errText, "invalid item type")

	errText = callToolExpectError(t, session, "save_diagram", map[string]any{
		"project_id": onlyID, "kind": "sequence", "content": "x",
	})
	assert.Contains(t, errText, "invalid item type")

	errText = callToolExpectError(t, session, "refine", map[string]any{"target": "poem", "content": "x"})
	assert.Contains(t, errText, "poem")

	errText = callToolExpectError(t, session, "refine", map[string]any{"target": "qa", "content": "x"})
	assert.Contains(t, errText, "question is required")

	// Nothing to redo on a fresh session
	text := callTool(t, session, "redo", nil)
	assert.Equal(t, "Nothing to redo.", text)
}
