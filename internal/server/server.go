package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/llm"
	"github.com/wagnerlima/promptmux/internal/session"
	"github.com/wagnerlima/promptmux/internal/storage"
	"github.com/wagnerlima/promptmux/internal/tools"
)

// Version is reported to MCP clients.
const Version = "0.2.0"

// Deps are the collaborators shared by every tool handler.
type Deps struct {
	Session    *session.Session
	Store      *storage.DocumentStore
	Normalizer *llm.Normalizer
	Settings   tools.SettingsStore
	Log        *zap.Logger
}

// New creates a fully configured MCP server with all tools registered.
func New(d Deps) *mcp.Server {
	pt := &tools.ProjectTools{Session: d.Session}
	tt := &tools.TreeTools{Session: d.Session, Store: d.Store}
	rt := &tools.RefineTools{Session: d.Session, Normalizer: d.Normalizer, Settings: d.Settings, Log: d.Log}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "promptmux",
		Version: Version,
	}, nil)

	// Workspace and project tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_workspace",
		Description: "Return the whole workspace: every project and the active project id",
	}, pt.GetWorkspace)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_project",
		Description: "Return one project with its sections and topics (defaults to the active project)",
	}, pt.GetProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a new empty project (the active project does not change)",
	}, pt.CreateProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project; the last remaining project cannot be deleted",
	}, pt.DeleteProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "switch_project",
		Description: "Make a project the active project",
	}, pt.SwitchProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "rename_project",
		Description: "Rename a project",
	}, pt.RenameProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_merged_output",
		Description: "Flatten a project's sections and topics into one document (text or html)",
	}, pt.GetMergedOutput)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "save_diagram",
		Description: "Store or clear a generated diagram on a project",
	}, pt.SaveDiagram)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "undo",
		Description: "Revert the most recent change to the workspace",
	}, pt.Undo)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "redo",
		Description: "Re-apply the most recently undone change",
	}, pt.Redo)

	// Section and topic tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_section",
		Description: "Append a section to the active project",
	}, tt.CreateSection)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "rename_section",
		Description: "Rename a section",
	}, tt.RenameSection)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_section",
		Description: "Delete a section and its topics",
	}, tt.DeleteSection)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_topic",
		Description: "Append an empty topic to a section",
	}, tt.CreateTopic)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "rename_topic",
		Description: "Rename a topic",
	}, tt.RenameTopic)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_topic_content",
		Description: "Replace the text of a topic",
	}, tt.UpdateTopicContent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_topic",
		Description: "Delete a topic",
	}, tt.DeleteTopic)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "reorder_item",
		Description: "Move a section within its project or a topic within its section",
	}, tt.ReorderItem)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "save_refinement",
		Description: "Append a refinement record to a project, section or topic history",
	}, tt.SaveRefinement)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_refinement",
		Description: "Delete a refinement record from a project's history",
	}, tt.DeleteRefinement)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_topics",
		Description: "Search topic names and content using FTS5 full-text search",
	}, tt.SearchTopics)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_revisions",
		Description: "List stored snapshots of the workspace, newest first",
	}, tt.ListRevisions)

	// Model-backed tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "refine",
		Description: "Send text to the configured model and stream the answer as <target>:chunk/done/error log notifications",
	}, rt.Refine)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_llm_settings",
		Description: "Show the active model provider settings (API key redacted)",
	}, rt.GetSettings)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "save_llm_settings",
		Description: "Replace the model provider settings",
	}, rt.SaveSettings)

	return srv
}
