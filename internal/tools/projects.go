package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/promptmux/internal/merge"
	"github.com/wagnerlima/promptmux/internal/models"
	"github.com/wagnerlima/promptmux/internal/session"
)

// ProjectTools holds references needed by project management tool handlers.
type ProjectTools struct {
	Session *session.Session
}

// --- Input types ---

type ProjectIDInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project id; defaults to the active project"`
}

type CreateProjectInput struct {
	Name string `json:"name" jsonschema:"Project name"`
}

type DeleteProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"Id of the project to delete"`
}

type SwitchProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"Id of the project to make active"`
}

type RenameProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"Id of the project to rename"`
	Name      string `json:"name" jsonschema:"New project name"`
}

type MergedOutputInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"Project id; defaults to the active project"`
	Format    string `json:"format,omitempty" jsonschema:"Output format: text (default) or html"`
}

type SaveDiagramInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project id"`
	Kind      string `json:"kind" jsonschema:"Diagram kind: er_diagram, uml_diagram, flowchart, user_journey or user_stories"`
	Content   string `json:"content" jsonschema:"Diagram text; empty clears the diagram"`
}

// --- Handlers ---

func (t *ProjectTools) GetWorkspace(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.Session.Snapshot())
}

func (t *ProjectTools) GetProject(_ context.Context, _ *mcp.CallToolRequest, input ProjectIDInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolJSON(t.Session.ActiveProject())
	}
	proj, err := t.Session.Project(input.ProjectID)
	if err != nil {
		return toolError("Failed to get project: %v", err), nil, nil
	}
	return toolJSON(proj)
}

func (t *ProjectTools) CreateProject(_ context.Context, _ *mcp.CallToolRequest, input CreateProjectInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Project name is required"), nil, nil
	}
	proj, err := t.Session.AddProject(input.Name)
	if err != nil {
		return toolError("Failed to create project: %v", err), nil, nil
	}
	return toolJSON(proj)
}

func (t *ProjectTools) DeleteProject(_ context.Context, _ *mcp.CallToolRequest, input DeleteProjectInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolError("Project id is required"), nil, nil
	}
	if err := t.Session.RemoveProject(input.ProjectID); err != nil {
		return toolError("Failed to delete project: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Project %s deleted.", input.ProjectID)), nil, nil
}

func (t *ProjectTools) SwitchProject(_ context.Context, _ *mcp.CallToolRequest, input SwitchProjectInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolError("Project id is required"), nil, nil
	}
	proj, err := t.Session.SwitchActiveProject(input.ProjectID)
	if err != nil {
		return toolError("Failed to switch project: %v", err), nil, nil
	}
	return toolJSON(proj)
}

func (t *ProjectTools) RenameProject(_ context.Context, _ *mcp.CallToolRequest, input RenameProjectInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" || input.Name == "" {
		return toolError("Project id and name are required"), nil, nil
	}
	if err := t.Session.RenameProject(input.ProjectID, input.Name); err != nil {
		return toolError("Failed to rename project: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Project %s renamed to %q.", input.ProjectID, input.Name)), nil, nil
}

func (t *ProjectTools) GetMergedOutput(_ context.Context, _ *mcp.CallToolRequest, input MergedOutputInput) (*mcp.CallToolResult, any, error) {
	switch input.Format {
	case "", "text":
		out, err := t.Session.MergedOutput(input.ProjectID)
		if err != nil {
			return toolError("Failed to merge project: %v", err), nil, nil
		}
		return toolText(out), nil, nil
	case "html":
		proj, err := t.project(input.ProjectID)
		if err != nil {
			return toolError("Failed to merge project: %v", err), nil, nil
		}
		out, err := merge.RenderHTML(proj)
		if err != nil {
			return toolError("Failed to render project: %v", err), nil, nil
		}
		return toolText(out), nil, nil
	default:
		return toolError("Unknown format %q (use text or html)", input.Format), nil, nil
	}
}

func (t *ProjectTools) SaveDiagram(_ context.Context, _ *mcp.CallToolRequest, input SaveDiagramInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolError("Project id is required"), nil, nil
	}
	if err := t.Session.SaveDiagram(input.ProjectID, models.DiagramKind(input.Kind), input.Content); err != nil {
		return toolError("Failed to save diagram: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Saved %s for project %s.", input.Kind, input.ProjectID)), nil, nil
}

func (t *ProjectTools) Undo(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	ok, err := t.Session.Undo()
	if err != nil {
		return toolError("Failed to undo: %v", err), nil, nil
	}
	if !ok {
		return toolText("Nothing to undo."), nil, nil
	}
	return toolJSON(t.Session.Snapshot())
}

func (t *ProjectTools) Redo(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	ok, err := t.Session.Redo()
	if err != nil {
		return toolError("Failed to redo: %v", err), nil, nil
	}
	if !ok {
		return toolText("Nothing to redo."), nil, nil
	}
	return toolJSON(t.Session.Snapshot())
}

func (t *ProjectTools) project(id string) (*models.Project, error) {
	if id == "" {
		return t.Session.ActiveProject(), nil
	}
	return t.Session.Project(id)
}
