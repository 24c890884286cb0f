package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/promptmux/internal/models"
	"github.com/wagnerlima/promptmux/internal/session"
	"github.com/wagnerlima/promptmux/internal/storage"
)

// TreeTools holds references needed by section, topic and history handlers.
type TreeTools struct {
	Session *session.Session
	Store   *storage.DocumentStore
}

// --- Input types ---

type CreateSectionInput struct {
	Name string `json:"name" jsonschema:"Section name; the section is appended to the active project"`
}

type RenameSectionInput struct {
	SectionID string `json:"section_id" jsonschema:"Section id"`
	Name      string `json:"name" jsonschema:"New section name"`
}

type SectionIDInput struct {
	SectionID string `json:"section_id" jsonschema:"Section id"`
}

type CreateTopicInput struct {
	SectionID string `json:"section_id" jsonschema:"Id of the section that receives the topic"`
	Name      string `json:"name" jsonschema:"Topic name"`
}

type RenameTopicInput struct {
	TopicID string `json:"topic_id" jsonschema:"Topic id"`
	Name    string `json:"name" jsonschema:"New topic name"`
}

type UpdateTopicContentInput struct {
	TopicID string `json:"topic_id" jsonschema:"Topic id"`
	Content string `json:"content" jsonschema:"New topic text"`
}

type TopicIDInput struct {
	TopicID string `json:"topic_id" jsonschema:"Topic id"`
}

type ReorderItemInput struct {
	ItemType string `json:"item_type" jsonschema:"section or topic"`
	ID       string `json:"id" jsonschema:"Id of the section or topic to move"`
	NewIndex int    `json:"new_index" jsonschema:"Drop slot counted before the item is removed"`
}

type SaveRefinementInput struct {
	Target          string `json:"target" jsonschema:"project, section or topic"`
	TargetID        string `json:"target_id" jsonschema:"Id of the project, section or topic"`
	OriginalContent string `json:"original_content" jsonschema:"Text before the refinement"`
	RefinedContent  string `json:"refined_content" jsonschema:"Text after the refinement"`
	Kind            string `json:"kind,omitempty" jsonschema:"text, er, uml, flowchart or journey"`
	Mode            string `json:"mode,omitempty" jsonschema:"edit or qa"`
}

type DeleteRefinementInput struct {
	ProjectID    string `json:"project_id" jsonschema:"Project id"`
	RefinementID string `json:"refinement_id" jsonschema:"Id of the refinement to delete from the project history"`
}

type SearchTopicsInput struct {
	Query string `json:"query" jsonschema:"Search query (supports FTS5 syntax: AND, OR, NOT, prefix*)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of hits (default 20)"`
}

type ListRevisionsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of revisions"`
}

// --- Handlers ---

func (t *TreeTools) CreateSection(_ context.Context, _ *mcp.CallToolRequest, input CreateSectionInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Section name is required"), nil, nil
	}
	sec, err := t.Session.AddSection(input.Name)
	if err != nil {
		return toolError("Failed to create section: %v", err), nil, nil
	}
	return toolJSON(sec)
}

func (t *TreeTools) RenameSection(_ context.Context, _ *mcp.CallToolRequest, input RenameSectionInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.RenameSection(input.SectionID, input.Name); err != nil {
		return toolError("Failed to rename section: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Section %s renamed to %q.", input.SectionID, input.Name)), nil, nil
}

func (t *TreeTools) DeleteSection(_ context.Context, _ *mcp.CallToolRequest, input SectionIDInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.RemoveSection(input.SectionID); err != nil {
		return toolError("Failed to delete section: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Section %s deleted.", input.SectionID)), nil, nil
}

func (t *TreeTools) CreateTopic(_ context.Context, _ *mcp.CallToolRequest, input CreateTopicInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Topic name is required"), nil, nil
	}
	topic, err := t.Session.AddTopic(input.SectionID, input.Name)
	if err != nil {
		return toolError("Failed to create topic: %v", err), nil, nil
	}
	return toolJSON(topic)
}

func (t *TreeTools) RenameTopic(_ context.Context, _ *mcp.CallToolRequest, input RenameTopicInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.RenameTopic(input.TopicID, input.Name); err != nil {
		return toolError("Failed to rename topic: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Topic %s renamed to %q.", input.TopicID, input.Name)), nil, nil
}

func (t *TreeTools) UpdateTopicContent(_ context.Context, _ *mcp.CallToolRequest, input UpdateTopicContentInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.UpdateTopicContent(input.TopicID, input.Content); err != nil {
		return toolError("Failed to update topic: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Topic %s updated.", input.TopicID)), nil, nil
}

func (t *TreeTools) DeleteTopic(_ context.Context, _ *mcp.CallToolRequest, input TopicIDInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.RemoveTopic(input.TopicID); err != nil {
		return toolError("Failed to delete topic: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Topic %s deleted.", input.TopicID)), nil, nil
}

func (t *TreeTools) ReorderItem(_ context.Context, _ *mcp.CallToolRequest, input ReorderItemInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.ReorderItem(input.ItemType, input.ID, input.NewIndex); err != nil {
		return toolError("Failed to reorder %s: %v", input.ItemType, err), nil, nil
	}
	return toolJSON(t.Session.ActiveProject())
}

func (t *TreeTools) SaveRefinement(_ context.Context, _ *mcp.CallToolRequest, input SaveRefinementInput) (*mcp.CallToolResult, any, error) {
	r, err := t.Session.AppendRefinement(input.Target, input.TargetID, models.Refinement{
		OriginalContent: input.OriginalContent,
		RefinedContent:  input.RefinedContent,
		Kind:            models.RefinementKind(input.Kind),
		Mode:            models.RefinementMode(input.Mode),
	})
	if err != nil {
		return toolError("Failed to save refinement: %v", err), nil, nil
	}
	return toolJSON(r)
}

func (t *TreeTools) DeleteRefinement(_ context.Context, _ *mcp.CallToolRequest, input DeleteRefinementInput) (*mcp.CallToolResult, any, error) {
	if err := t.Session.DeleteRefinement(input.ProjectID, input.RefinementID); err != nil {
		return toolError("Failed to delete refinement: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Refinement %s deleted.", input.RefinementID)), nil, nil
}

func (t *TreeTools) SearchTopics(_ context.Context, _ *mcp.CallToolRequest, input SearchTopicsInput) (*mcp.CallToolResult, any, error) {
	if input.Query == "" {
		return toolError("Search query is required"), nil, nil
	}
	hits, err := t.Store.SearchTopics(input.Query, input.Limit)
	if err != nil {
		return toolError("Failed to search topics: %v", err), nil, nil
	}
	if hits == nil {
		hits = []models.TopicHit{}
	}
	return toolJSON(hits)
}

func (t *TreeTools) ListRevisions(_ context.Context, _ *mcp.CallToolRequest, input ListRevisionsInput) (*mcp.CallToolResult, any, error) {
	revs, err := t.Store.Revisions(input.Limit)
	if err != nil {
		return toolError("Failed to list revisions: %v", err), nil, nil
	}
	if revs == nil {
		revs = []models.Revision{}
	}
	return toolJSON(revs)
}
