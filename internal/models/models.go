package models

import "time"

// RefinementKind tags what a refinement produced.
type RefinementKind string

const (
	KindText      RefinementKind = "text"
	KindER        RefinementKind = "er"
	KindUML       RefinementKind = "uml"
	KindFlowchart RefinementKind = "flowchart"
	KindJourney   RefinementKind = "journey"
)

// RefinementMode distinguishes rewriting content from answering a question about it.
type RefinementMode string

const (
	ModeEdit RefinementMode = "edit"
	ModeQA   RefinementMode = "qa"
)

// DiagramKind names one of the optional generated artifacts on a project.
type DiagramKind string

const (
	DiagramER          DiagramKind = "er_diagram"
	DiagramUML         DiagramKind = "uml_diagram"
	DiagramFlowchart   DiagramKind = "flowchart"
	DiagramUserJourney DiagramKind = "user_journey"
	DiagramUserStories DiagramKind = "user_stories"
)

// DiagramKinds lists every diagram kind in display order.
var DiagramKinds = []DiagramKind{
	DiagramER, DiagramUML, DiagramFlowchart, DiagramUserJourney, DiagramUserStories,
}

// Workspace is the persisted root document.
type Workspace struct {
	Projects        []*Project `json:"projects"`
	ActiveProjectID string     `json:"active_project_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Project is a named document of ordered sections.
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Sections    []*Section   `json:"sections"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	History     []Refinement `json:"history"`
	ERDiagram   *string      `json:"er_diagram,omitempty"`
	UMLDiagram  *string      `json:"uml_diagram,omitempty"`
	Flowchart   *string      `json:"flowchart,omitempty"`
	UserJourney *string      `json:"user_journey,omitempty"`
	UserStories *string      `json:"user_stories,omitempty"`
}

// Section is an ordered group of topics. OrderIndex is its rank among siblings.
type Section struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	OrderIndex int          `json:"order_index"`
	Topics     []*Topic     `json:"topics"`
	History    []Refinement `json:"history"`
}

// Topic is a leaf unit of editable text.
type Topic struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Content    string       `json:"content"`
	OrderIndex int          `json:"order_index"`
	SectionID  string       `json:"section_id"`
	History    []Refinement `json:"history"`
}

// Refinement records one transformation of some text. Never mutated once stored.
type Refinement struct {
	ID              string         `json:"id"`
	OriginalContent string         `json:"original_content"`
	RefinedContent  string         `json:"refined_content"`
	Timestamp       time.Time      `json:"timestamp"`
	Kind            RefinementKind `json:"kind,omitempty"`
	Mode            RefinementMode `json:"mode,omitempty"`
}

// TopicHit is a full-text search result.
type TopicHit struct {
	ProjectID string `json:"project_id"`
	SectionID string `json:"section_id"`
	TopicID   string `json:"topic_id"`
	Name      string `json:"name"`
	Snippet   string `json:"snippet"`
}

// Revision describes one stored snapshot of the workspace.
type Revision struct {
	ID        int64     `json:"id"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
