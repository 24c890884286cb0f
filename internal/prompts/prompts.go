// Package prompts maps each refinement target to its event prefix, system
// instruction and the kind of refinement it records.
package prompts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wagnerlima/promptmux/internal/models"
)

// Target is one way of transforming text with the model.
type Target struct {
	// Prefix addresses the target's events, e.g. "er" for "er:chunk".
	Prefix  string
	System  string
	Kind    models.RefinementKind
	Mode    models.RefinementMode
	Diagram models.DiagramKind
}

var targets = []Target{
	{
		Prefix: "refine",
		System: "You are an expert at refining prompts for software development projects. " +
			"Make the user's text clearer, more specific and more effective while keeping its intent. " +
			"Reply with the refined text only.",
		Kind: models.KindText,
		Mode: models.ModeEdit,
	},
	{
		Prefix: "qa",
		System: "You are a senior software architect. Answer the user's question about the " +
			"project description that follows. Be concise and concrete.",
		Kind: models.KindText,
		Mode: models.ModeQA,
	},
	{
		Prefix: "er",
		System: "Derive an entity-relationship diagram from the project description. " +
			"Reply with a single Mermaid erDiagram block and nothing else.",
		Kind:    models.KindER,
		Mode:    models.ModeEdit,
		Diagram: models.DiagramER,
	},
	{
		Prefix: "uml",
		System: "Derive a UML class diagram from the project description. " +
			"Reply with a single Mermaid classDiagram block and nothing else.",
		Kind:    models.KindUML,
		Mode:    models.ModeEdit,
		Diagram: models.DiagramUML,
	},
	{
		Prefix: "flowchart",
		System: "Describe the main process of the project as a flowchart. " +
			"Reply with a single Mermaid flowchart block and nothing else.",
		Kind:    models.KindFlowchart,
		Mode:    models.ModeEdit,
		Diagram: models.DiagramFlowchart,
	},
	{
		Prefix: "journey",
		System: "Describe the primary user journey through the project. " +
			"Reply with a single Mermaid journey block and nothing else.",
		Kind:    models.KindJourney,
		Mode:    models.ModeEdit,
		Diagram: models.DiagramUserJourney,
	},
	{
		Prefix: "stories",
		System: "Write user stories for the project in the form " +
			"\"As a <role>, I want <goal> so that <benefit>\", each with acceptance criteria, as a Markdown list.",
		Kind:    models.KindText,
		Mode:    models.ModeEdit,
		Diagram: models.DiagramUserStories,
	},
}

// Lookup returns the target registered under prefix.
func Lookup(prefix string) (Target, error) {
	i := slices.IndexFunc(targets, func(t Target) bool { return t.Prefix == prefix })
	if i < 0 {
		return Target{}, fmt.Errorf("unknown refinement target %q (want one of %s)", prefix, strings.Join(Prefixes(), ", "))
	}
	return targets[i], nil
}

// Prefixes lists every target prefix.
func Prefixes() []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Prefix
	}
	return out
}

// UserMessage wraps content for the target. Question-answer targets take
// the question separately.
func (t Target) UserMessage(content, question string) string {
	if t.Mode == models.ModeQA {
		return fmt.Sprintf("Project description:\n\n%s\n\nQuestion: %s", content, question)
	}
	return content
}
