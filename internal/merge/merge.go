// Package merge flattens a project into a single document.
package merge

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wagnerlima/promptmux/internal/models"
)

// Separator joins section blocks in the merged output.
const Separator = "\n\n---\n\n"

// Render returns the project's topics in order: sections by OrderIndex, topics
// by OrderIndex within each, every section headed by a comment line.
func Render(p *models.Project) string {
	blocks := make([]string, 0, len(p.Sections))
	for _, sec := range sortedSections(p) {
		topics := sortedTopics(sec)
		contents := make([]string, len(topics))
		for i, t := range topics {
			contents[i] = t.Content
		}
		blocks = append(blocks, fmt.Sprintf("// Section: %s\n%s", sec.Name, strings.Join(contents, "\n\n")))
	}
	return strings.Join(blocks, Separator)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML renders the same ordering as Render, treating topic content as
// Markdown. Section names become headings and sections are split by <hr>.
func RenderHTML(p *models.Project) (string, error) {
	var buf bytes.Buffer
	for i, sec := range sortedSections(p) {
		if i > 0 {
			buf.WriteString("<hr>\n")
		}
		fmt.Fprintf(&buf, "<section>\n<h2>%s</h2>\n", html.EscapeString(sec.Name))
		for _, t := range sortedTopics(sec) {
			if err := markdown.Convert([]byte(t.Content), &buf); err != nil {
				return "", fmt.Errorf("render topic %s: %w", t.ID, err)
			}
		}
		buf.WriteString("</section>\n")
	}
	return buf.String(), nil
}

func sortedSections(p *models.Project) []*models.Section {
	out := slices.Clone(p.Sections)
	slices.SortStableFunc(out, func(a, b *models.Section) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	return out
}

func sortedTopics(s *models.Section) []*models.Topic {
	out := slices.Clone(s.Topics)
	slices.SortStableFunc(out, func(a, b *models.Topic) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	return out
}
