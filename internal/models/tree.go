package models

// Lookups return nil when the id does not resolve. Callers decide whether
// absence is an error.

// Project returns the project with the given id.
func (w *Workspace) Project(id string) *Project {
	for _, p := range w.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ProjectIndex returns the position of the project in Projects, or -1.
func (w *Workspace) ProjectIndex(id string) int {
	for i, p := range w.Projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ActiveProject returns the project named by ActiveProjectID.
func (w *Workspace) ActiveProject() *Project {
	return w.Project(w.ActiveProjectID)
}

// SectionOwner returns the project holding the section and the section itself.
func (w *Workspace) SectionOwner(sectionID string) (*Project, *Section) {
	for _, p := range w.Projects {
		if s := p.Section(sectionID); s != nil {
			return p, s
		}
	}
	return nil, nil
}

// TopicOwner returns the project and section holding the topic, and the topic.
func (w *Workspace) TopicOwner(topicID string) (*Project, *Section, *Topic) {
	for _, p := range w.Projects {
		if s := p.SectionOfTopic(topicID); s != nil {
			return p, s, s.Topic(topicID)
		}
	}
	return nil, nil, nil
}

// Section returns the section with the given id.
func (p *Project) Section(id string) *Section {
	for _, s := range p.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Topic scans every section for the topic.
func (p *Project) Topic(id string) *Topic {
	for _, s := range p.Sections {
		if t := s.Topic(id); t != nil {
			return t
		}
	}
	return nil
}

// SectionOfTopic returns the section that currently contains the topic.
func (p *Project) SectionOfTopic(topicID string) *Section {
	for _, s := range p.Sections {
		if s.Topic(topicID) != nil {
			return s
		}
	}
	return nil
}

// Diagram returns the stored artifact for kind, if any.
func (p *Project) Diagram(kind DiagramKind) (string, bool) {
	slot := p.diagramSlot(kind)
	if slot == nil || *slot == nil {
		return "", false
	}
	return **slot, true
}

// SetDiagram stores text for kind. Empty text clears the artifact.
// Reports false for an unknown kind.
func (p *Project) SetDiagram(kind DiagramKind, text string) bool {
	slot := p.diagramSlot(kind)
	if slot == nil {
		return false
	}
	if text == "" {
		*slot = nil
		return true
	}
	*slot = &text
	return true
}

func (p *Project) diagramSlot(kind DiagramKind) **string {
	switch kind {
	case DiagramER:
		return &p.ERDiagram
	case DiagramUML:
		return &p.UMLDiagram
	case DiagramFlowchart:
		return &p.Flowchart
	case DiagramUserJourney:
		return &p.UserJourney
	case DiagramUserStories:
		return &p.UserStories
	}
	return nil
}

// Topic returns the topic with the given id.
func (s *Section) Topic(id string) *Topic {
	for _, t := range s.Topics {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TopicIndex returns the position of the topic in Topics, or -1.
func (s *Section) TopicIndex(id string) int {
	for i, t := range s.Topics {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// SectionIndex returns the position of the section in Sections, or -1.
func (p *Project) SectionIndex(id string) int {
	for i, s := range p.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy sharing no mutable state with w.
func (w *Workspace) Clone() *Workspace {
	if w == nil {
		return nil
	}
	c := *w
	c.Projects = make([]*Project, len(w.Projects))
	for i, p := range w.Projects {
		c.Projects[i] = p.Clone()
	}
	return &c
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Sections = make([]*Section, len(p.Sections))
	for i, s := range p.Sections {
		c.Sections[i] = s.Clone()
	}
	c.History = cloneHistory(p.History)
	c.ERDiagram = cloneString(p.ERDiagram)
	c.UMLDiagram = cloneString(p.UMLDiagram)
	c.Flowchart = cloneString(p.Flowchart)
	c.UserJourney = cloneString(p.UserJourney)
	c.UserStories = cloneString(p.UserStories)
	return &c
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	c := *s
	c.Topics = make([]*Topic, len(s.Topics))
	for i, t := range s.Topics {
		c.Topics[i] = t.Clone()
	}
	c.History = cloneHistory(s.History)
	return &c
}

// Clone returns a deep copy of the topic.
func (t *Topic) Clone() *Topic {
	if t == nil {
		return nil
	}
	c := *t
	c.History = cloneHistory(t.History)
	return &c
}

func cloneHistory(h []Refinement) []Refinement {
	if h == nil {
		return nil
	}
	out := make([]Refinement, len(h))
	copy(out, h)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
