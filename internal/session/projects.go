package session

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/models"
)

// AddProject appends a new empty project. The active project is unchanged.
func (s *Session) AddProject(name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.ws.Clone()
	p := s.newProject(name)
	s.ws.Projects = append(s.ws.Projects, p)
	return p.Clone(), s.commit(before, "Project added", zap.String("project", p.ID))
}

// RemoveProject deletes a project. Removing the last project fails with
// LastItemError. If the active project is removed, the first remaining
// project becomes active.
func (s *Session) RemoveProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.ws.ProjectIndex(id)
	if idx < 0 {
		return notFound("project", id)
	}
	if len(s.ws.Projects) == 1 {
		return &LastItemError{Kind: "project"}
	}

	before := s.ws.Clone()
	s.ws.Projects = slices.Delete(s.ws.Projects, idx, idx+1)
	if s.ws.ActiveProjectID == id {
		s.ws.ActiveProjectID = s.ws.Projects[0].ID
	}
	return s.commit(before, "Project removed",
		zap.String("project", id), zap.String("active", s.ws.ActiveProjectID))
}

// SwitchActiveProject makes the project active and returns a copy of it.
func (s *Session) SwitchActiveProject(id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.ws.Project(id)
	if p == nil {
		return nil, notFound("project", id)
	}
	if s.ws.ActiveProjectID == id {
		return p.Clone(), nil
	}
	before := s.ws.Clone()
	s.ws.ActiveProjectID = id
	return p.Clone(), s.commit(before, "Active project switched", zap.String("project", id))
}

// RenameProject changes a project's name.
func (s *Session) RenameProject(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.ws.Project(id)
	if p == nil {
		return notFound("project", id)
	}
	before := s.ws.Clone()
	p.Name = name
	s.touch(p)
	return s.commit(before, "Project renamed", zap.String("project", id))
}

// SaveDiagram stores a generated diagram on the project. Empty text clears it.
func (s *Session) SaveDiagram(projectID string, kind models.DiagramKind, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.ws.Project(projectID)
	if p == nil {
		return notFound("project", projectID)
	}
	if !slices.Contains(models.DiagramKinds, kind) {
		return &InvalidKindError{Kind: string(kind)}
	}
	before := s.ws.Clone()
	p.SetDiagram(kind, text)
	s.touch(p)
	return s.commit(before, "Diagram saved",
		zap.String("project", projectID), zap.String("kind", string(kind)))
}
