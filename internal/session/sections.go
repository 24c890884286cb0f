package session

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/models"
)

// AddSection appends a new section at the end of the active project.
func (s *Session) AddSection(name string) (*models.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.ws.ActiveProject()
	before := s.ws.Clone()
	sec := &models.Section{
		ID:         s.newID(),
		Name:       name,
		OrderIndex: len(p.Sections),
		Topics:     []*models.Topic{},
		History:    []models.Refinement{},
	}
	p.Sections = append(p.Sections, sec)
	s.touch(p)
	return sec.Clone(), s.commit(before, "Section added",
		zap.String("project", p.ID), zap.String("section", sec.ID))
}

// RenameSection changes a section's name.
func (s *Session) RenameSection(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, sec := s.ws.SectionOwner(id)
	if sec == nil {
		return notFound("section", id)
	}
	before := s.ws.Clone()
	sec.Name = name
	s.touch(p)
	return s.commit(before, "Section renamed", zap.String("section", id))
}

// RemoveSection deletes a section with its topics and re-packs the order of
// the remaining siblings.
func (s *Session) RemoveSection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.ws.SectionOwner(id)
	if p == nil {
		return notFound("section", id)
	}
	before := s.ws.Clone()
	idx := p.SectionIndex(id)
	p.Sections = slices.Delete(p.Sections, idx, idx+1)
	repackSections(p.Sections)
	s.touch(p)
	return s.commit(before, "Section removed",
		zap.String("project", p.ID), zap.String("section", id))
}
