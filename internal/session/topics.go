package session

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/models"
)

// AddTopic appends an empty topic to the section.
func (s *Session) AddTopic(sectionID, name string) (*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, sec := s.ws.SectionOwner(sectionID)
	if sec == nil {
		return nil, notFound("section", sectionID)
	}
	before := s.ws.Clone()
	t := &models.Topic{
		ID:         s.newID(),
		Name:       name,
		OrderIndex: len(sec.Topics),
		SectionID:  sec.ID,
		History:    []models.Refinement{},
	}
	sec.Topics = append(sec.Topics, t)
	s.touch(p)
	return t.Clone(), s.commit(before, "Topic added",
		zap.String("section", sectionID), zap.String("topic", t.ID))
}

// RenameTopic changes a topic's name.
func (s *Session) RenameTopic(id, name string) error {
	return s.updateTopic(id, "Topic renamed", func(t *models.Topic) { t.Name = name })
}

// UpdateTopicContent replaces a topic's text.
func (s *Session) UpdateTopicContent(id, content string) error {
	return s.updateTopic(id, "Topic content updated", func(t *models.Topic) { t.Content = content })
}

func (s *Session) updateTopic(id, op string, apply func(*models.Topic)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _, t := s.ws.TopicOwner(id)
	if t == nil {
		return notFound("topic", id)
	}
	before := s.ws.Clone()
	apply(t)
	s.touch(p)
	return s.commit(before, op, zap.String("topic", id))
}

// RemoveTopic deletes a topic and re-packs the order of its siblings.
func (s *Session) RemoveTopic(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, sec, t := s.ws.TopicOwner(id)
	if t == nil {
		return notFound("topic", id)
	}
	before := s.ws.Clone()
	idx := sec.TopicIndex(id)
	sec.Topics = slices.Delete(sec.Topics, idx, idx+1)
	repackTopics(sec.Topics)
	s.touch(p)
	return s.commit(before, "Topic removed",
		zap.String("section", sec.ID), zap.String("topic", id))
}
