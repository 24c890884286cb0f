package session

import (
	"go.uber.org/zap"
)

// Item kinds accepted by ReorderItem.
const (
	ItemSection = "section"
	ItemTopic   = "topic"
)

// ReorderItem moves a section within its project or a topic within its
// section to the drop slot newIndex, then re-packs sibling order. Moving an
// item to its current index is a no-op.
func (s *Session) ReorderItem(kind, id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case ItemSection:
		p, _ := s.ws.SectionOwner(id)
		if p == nil {
			return notFound("section", id)
		}
		from := p.SectionIndex(id)
		if from == newIndex {
			return nil
		}
		before := s.ws.Clone()
		p.Sections = move(p.Sections, from, newIndex)
		repackSections(p.Sections)
		s.touch(p)
		return s.commit(before, "Section reordered",
			zap.String("section", id), zap.Int("from", from), zap.Int("to", newIndex))

	case ItemTopic:
		p, sec, t := s.ws.TopicOwner(id)
		if t == nil {
			return notFound("topic", id)
		}
		from := sec.TopicIndex(id)
		if from == newIndex {
			return nil
		}
		before := s.ws.Clone()
		sec.Topics = move(sec.Topics, from, newIndex)
		repackTopics(sec.Topics)
		s.touch(p)
		return s.commit(before, "Topic reordered",
			zap.String("topic", id), zap.Int("from", from), zap.Int("to", newIndex))

	default:
		return &InvalidKindError{Kind: kind}
	}
}
