package session

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/models"
)

// Refinement targets accepted by AppendRefinement.
const (
	TargetProject = "project"
	TargetSection = "section"
	TargetTopic   = "topic"
)

// AppendRefinement adds r to the history of the named project, section or
// topic. Kind and mode are stored as given. A missing id or timestamp is
// filled in. The stored record is returned.
func (s *Session) AppendRefinement(target, targetID string, r models.Refinement) (models.Refinement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		owner   *models.Project
		history *[]models.Refinement
	)
	switch target {
	case TargetProject:
		if p := s.ws.Project(targetID); p != nil {
			owner, history = p, &p.History
		}
	case TargetSection:
		if p, sec := s.ws.SectionOwner(targetID); sec != nil {
			owner, history = p, &sec.History
		}
	case TargetTopic:
		if p, _, t := s.ws.TopicOwner(targetID); t != nil {
			owner, history = p, &t.History
		}
	default:
		return models.Refinement{}, &InvalidKindError{Kind: target}
	}
	if history == nil {
		return models.Refinement{}, notFound(target, targetID)
	}

	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	before := s.ws.Clone()
	*history = append(*history, r)
	s.touch(owner)
	return r, s.commit(before, "Refinement appended",
		zap.String("target", target), zap.String("id", targetID), zap.String("refinement", r.ID))
}

// DeleteRefinement removes the first entry with refinementID from the
// project's own history.
func (s *Session) DeleteRefinement(projectID, refinementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.ws.Project(projectID)
	if p == nil {
		return notFound("project", projectID)
	}
	idx := slices.IndexFunc(p.History, func(r models.Refinement) bool { return r.ID == refinementID })
	if idx < 0 {
		return notFound("refinement", refinementID)
	}
	before := s.ws.Clone()
	p.History = slices.Delete(p.History, idx, idx+1)
	s.touch(p)
	return s.commit(before, "Refinement deleted",
		zap.String("project", projectID), zap.String("refinement", refinementID))
}
