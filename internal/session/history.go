package session

import (
	"github.com/wagnerlima/promptmux/internal/models"
)

const defaultHistoryLimit = 50

// history is a bounded two-stack of workspace snapshots.
type history struct {
	limit  int
	past   []*models.Workspace
	future []*models.Workspace
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &history{limit: limit}
}

// push records the state before a mutation and drops any redo branch.
func (h *history) push(ws *models.Workspace) {
	h.past = append(h.past, ws)
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
}

func (h *history) undo(current *models.Workspace) *models.Workspace {
	if len(h.past) == 0 {
		return nil
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return prev
}

func (h *history) redo(current *models.Workspace) *models.Workspace {
	if len(h.future) == 0 {
		return nil
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next
}

// Undo reverts the most recent mutation. It reports false when there is
// nothing to undo. Every project is re-stamped so updated_at keeps moving
// forward.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.undo.undo(s.ws)
	if prev == nil {
		return false, nil
	}
	s.restore(prev)
	return true, s.persist("Undo")
}

// Redo re-applies the most recently undone mutation.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.undo.redo(s.ws)
	if next == nil {
		return false, nil
	}
	s.restore(next)
	return true, s.persist("Redo")
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo.past) > 0
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo.future) > 0
}

func (s *Session) restore(ws *models.Workspace) {
	latest := s.ws.UpdatedAt
	for _, p := range s.ws.Projects {
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}
	// ws was popped off a stack, so the live tree is never shared with history.
	s.ws = ws
	s.ws.UpdatedAt = latest
	for _, p := range s.ws.Projects {
		p.UpdatedAt = s.stamp(latest)
	}
}
