package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/merge"
	"github.com/wagnerlima/promptmux/internal/models"
)

// DefaultProjectName names the project seeded into a fresh workspace.
const DefaultProjectName = "My Project"

// Store persists a complete workspace snapshot. It is always handed a
// private copy, never the live tree.
type Store interface {
	Save(ws *models.Workspace) error
}

// Backend is a Store that can also read back what it saved. Load returns
// nil and no error when nothing has been persisted yet.
type Backend interface {
	Store
	Load() (*models.Workspace, error)
}

// Session owns one workspace tree and serializes every access to it.
type Session struct {
	mu     sync.Mutex
	ws     *models.Workspace
	store  Store
	undo   *history
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
	legacy *models.Project
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDs replaces the uuid generator.
func WithIDs(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// WithHistoryLimit bounds the number of undo steps kept.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.undo = newHistory(n) }
}

// WithLegacyProject makes Open adopt p instead of seeding a default project
// when nothing has been persisted yet.
func WithLegacyProject(p *models.Project) Option {
	return func(s *Session) { s.legacy = p }
}

func newSession(store Store, opts []Option) *Session {
	s := &Session{
		store: store,
		undo:  newHistory(defaultHistoryLimit),
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = discard{}
	}
	return s
}

// New wraps an existing workspace. A nil workspace is replaced by a seeded
// one; nothing is saved until the first mutation.
func New(ws *models.Workspace, store Store, opts ...Option) *Session {
	s := newSession(store, opts)
	if ws == nil {
		ws = s.seed()
	}
	s.ws = ws
	s.repair()
	return s
}

// Open loads the persisted workspace from backend, seeding and saving a new
// one when none exists.
func Open(backend Backend, opts ...Option) (*Session, error) {
	ws, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	s := newSession(backend, opts)
	if ws != nil {
		s.ws = ws
		s.repair()
		s.log.Info("Workspace loaded", zap.Int("projects", len(ws.Projects)))
		return s, nil
	}

	s.ws = s.seed()
	s.repair()
	if err := s.store.Save(s.ws.Clone()); err != nil {
		return nil, fmt.Errorf("save new workspace: %w", err)
	}
	s.log.Info("Workspace created", zap.String("active_project", s.ws.ActiveProjectID))
	return s, nil
}

// Snapshot returns a copy of the whole workspace.
func (s *Session) Snapshot() *models.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Clone()
}

// Project returns a copy of the project, or NotFoundError.
func (s *Session) Project(id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ws.Project(id)
	if p == nil {
		return nil, notFound("project", id)
	}
	return p.Clone(), nil
}

// ActiveProject returns a copy of the active project.
func (s *Session) ActiveProject() *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.ActiveProject().Clone()
}

// MergedOutput flattens the project into one text artifact. An empty id
// means the active project.
func (s *Session) MergedOutput(projectID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.projectOrActive(projectID)
	if err != nil {
		return "", err
	}
	return merge.Render(p), nil
}

func (s *Session) projectOrActive(id string) (*models.Project, error) {
	if id == "" {
		return s.ws.ActiveProject(), nil
	}
	p := s.ws.Project(id)
	if p == nil {
		return nil, notFound("project", id)
	}
	return p, nil
}

func (s *Session) newProject(name string) *models.Project {
	now := s.now().UTC()
	return &models.Project{
		ID:        s.newID(),
		Name:      name,
		Sections:  []*models.Section{},
		CreatedAt: now,
		UpdatedAt: now,
		History:   []models.Refinement{},
	}
}

func (s *Session) seed() *models.Workspace {
	p := s.legacy
	if p == nil {
		p = s.newProject(DefaultProjectName)
	}
	now := s.now().UTC()
	return &models.Workspace{
		Projects:        []*models.Project{p},
		ActiveProjectID: p.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// repair restores the tree invariants on a freshly loaded document.
func (s *Session) repair() {
	if len(s.ws.Projects) == 0 {
		p := s.newProject(DefaultProjectName)
		s.ws.Projects = []*models.Project{p}
	}
	if s.ws.ActiveProject() == nil {
		s.ws.ActiveProjectID = s.ws.Projects[0].ID
	}
	for _, p := range s.ws.Projects {
		sortByOrder(p.Sections, func(sec *models.Section) int { return sec.OrderIndex })
		repackSections(p.Sections)
		for _, sec := range p.Sections {
			sortByOrder(sec.Topics, func(t *models.Topic) int { return t.OrderIndex })
			repackTopics(sec.Topics)
			for _, t := range sec.Topics {
				t.SectionID = sec.ID
			}
		}
	}
}

// stamp returns a timestamp strictly after prev.
func (s *Session) stamp(prev time.Time) time.Time {
	t := s.now().UTC()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}

func (s *Session) touch(p *models.Project) {
	p.UpdatedAt = s.stamp(p.UpdatedAt)
}

// commit records before as an undo step and persists the current tree.
// Callers hold s.mu and have already applied the mutation.
func (s *Session) commit(before *models.Workspace, op string, fields ...zap.Field) error {
	s.undo.push(before)
	return s.persist(op, fields...)
}

func (s *Session) persist(op string, fields ...zap.Field) error {
	s.ws.UpdatedAt = s.stamp(s.ws.UpdatedAt)
	if err := s.store.Save(s.ws.Clone()); err != nil {
		s.log.Warn("Save failed", append(fields, zap.String("op", op), zap.Error(err))...)
		return &SaveError{Err: err}
	}
	s.log.Debug(op, fields...)
	return nil
}

type discard struct{}

func (discard) Save(*models.Workspace) error { return nil }
