// Package session assembles the per-user engine pair. A session is the
// single owner of one user's progression state: one skill engine, one
// quest engine, bridged at construction so unlock events flow one way
// and gate reads flow back.
package session

import (
	"context"
	"sync"

	"github.com/calistree/progression-api/internal/auth"
	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/errors"
	"github.com/calistree/progression-api/internal/notify"
	"github.com/calistree/progression-api/internal/orchestrators/quest"
	"github.com/calistree/progression-api/internal/orchestrators/skill"
	"github.com/calistree/progression-api/internal/pkg/clock"
	"github.com/calistree/progression-api/internal/pkg/idgen"
	"github.com/calistree/progression-api/internal/repositories/queststate"
	"github.com/calistree/progression-api/internal/repositories/unlocks"
)

// Session holds one user's engine pair and serializes their mutations
// against each other: the session mutex is held across an entire unlock,
// bridge delivery included, so no quest mutation can interleave between
// a skill mutation and its cross-engine effects. Mutations go through
// the Session methods; Skills and Quests are exposed for reads.
// Guest sessions carry an empty UserID and never touch the stores.
type Session struct {
	UserID string
	Skills *skill.Engine
	Quests *quest.Engine

	mu sync.Mutex
}

// UnlockSkill unlocks a skill, delivering the unlock event to the quest
// engine before the session lock is released
func (s *Session) UnlockSkill(ctx context.Context, input *skill.UnlockSkillInput) (*skill.UnlockSkillOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Skills.UnlockSkill(ctx, input)
}

// ResetAllSkills clears the user's entire unlock set
func (s *Session) ResetAllSkills(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Skills.ResetAll(ctx)
}

// ResetTree clears the unlock set for one tree
func (s *Session) ResetTree(ctx context.Context, treeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Skills.ResetTree(ctx, treeID)
}

// StartQuest activates an available quest
func (s *Session) StartQuest(ctx context.Context, input *quest.StartQuestInput) (*quest.StartQuestOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quests.StartQuest(ctx, input)
}

// RefreshAvailable re-evaluates quest availability gates
func (s *Session) RefreshAvailable(ctx context.Context) *quest.RefreshAvailableOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quests.RefreshAvailable(ctx)
}

// ExpireStale removes past-deadline quests
func (s *Session) ExpireStale(ctx context.Context) *quest.ExpireStaleOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quests.ExpireStale(ctx)
}

// ResetQuestProgress moves active quests back to available and clears
// the earned experience and coins
func (s *Session) ResetQuestProgress(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quests.ResetProgress(ctx)
}

// ResetAllQuests wipes all quest state and re-seeds from templates
func (s *Session) ResetAllQuests(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quests.ResetAll(ctx)
}

// Flush blocks until both engines' pending writes have finished
func (s *Session) Flush() {
	s.Skills.Flush()
	s.Quests.Flush()
}

// Config holds the shared dependencies every session is built from
type Config struct {
	Auth       auth.Service
	Catalog    *catalog.Catalog
	UnlockRepo unlocks.Repository
	QuestRepo  queststate.Repository
	// IDGenerator defaults to a quest-prefixed generator when nil
	IDGenerator idgen.Generator
	// Clock defaults to the real clock when nil
	Clock clock.Clock
	// Hub receives change notifications for the UI layer. Optional.
	Hub *notify.Hub
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Auth == nil {
		vb.RequiredField("Auth")
	}
	if c.Catalog == nil {
		vb.RequiredField("Catalog")
	}
	if c.UnlockRepo == nil {
		vb.RequiredField("UnlockRepo")
	}
	if c.QuestRepo == nil {
		vb.RequiredField("QuestRepo")
	}

	return vb.Build()
}

// Manager creates and caches sessions keyed by user id. Guest sessions
// are never cached; each guest gets fresh in-memory state.
type Manager struct {
	auth       auth.Service
	cat        *catalog.Catalog
	unlockRepo unlocks.Repository
	questRepo  queststate.Repository
	idGen      idgen.Generator
	clock      clock.Clock
	hub        *notify.Hub

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	idGen := cfg.IDGenerator
	if idGen == nil {
		// Dynamic quest ids must never collide with template ids
		idGen = idgen.NewUUID("quest")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &Manager{
		auth:       cfg.Auth,
		cat:        cfg.Catalog,
		unlockRepo: cfg.UnlockRepo,
		questRepo:  cfg.QuestRepo,
		idGen:      idGen,
		clock:      c,
		hub:        cfg.Hub,
		sessions:   make(map[string]*Session),
	}, nil
}

// Open resolves the caller's identity and returns their session,
// building and loading the engine pair on first use
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	userID, ok := m.auth.CurrentUserID(ctx)
	if !ok {
		return m.build(ctx, "")
	}

	m.mu.Lock()
	if sess, found := m.sessions[userID]; found {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	sess, err := m.build(ctx, userID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have built the session concurrently; keep the
	// first one so there is exactly one owner per user.
	if existing, found := m.sessions[userID]; found {
		return existing, nil
	}
	m.sessions[userID] = sess
	return sess, nil
}

// build constructs and loads the engine pair. Skills load first so the
// quest engine's availability gates see the restored unlock set.
func (m *Manager) build(ctx context.Context, userID string) (*Session, error) {
	skills, err := skill.NewEngine(&skill.Config{
		UserID:  userID,
		Catalog: m.cat,
		Repo:    m.unlockRepo,
		Hub:     m.hub,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create skill engine")
	}

	quests, err := quest.NewEngine(&quest.Config{
		UserID:      userID,
		Catalog:     m.cat,
		Repo:        m.questRepo,
		Progress:    skills,
		IDGenerator: m.idGen,
		Clock:       m.clock,
		Hub:         m.hub,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create quest engine")
	}

	skills.AttachBridge(quests)

	if err := skills.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load skill state")
	}
	if err := quests.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load quest state")
	}

	return &Session{
		UserID: userID,
		Skills: skills,
		Quests: quests,
	}, nil
}

// Close flushes and evicts one user's session
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	sess, found := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if found {
		sess.Flush()
	}
}

// CloseAll flushes and evicts every cached session. Called on shutdown
// so fire-and-forget writes are not lost.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Flush()
	}
}
