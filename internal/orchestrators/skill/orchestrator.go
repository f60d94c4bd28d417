// Package skill implements the progression graph engine: it owns the
// per-user set of unlocked skills, answers eligibility queries against
// the catalog, and performs unlocks with optimistic local mutation and
// fire-and-forget persistence.
package skill

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/errors"
	"github.com/calistree/progression-api/internal/notify"
	"github.com/calistree/progression-api/internal/repositories/unlocks"
)

const (
	// Remote writes are detached from the caller; they get their own
	// deadline instead of inheriting a request context that may be gone.
	persistTimeout = 5 * time.Second
)

// Config holds the dependencies for the skill engine
type Config struct {
	// UserID scopes persistence. Empty means a guest session: state is
	// kept in memory only and every remote call is skipped.
	UserID  string
	Catalog *catalog.Catalog
	Repo    unlocks.Repository
	// Hub receives change notifications for the UI layer. Optional.
	Hub *notify.Hub
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Catalog == nil {
		vb.RequiredField("Catalog")
	}
	if c.Repo == nil {
		vb.RequiredField("Repo")
	}

	return vb.Build()
}

// Engine is the sole owner and writer of a user's unlock set. One engine
// per user session; mutations are serialized internally.
type Engine struct {
	userID string
	cat    *catalog.Catalog
	repo   unlocks.Repository
	hub    *notify.Hub

	bridge Bridge

	mu       sync.RWMutex
	unlocked map[string]struct{}

	writes sync.WaitGroup
}

// NewEngine creates a skill engine with the provided dependencies
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Engine{
		userID:   cfg.UserID,
		cat:      cfg.Catalog,
		repo:     cfg.Repo,
		hub:      cfg.Hub,
		unlocked: make(map[string]struct{}),
	}, nil
}

// AttachBridge wires the quest engine in after both engines exist. The
// engine works without a bridge; unlock events are then dropped.
func (e *Engine) AttachBridge(b Bridge) {
	e.bridge = b
}

// Load populates the unlock set from the remote document. A missing or
// unreadable document falls back to "nothing unlocked" rather than
// failing startup; skill ids no longer in the catalog are dropped.
func (e *Engine) Load(ctx context.Context) error {
	if e.userID == "" {
		return nil
	}

	out, err := e.repo.Get(ctx, unlocks.GetInput{UserID: e.userID})
	if err != nil {
		slog.Error("Failed to load unlock document, starting empty",
			"user_id", e.userID,
			"error", err,
		)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.unlocked = make(map[string]struct{}, len(out.Unlocked))
	for id, isUnlocked := range out.Unlocked {
		if !isUnlocked {
			continue
		}
		if _, known := e.cat.Skill(id); !known {
			slog.Warn("Dropping unknown skill id from unlock document",
				"user_id", e.userID,
				"skill_id", id,
			)
			continue
		}
		e.unlocked[id] = struct{}{}
	}

	return nil
}

// CanUnlock reports whether the skill is eligible: already unlocked, or
// every prerequisite is in the unlock set. Unknown ids fail closed.
func (e *Engine) CanUnlock(skillID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.cat.Skill(skillID)
	if !ok {
		return false
	}
	if _, done := e.unlocked[skillID]; done {
		return true
	}
	return len(e.unmetLocked(s)) == 0
}

// UnmetRequirements returns the prerequisite ids not yet unlocked. The
// list is empty for unknown skills and for skills whose gate is already
// satisfied.
func (e *Engine) UnmetRequirements(skillID string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.cat.Skill(skillID)
	if !ok {
		return nil
	}
	return e.unmetLocked(s)
}

// unmetLocked must be called with the mutex held
func (e *Engine) unmetLocked(s *catalog.Skill) []string {
	var missing []string
	for _, req := range s.Requires {
		if _, done := e.unlocked[req]; !done {
			missing = append(missing, req)
		}
	}
	return missing
}

// UnlockSkill adds the skill to the unlock set if its gate is satisfied.
// The local mutation is authoritative for the session: the remote
// merge-write is fire-and-forget, and exactly one unlock event is
// delivered to the bridge before this method returns.
func (e *Engine) UnlockSkill(ctx context.Context, input *UnlockSkillInput) (*UnlockSkillOutput, error) {
	if input == nil || input.SkillID == "" {
		return nil, errors.InvalidArgument("skill ID is required")
	}

	e.mu.Lock()

	s, ok := e.cat.Skill(input.SkillID)
	if !ok {
		e.mu.Unlock()
		return nil, errors.NotFoundf("unknown skill %q", input.SkillID)
	}

	if _, done := e.unlocked[s.ID]; done {
		e.mu.Unlock()
		return &UnlockSkillOutput{AlreadyUnlocked: true}, nil
	}

	if missing := e.unmetLocked(s); len(missing) > 0 {
		e.mu.Unlock()
		return nil, errors.FailedPreconditionf("prerequisites not met for %q", s.ID).
			WithMeta("missing_skills", missing)
	}

	e.unlocked[s.ID] = struct{}{}
	e.mu.Unlock()

	e.persistUnlock(s.ID)

	// Synchronous delivery: the quest engine must see the post-unlock
	// state before control returns to the caller. The hub fires after
	// delivery so a subscriber reading quest state sees the full effect
	// of the unlock.
	if e.bridge != nil {
		e.bridge.DeliverUnlock(ctx, &UnlockEvent{UserID: e.userID, SkillID: s.ID})
	}

	if e.hub != nil {
		e.hub.Publish(notify.Event{Kind: notify.KindSkillUnlocked, Field: s.ID})
	}

	slog.Info("Skill unlocked",
		"user_id", e.userID,
		"skill_id", s.ID,
		"tree", s.Tree,
		"tier", s.Tier,
	)

	return &UnlockSkillOutput{}, nil
}

// persistUnlock schedules the remote merge-write. Failures are logged,
// never surfaced: the local state already reflects the change.
func (e *Engine) persistUnlock(skillID string) {
	if e.userID == "" {
		return
	}

	e.writes.Add(1)
	go func() {
		defer e.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if _, err := e.repo.SetUnlocked(ctx, unlocks.SetUnlockedInput{
			UserID:  e.userID,
			SkillID: skillID,
		}); err != nil {
			slog.Error("Failed to persist skill unlock",
				"user_id", e.userID,
				"skill_id", skillID,
				"error", err,
			)
		}
	}()
}

// persistDelete schedules remote key deletions for a reset
func (e *Engine) persistDelete(skillIDs []string) {
	if e.userID == "" || len(skillIDs) == 0 {
		return
	}

	e.writes.Add(1)
	go func() {
		defer e.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if _, err := e.repo.Delete(ctx, unlocks.DeleteInput{
			UserID:   e.userID,
			SkillIDs: skillIDs,
		}); err != nil {
			slog.Error("Failed to persist skill reset",
				"user_id", e.userID,
				"skill_count", len(skillIDs),
				"error", err,
			)
		}
	}()
}

// IsUnlocked reports whether the skill is in the unlock set
func (e *Engine) IsUnlocked(skillID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, done := e.unlocked[skillID]
	return done
}

// GlobalLevel is the cardinality of the unlock set
func (e *Engine) GlobalLevel() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.unlocked)
}

// CompletionPercent is unlocked count over total catalog size, in [0, 1]
func (e *Engine) CompletionPercent() float64 {
	total := e.cat.TotalSkills()
	if total == 0 {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return float64(len(e.unlocked)) / float64(total)
}

// TreeProgress counts unlocked over total skills in a tree, all tiers
// combined. Always recomputed from the unlock set, never cached.
func (e *Engine) TreeProgress(treeID string) TreeProgressOutput {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.countLocked(e.cat.SkillsInTree(treeID))
}

// BranchProgress counts unlocked over total skills in one branch
func (e *Engine) BranchProgress(branchID, treeID string) TreeProgressOutput {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.countLocked(e.cat.SkillsInBranch(treeID, branchID))
}

// countLocked must be called with the mutex held
func (e *Engine) countLocked(scope []*catalog.Skill) TreeProgressOutput {
	out := TreeProgressOutput{Total: len(scope)}
	for _, s := range scope {
		if _, done := e.unlocked[s.ID]; done {
			out.Unlocked++
		}
	}
	return out
}

// IsBranchMastered reports whether every skill in the branch is unlocked
func (e *Engine) IsBranchMastered(branchID, treeID string) bool {
	p := e.BranchProgress(branchID, treeID)
	return p.Total > 0 && p.Unlocked == p.Total
}

// IsTreeCompleted reports whether every skill in the tree is unlocked
func (e *Engine) IsTreeCompleted(treeID string) bool {
	p := e.TreeProgress(treeID)
	return p.Total > 0 && p.Unlocked == p.Total
}

// ResetAll clears the unlock set. The local clear is optimistic; the
// remote key deletion is fire-and-forget.
func (e *Engine) ResetAll(ctx context.Context) error {
	e.mu.Lock()
	cleared := make([]string, 0, len(e.unlocked))
	for id := range e.unlocked {
		cleared = append(cleared, id)
	}
	e.unlocked = make(map[string]struct{})
	e.mu.Unlock()

	e.persistDelete(cleared)

	if e.hub != nil {
		e.hub.Publish(notify.Event{Kind: notify.KindSkillsReset})
	}

	slog.Info("All skills reset",
		"user_id", e.userID,
		"cleared", len(cleared),
	)

	return nil
}

// ResetTree clears the unlock set for one tree, leaving other trees
// untouched
func (e *Engine) ResetTree(ctx context.Context, treeID string) error {
	if _, ok := e.cat.Tree(treeID); !ok {
		return errors.NotFoundf("unknown tree %q", treeID)
	}

	e.mu.Lock()
	var cleared []string
	for _, s := range e.cat.SkillsInTree(treeID) {
		if _, done := e.unlocked[s.ID]; done {
			cleared = append(cleared, s.ID)
			delete(e.unlocked, s.ID)
		}
	}
	e.mu.Unlock()

	e.persistDelete(cleared)

	if e.hub != nil {
		e.hub.Publish(notify.Event{Kind: notify.KindSkillsReset, Field: treeID})
	}

	slog.Info("Tree reset",
		"user_id", e.userID,
		"tree", treeID,
		"cleared", len(cleared),
	)

	return nil
}

// Flush blocks until every scheduled remote write has finished. Used on
// shutdown and in tests; normal callers never wait on persistence.
func (e *Engine) Flush() {
	e.writes.Wait()
}
