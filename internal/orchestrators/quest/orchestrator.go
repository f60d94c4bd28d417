// Package quest implements the quest state machine: quests move through
// locked, available, active, and the terminal completed/expired states,
// progress is driven by skill-unlock events, and completions pay into
// the player's reward ledger.
package quest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/errors"
	"github.com/calistree/progression-api/internal/notify"
	"github.com/calistree/progression-api/internal/orchestrators/skill"
	"github.com/calistree/progression-api/internal/pkg/clock"
	"github.com/calistree/progression-api/internal/pkg/idgen"
	"github.com/calistree/progression-api/internal/repositories/queststate"
)

const (
	persistTimeout = 5 * time.Second
)

// Config holds the dependencies for the quest engine
type Config struct {
	// UserID scopes persistence. Empty means a guest session.
	UserID      string
	Catalog     *catalog.Catalog
	Repo        queststate.Repository
	Progress    ProgressSource
	IDGenerator idgen.Generator
	// Clock defaults to the real clock when nil
	Clock clock.Clock
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
	if c.Progress == nil {
		vb.RequiredField("Progress")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

// Engine is the sole owner of a user's quest lists and reward ledger.
// One engine per user session; mutations are serialized internally.
type Engine struct {
	userID   string
	cat      *catalog.Catalog
	repo     queststate.Repository
	progress ProgressSource
	idGen    idgen.Generator
	clock    clock.Clock
	hub      *notify.Hub

	mu        sync.Mutex
	locked    []*queststate.Quest
	available []*queststate.Quest
	active    []*queststate.Quest
	completed []*queststate.Quest

	experience int
	coins      int
	titles     []string
	badges     []string

	writes sync.WaitGroup
}

// NewEngine creates a quest engine and seeds the locked list from the
// catalog's quest templates
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	e := &Engine{
		userID:   cfg.UserID,
		cat:      cfg.Catalog,
		repo:     cfg.Repo,
		progress: cfg.Progress,
		idGen:    cfg.IDGenerator,
		clock:    c,
		hub:      cfg.Hub,
	}
	e.seedLocked()

	return e, nil
}

// Ensure the engine satisfies the skill engine's bridge contract
var _ skill.Bridge = (*Engine)(nil)

// seedLocked instantiates every template into the locked list
func (e *Engine) seedLocked() {
	e.locked = e.locked[:0]
	for _, t := range e.cat.QuestTemplates() {
		e.locked = append(e.locked, e.instantiate(t))
	}
}

// instantiate builds a runtime quest from a template, stamping the
// expiry deadline where the template carries one
func (e *Engine) instantiate(t *catalog.QuestTemplate) *queststate.Quest {
	q := &queststate.Quest{
		ID:             t.ID,
		TemplateID:     t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Type:           t.Type,
		Difficulty:     t.Difficulty,
		RequiredLevel:  t.RequiredLevel,
		RequiredSkills: t.RequiredSkills,
		Prerequisites:  t.Prerequisites,
		TargetSkills:   t.TargetSkills,
		TargetTrees:    t.TargetTrees,
		Progress:       queststate.Progress{Target: t.TargetCount},
		Reward: queststate.Reward{
			Experience: t.Reward.Experience,
			Coins:      t.Reward.Coins,
			Title:      t.Reward.Title,
			Badge:      t.Reward.Badge,
		},
		Status: queststate.StatusLocked,
	}

	if t.ExpiresInHours > 0 {
		deadline := e.clock.Now().Add(time.Duration(t.ExpiresInHours) * time.Hour)
		q.ExpiresAt = &deadline
	}

	return q
}

// Load restores quest state from the remote document. A missing or
// unreadable document falls back to a fresh template seed rather than
// failing startup.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID == "" {
		e.refreshAvailableLocked()
		return nil
	}

	out, err := e.repo.Get(ctx, queststate.GetInput{UserID: e.userID})
	if err != nil {
		if !errors.IsNotFound(err) {
			slog.Error("Failed to load quest document, starting fresh",
				"user_id", e.userID,
				"error", err,
			)
		}
		e.refreshAvailableLocked()
		return nil
	}

	doc := out.Document
	e.available = doc.AvailableQuests
	e.active = doc.ActiveQuests
	e.completed = doc.CompletedQuests
	e.experience = doc.PlayerExperience
	e.coins = doc.PlayerCoins
	e.titles = doc.PlayerTitles
	e.badges = doc.PlayerBadges

	// Templates already present in any list stay where they are; the
	// rest go back to locked for future gate evaluation.
	e.locked = e.locked[:0]
	for _, t := range e.cat.QuestTemplates() {
		if e.findLocked(t.ID) == nil {
			e.locked = append(e.locked, e.instantiate(t))
		}
	}

	e.refreshAvailableLocked()
	return nil
}

// findLocked returns the quest with the given id from any of the three
// live lists. Must be called with the mutex held.
func (e *Engine) findLocked(questID string) *queststate.Quest {
	for _, list := range [][]*queststate.Quest{e.available, e.active, e.completed} {
		for _, q := range list {
			if q.ID == questID {
				return q
			}
		}
	}
	return nil
}

// RefreshAvailable promotes every locked quest whose gates are met.
// Idempotent: re-running without state changes promotes nothing.
func (e *Engine) RefreshAvailable(ctx context.Context) *RefreshAvailableOutput {
	e.mu.Lock()
	promoted := e.refreshAvailableLocked()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if len(promoted) > 0 {
		e.persist(snapshot)
		e.publish(notify.Event{Kind: notify.KindQuestsChanged})
	}

	return &RefreshAvailableOutput{NewlyAvailable: promoted}
}

// refreshAvailableLocked must be called with the mutex held
func (e *Engine) refreshAvailableLocked() []string {
	var promoted []string
	remaining := e.locked[:0]

	for _, q := range e.locked {
		if !e.gatesMetLocked(q) {
			remaining = append(remaining, q)
			continue
		}
		if e.findLocked(q.ID) != nil {
			// Already live under the same id; drop the duplicate
			continue
		}
		q.Status = queststate.StatusAvailable
		e.available = append(e.available, q)
		promoted = append(promoted, q.ID)
	}

	e.locked = remaining
	return promoted
}

// gatesMetLocked evaluates level, skill, and prerequisite-quest gates
func (e *Engine) gatesMetLocked(q *queststate.Quest) bool {
	if e.progress.GlobalLevel() < q.RequiredLevel {
		return false
	}
	for _, id := range q.RequiredSkills {
		if !e.progress.IsUnlocked(id) {
			return false
		}
	}
	for _, id := range q.Prerequisites {
		if !e.isCompletedLocked(id) {
			return false
		}
	}
	return true
}

func (e *Engine) isCompletedLocked(questID string) bool {
	for _, q := range e.completed {
		if q.ID == questID {
			return true
		}
	}
	return false
}

// StartQuest moves a quest from available to active by explicit user
// action
func (e *Engine) StartQuest(ctx context.Context, input *StartQuestInput) (*StartQuestOutput, error) {
	if input == nil || input.QuestID == "" {
		return nil, errors.InvalidArgument("quest ID is required")
	}

	e.mu.Lock()

	idx := -1
	for i, q := range e.available {
		if q.ID == input.QuestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return nil, errors.NotFoundf("quest %q is not available", input.QuestID)
	}

	q := e.available[idx]
	e.available = append(e.available[:idx], e.available[idx+1:]...)

	now := e.clock.Now()
	q.Status = queststate.StatusActive
	q.StartedAt = &now
	e.active = append(e.active, q)

	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot)
	e.publish(notify.Event{Kind: notify.KindQuestsChanged})

	slog.Info("Quest started",
		"user_id", e.userID,
		"quest_id", q.ID,
	)

	return &StartQuestOutput{Quest: q}, nil
}

// DeliverUnlock implements skill.Bridge. Every active quest whose
// scoping filter matches the unlocked skill gains exactly one progress
// point; quests that reach their target are completed in active-list
// order. The four special triggers are evaluated afterwards, all within
// this call so a subsequent read sees a consistent state.
func (e *Engine) DeliverUnlock(ctx context.Context, event *skill.UnlockEvent) {
	if event == nil {
		return
	}

	sk, ok := e.cat.Skill(event.SkillID)
	if !ok {
		slog.Warn("Unlock event for unknown skill",
			"user_id", e.userID,
			"skill_id", event.SkillID,
		)
		return
	}

	e.mu.Lock()

	e.expireStaleLocked(e.clock.Now())

	var finished []*queststate.Quest
	remaining := e.active[:0]
	for _, q := range e.active {
		if questMatches(q, sk) && q.Progress.Current < q.Progress.Target {
			q.Progress.Current++
		}
		if q.Progress.IsCompleted() {
			finished = append(finished, q)
			continue
		}
		remaining = append(remaining, q)
	}
	e.active = remaining

	for _, q := range finished {
		e.completeQuestLocked(q)
	}

	e.applyTriggersLocked(sk)

	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot)
	e.publish(notify.Event{Kind: notify.KindQuestsChanged})
}

// questMatches applies the quest's scoping filter: empty filters mean
// any unlock counts; otherwise the skill id or its tree must be listed.
// A skill matching both filters still counts once.
func questMatches(q *queststate.Quest, sk *catalog.Skill) bool {
	if len(q.TargetSkills) == 0 && len(q.TargetTrees) == 0 {
		return true
	}
	for _, id := range q.TargetSkills {
		if id == sk.ID {
			return true
		}
	}
	for _, tree := range q.TargetTrees {
		if tree == sk.Tree {
			return true
		}
	}
	return false
}

// completeQuestLocked finalizes a quest: status, timestamps, ledger
// payout, completed-list append, and a gate re-evaluation since the
// completion may unlock follow-up quests. Must be called with the mutex
// held and the quest already removed from active.
func (e *Engine) completeQuestLocked(q *queststate.Quest) {
	now := e.clock.Now()
	q.Status = queststate.StatusCompleted
	q.CompletedAt = &now

	e.experience += q.Reward.Experience
	e.coins += q.Reward.Coins
	if q.Reward.Title != "" {
		e.titles = appendUnique(e.titles, q.Reward.Title)
	}
	if q.Reward.Badge != "" {
		e.badges = appendUnique(e.badges, q.Reward.Badge)
	}

	e.completed = append(e.completed, q)

	slog.Info("Quest completed",
		"user_id", e.userID,
		"quest_id", q.ID,
		"experience", q.Reward.Experience,
		"coins", q.Reward.Coins,
	)

	e.refreshAvailableLocked()
}

// expireStaleLocked routes past-deadline available and active quests to
// the terminal expired status. Must be called with the mutex held.
func (e *Engine) expireStaleLocked(now time.Time) []string {
	var expired []string

	prune := func(list []*queststate.Quest) []*queststate.Quest {
		kept := list[:0]
		for _, q := range list {
			if q.ExpiresAt != nil && now.After(*q.ExpiresAt) {
				q.Status = queststate.StatusExpired
				expired = append(expired, q.ID)
				continue
			}
			kept = append(kept, q)
		}
		return kept
	}

	e.available = prune(e.available)
	e.active = prune(e.active)

	if len(expired) > 0 {
		slog.Info("Quests expired",
			"user_id", e.userID,
			"quest_ids", expired,
		)
	}

	return expired
}

// ExpireStale removes past-deadline quests from the available and
// active lists
func (e *Engine) ExpireStale(ctx context.Context) *ExpireStaleOutput {
	e.mu.Lock()
	expired := e.expireStaleLocked(e.clock.Now())
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if len(expired) > 0 {
		e.persist(snapshot)
		e.publish(notify.Event{Kind: notify.KindQuestsChanged})
	}

	return &ExpireStaleOutput{Expired: expired}
}

// ResetProgress moves active quests back to available with zeroed
// progress and clears the ledger's experience and coins. Titles and
// badges stay, and completed quests remain as the historical record.
func (e *Engine) ResetProgress(ctx context.Context) error {
	e.mu.Lock()

	for _, q := range e.active {
		q.Status = queststate.StatusAvailable
		q.Progress.Current = 0
		q.StartedAt = nil
		e.available = append(e.available, q)
	}
	e.active = nil
	e.experience = 0
	e.coins = 0

	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot)
	e.publish(notify.Event{Kind: notify.KindQuestsChanged})
	e.publish(notify.Event{Kind: notify.KindLedgerChanged})

	slog.Info("Quest progress reset", "user_id", e.userID)

	return nil
}

// ResetAll wipes every list and the full ledger, re-seeds from the
// templates, and re-evaluates availability
func (e *Engine) ResetAll(ctx context.Context) error {
	e.mu.Lock()

	e.available = nil
	e.active = nil
	e.completed = nil
	e.experience = 0
	e.coins = 0
	e.titles = nil
	e.badges = nil

	e.seedLocked()
	e.refreshAvailableLocked()

	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot)
	e.publish(notify.Event{Kind: notify.KindQuestsChanged})
	e.publish(notify.Event{Kind: notify.KindLedgerChanged})

	slog.Info("Quest state fully reset", "user_id", e.userID)

	return nil
}

// ListQuests returns copies of the three quest lists
func (e *Engine) ListQuests(ctx context.Context) *ListQuestsOutput {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &ListQuestsOutput{
		Available: append([]*queststate.Quest(nil), e.available...),
		Active:    append([]*queststate.Quest(nil), e.active...),
		Completed: append([]*queststate.Quest(nil), e.completed...),
	}
}

// LedgerSnapshot returns the player's cumulative rewards
func (e *Engine) LedgerSnapshot(ctx context.Context) Ledger {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Ledger{
		Experience: e.experience,
		Coins:      e.coins,
		Titles:     append([]string(nil), e.titles...),
		Badges:     append([]string(nil), e.badges...),
	}
}

// snapshotLocked builds the persistence document. Must be called with
// the mutex held.
func (e *Engine) snapshotLocked() *queststate.Document {
	return &queststate.Document{
		AvailableQuests:  append([]*queststate.Quest(nil), e.available...),
		ActiveQuests:     append([]*queststate.Quest(nil), e.active...),
		CompletedQuests:  append([]*queststate.Quest(nil), e.completed...),
		PlayerExperience: e.experience,
		PlayerCoins:      e.coins,
		PlayerTitles:     append([]string(nil), e.titles...),
		PlayerBadges:     append([]string(nil), e.badges...),
	}
}

// persist schedules the remote document write. Failures are logged,
// never surfaced.
func (e *Engine) persist(doc *queststate.Document) {
	if e.userID == "" {
		return
	}

	e.writes.Add(1)
	go func() {
		defer e.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if _, err := e.repo.Save(ctx, queststate.SaveInput{
			UserID:   e.userID,
			Document: doc,
		}); err != nil {
			slog.Error("Failed to persist quest document",
				"user_id", e.userID,
				"error", err,
			)
		}
	}()
}

func (e *Engine) publish(event notify.Event) {
	if e.hub != nil {
		e.hub.Publish(event)
	}
}

// Flush blocks until every scheduled remote write has finished
func (e *Engine) Flush() {
	e.writes.Wait()
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
