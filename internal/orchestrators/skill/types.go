package skill

import "context"

//go:generate mockgen -destination=mock/mock_bridge.go -package=skillmock github.com/calistree/progression-api/internal/orchestrators/skill Bridge

// UnlockEvent describes one successful skill unlock. Exactly one event is
// delivered per unlock, synchronously, before UnlockSkill returns.
type UnlockEvent struct {
	UserID  string
	SkillID string
}

// Bridge is the one-way notification edge from the skill engine to the
// quest engine. The implementation must not call back into the skill
// engine's mutation methods; read queries are safe.
type Bridge interface {
	DeliverUnlock(ctx context.Context, event *UnlockEvent)
}

// UnlockSkillInput contains parameters for unlocking a skill
type UnlockSkillInput struct {
	SkillID string
}

// UnlockSkillOutput contains the result of an unlock attempt
type UnlockSkillOutput struct {
	// AlreadyUnlocked is true when the skill was unlocked before this
	// call; no event is emitted and nothing is persisted in that case.
	AlreadyUnlocked bool
}

// TreeProgressOutput reports unlocked versus total counts for a scope
type TreeProgressOutput struct {
	Unlocked int
	Total    int
}
