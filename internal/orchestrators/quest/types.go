package quest

import (
	"github.com/calistree/progression-api/internal/repositories/queststate"
)

//go:generate mockgen -destination=mock/mock_progress.go -package=questmock github.com/calistree/progression-api/internal/orchestrators/quest ProgressSource

// ProgressSource is the quest engine's read-only view of the skill
// graph. The skill engine implements it; the quest engine never mutates
// unlock state.
type ProgressSource interface {
	// GlobalLevel is the number of unlocked skills
	GlobalLevel() int

	// IsUnlocked reports whether a skill is unlocked
	IsUnlocked(skillID string) bool

	// IsBranchMastered reports whether every skill in a branch is unlocked
	IsBranchMastered(branchID, treeID string) bool

	// IsTreeCompleted reports whether every skill in a tree is unlocked
	IsTreeCompleted(treeID string) bool
}

// RefreshAvailableOutput lists the quests promoted to available
type RefreshAvailableOutput struct {
	NewlyAvailable []string
}

// StartQuestInput contains parameters for activating a quest
type StartQuestInput struct {
	QuestID string
}

// StartQuestOutput contains the activated quest
type StartQuestOutput struct {
	Quest *queststate.Quest
}

// ListQuestsOutput contains copies of the three quest lists
type ListQuestsOutput struct {
	Available []*queststate.Quest
	Active    []*queststate.Quest
	Completed []*queststate.Quest
}

// ExpireStaleOutput lists the quests that passed their deadline
type ExpireStaleOutput struct {
	Expired []string
}

// Ledger is a snapshot of the player's cumulative rewards
type Ledger struct {
	Experience int
	Coins      int
	Titles     []string
	Badges     []string
}

// Level derives the reward level from experience. This is distinct from
// the skill graph's global level (unlocked-skill count); the two are
// never interchangeable.
func (l Ledger) Level() int {
	return l.Experience/100 + 1
}
