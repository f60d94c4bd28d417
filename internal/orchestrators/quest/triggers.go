package quest

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/repositories/queststate"
)

// Trigger payouts awarded directly to the ledger, outside any quest
const (
	foundationalExperience = 25
	foundationalCoins      = 5

	branchMasteredExperience = 100
	branchMasteredCoins      = 25

	masterExperience = 150
	masterCoins      = 40

	treeCompletedExperience = 500
	treeCompletedCoins      = 100
)

const dynamicQuestExpiry = 72 * time.Hour

// applyTriggersLocked evaluates the special unlock triggers for a
// freshly unlocked skill: foundational and master payouts, branch
// mastery, and tree completion. Branch and tree checks read the skill
// graph, which already reflects the unlock. Must be called with the
// mutex held.
func (e *Engine) applyTriggersLocked(sk *catalog.Skill) {
	switch sk.Tier {
	case catalog.TierFoundational:
		e.awardLocked(foundationalExperience, foundationalCoins, "foundational_unlock", sk.ID)

	case catalog.TierBranch:
		if e.progress.IsBranchMastered(sk.Branch, sk.Tree) {
			e.awardLocked(branchMasteredExperience, branchMasteredCoins, "branch_mastered", sk.ID)
			e.spawnBranchQuestLocked(sk)
		}

	case catalog.TierMaster:
		e.awardLocked(masterExperience, masterCoins, "master_unlock", sk.ID)
		e.badges = appendUnique(e.badges, "master_"+sk.ID)
	}

	if e.progress.IsTreeCompleted(sk.Tree) {
		e.awardLocked(treeCompletedExperience, treeCompletedCoins, "tree_completed", sk.ID)
		e.spawnTreeQuestLocked(sk.Tree)
	}

	// The unlock itself raised the skill graph's global level, which can
	// open level- or skill-gated quests. Trigger payouts only touch
	// ledger experience and gate nothing.
	e.refreshAvailableLocked()
}

// awardLocked pays a trigger bonus into the ledger. Must be called with
// the mutex held.
func (e *Engine) awardLocked(experience, coins int, trigger, skillID string) {
	e.experience += experience
	e.coins += coins

	slog.Info("Trigger bonus awarded",
		"user_id", e.userID,
		"trigger", trigger,
		"skill_id", skillID,
		"experience", experience,
		"coins", coins,
	)
}

// spawnBranchQuestLocked generates a bonus quest scoped to the mastered
// branch's tree. Dynamic quests carry a generated id and no template id.
func (e *Engine) spawnBranchQuestLocked(sk *catalog.Skill) {
	tree, ok := e.cat.Tree(sk.Tree)
	if !ok {
		return
	}

	e.insertDynamicLocked(&queststate.Quest{
		ID:          e.idGen.Generate(),
		Name:        fmt.Sprintf("Beyond the %s Branch", sk.Branch),
		Description: fmt.Sprintf("You mastered a branch of %s. Unlock two more skills in the tree to claim a bonus.", tree.Name),
		Type:        catalog.QuestTypeRandom,
		Difficulty:  catalog.DifficultyMedium,
		TargetTrees: []string{sk.Tree},
		Progress:    queststate.Progress{Target: 2},
		Reward:      queststate.Reward{Experience: 75, Coins: 20},
	})
}

// spawnTreeQuestLocked generates a celebration quest after a full tree
// completion, pointing the player at the rest of the graph
func (e *Engine) spawnTreeQuestLocked(treeID string) {
	tree, ok := e.cat.Tree(treeID)
	if !ok {
		return
	}

	e.insertDynamicLocked(&queststate.Quest{
		ID:          e.idGen.Generate(),
		Name:        fmt.Sprintf("%s Conqueror", tree.Name),
		Description: fmt.Sprintf("The %s tree is complete. Unlock three skills anywhere else to keep the momentum.", tree.Name),
		Type:        catalog.QuestTypeRandom,
		Difficulty:  catalog.DifficultyHard,
		Progress:    queststate.Progress{Target: 3},
		Reward:      queststate.Reward{Experience: 200, Coins: 50},
	})
}

// insertDynamicLocked stamps lifecycle fields on a generated quest and
// places it directly in the available list. Must be called with the
// mutex held.
func (e *Engine) insertDynamicLocked(q *queststate.Quest) {
	q.Status = queststate.StatusAvailable
	deadline := e.clock.Now().Add(dynamicQuestExpiry)
	q.ExpiresAt = &deadline

	e.available = append(e.available, q)

	slog.Info("Dynamic quest generated",
		"user_id", e.userID,
		"quest_id", q.ID,
		"quest_name", q.Name,
	)
}
