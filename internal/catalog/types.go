// Package catalog holds the immutable skill and quest definitions for the
// progression graph. The catalog is loaded once at startup from embedded
// YAML, validated, and never mutated afterwards.
package catalog

// Tier identifies where a skill sits within its tree
type Tier string

// Skill tiers
const (
	TierFoundational Tier = "foundational"
	TierBranch       Tier = "branch"
	TierMaster       Tier = "master"
)

// Skill is a single unlockable node in the progression graph.
// All fields are static; unlock state lives in the skill engine.
type Skill struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Requires    []string `yaml:"requires"`

	// Set during load from the skill's position in the tree definition
	Tree   string `yaml:"-"`
	Branch string `yaml:"-"`
	Tier   Tier   `yaml:"-"`
}

// Branch is a named sub-path within a tree, gated behind foundational skills
type Branch struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Skills []*Skill `yaml:"skills"`
}

// Tree is a top-level grouping of related skills
type Tree struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Foundational []*Skill `yaml:"foundational"`
	Branches     []*Branch `yaml:"branches"`
	Masters      []*Skill `yaml:"masters"`
}

// QuestType classifies how a quest is issued
type QuestType string

// Quest types
const (
	QuestTypeStory       QuestType = "story"
	QuestTypeDaily       QuestType = "daily"
	QuestTypeWeekly      QuestType = "weekly"
	QuestTypeRandom      QuestType = "random"
	QuestTypeAchievement QuestType = "achievement"
)

// Difficulty determines base reward magnitude
type Difficulty string

// Quest difficulties
const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyLegendary Difficulty = "legendary"
)

// Reward is the payout attached to a quest template
type Reward struct {
	Experience int    `yaml:"experience"`
	Coins      int    `yaml:"coins"`
	Title      string `yaml:"title"`
	Badge      string `yaml:"badge"`
}

// QuestTemplate is the static definition a runtime quest is instantiated from
type QuestTemplate struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name"`
	Description    string     `yaml:"description"`
	Type           QuestType  `yaml:"type"`
	Difficulty     Difficulty `yaml:"difficulty"`
	RequiredLevel  int        `yaml:"required_level"`
	RequiredSkills []string   `yaml:"required_skills"`
	Prerequisites  []string   `yaml:"prerequisites"`
	TargetSkills   []string   `yaml:"target_skills"`
	TargetTrees    []string   `yaml:"target_trees"`
	TargetCount    int        `yaml:"target_count"`
	ExpiresInHours int        `yaml:"expires_in_hours"`
	Reward         Reward     `yaml:"reward"`
}

// Catalog is the validated, immutable set of trees and quest templates
type Catalog struct {
	trees     []*Tree
	skills    map[string]*Skill
	order     []string
	templates []*QuestTemplate
}

// Skill returns the skill with the given id, if it exists
func (c *Catalog) Skill(id string) (*Skill, bool) {
	s, ok := c.skills[id]
	return s, ok
}

// Skills returns every skill in definition order
func (c *Catalog) Skills() []*Skill {
	out := make([]*Skill, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.skills[id])
	}
	return out
}

// TotalSkills returns the number of skills across all trees
func (c *Catalog) TotalSkills() int {
	return len(c.order)
}

// Tree returns the tree with the given id, if it exists
func (c *Catalog) Tree(id string) (*Tree, bool) {
	for _, t := range c.trees {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Trees returns every tree in definition order
func (c *Catalog) Trees() []*Tree {
	return c.trees
}

// SkillsInTree returns every skill belonging to the given tree, all tiers
// combined, in definition order
func (c *Catalog) SkillsInTree(treeID string) []*Skill {
	var out []*Skill
	for _, id := range c.order {
		if s := c.skills[id]; s.Tree == treeID {
			out = append(out, s)
		}
	}
	return out
}

// SkillsInBranch returns every skill in the given branch of the given tree
func (c *Catalog) SkillsInBranch(treeID, branchID string) []*Skill {
	var out []*Skill
	for _, id := range c.order {
		if s := c.skills[id]; s.Tree == treeID && s.Branch == branchID {
			out = append(out, s)
		}
	}
	return out
}

// QuestTemplates returns every quest template in definition order
func (c *Catalog) QuestTemplates() []*QuestTemplate {
	return c.templates
}
