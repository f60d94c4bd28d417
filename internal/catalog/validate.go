package catalog

import (
	"github.com/calistree/progression-api/internal/errors"
)

// validate enforces the structural invariants of the progression graph:
// every prerequisite exists, the requires relation is acyclic, foundational
// skills carry no prerequisites, branch skills carry at least one, and
// master skills span at least two branches of their own tree. Quest
// templates must only reference ids the graph knows about.
func (c *Catalog) validate() error {
	for _, id := range c.order {
		s := c.skills[id]

		for _, req := range s.Requires {
			if _, ok := c.skills[req]; !ok {
				return errors.InvalidArgumentf("skill %q requires unknown skill %q", s.ID, req)
			}
		}

		switch s.Tier {
		case TierFoundational:
			if len(s.Requires) > 0 {
				return errors.InvalidArgumentf("foundational skill %q must not have prerequisites", s.ID)
			}
		case TierBranch:
			if len(s.Requires) == 0 {
				return errors.InvalidArgumentf("branch skill %q must have at least one prerequisite", s.ID)
			}
		case TierMaster:
			if err := c.validateMaster(s); err != nil {
				return err
			}
		}
	}

	if err := c.checkAcyclic(); err != nil {
		return err
	}

	return c.validateTemplates()
}

// validateMaster checks the capstone rule: a master skill's prerequisites
// must reference skills from at least two distinct branches of its tree.
func (c *Catalog) validateMaster(s *Skill) error {
	branches := make(map[string]struct{})
	for _, req := range s.Requires {
		dep, ok := c.skills[req]
		if !ok {
			return errors.InvalidArgumentf("skill %q requires unknown skill %q", s.ID, req)
		}
		if dep.Tree != s.Tree {
			return errors.InvalidArgumentf("master skill %q requires %q from a different tree", s.ID, req)
		}
		if dep.Branch != "" {
			branches[dep.Branch] = struct{}{}
		}
	}
	if len(branches) < 2 {
		return errors.InvalidArgumentf("master skill %q must require skills from at least two branches", s.ID)
	}
	return nil
}

// checkAcyclic walks the requires relation with a three-color DFS and
// rejects any cycle.
func (c *Catalog) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[string]int, len(c.skills))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case gray:
			return errors.InvalidArgumentf("prerequisite cycle detected at skill %q", id)
		case black:
			return nil
		}
		state[id] = gray
		for _, req := range c.skills[id].Requires {
			if err := visit(req); err != nil {
				return err
			}
		}
		state[id] = black
		return nil
	}

	for _, id := range c.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) validateTemplates() error {
	validTypes := map[QuestType]struct{}{
		QuestTypeStory: {}, QuestTypeDaily: {}, QuestTypeWeekly: {},
		QuestTypeRandom: {}, QuestTypeAchievement: {},
	}
	validDifficulties := map[Difficulty]struct{}{
		DifficultyEasy: {}, DifficultyMedium: {}, DifficultyHard: {}, DifficultyLegendary: {},
	}

	seen := make(map[string]struct{}, len(c.templates))
	for _, q := range c.templates {
		if q.ID == "" {
			return errors.InvalidArgument("quest template with no id")
		}
		if _, dup := seen[q.ID]; dup {
			return errors.InvalidArgumentf("duplicate quest template id %q", q.ID)
		}
		seen[q.ID] = struct{}{}

		if _, ok := validTypes[q.Type]; !ok {
			return errors.InvalidArgumentf("quest %q has unknown type %q", q.ID, q.Type)
		}
		if _, ok := validDifficulties[q.Difficulty]; !ok {
			return errors.InvalidArgumentf("quest %q has unknown difficulty %q", q.ID, q.Difficulty)
		}
		if q.TargetCount < 1 {
			return errors.InvalidArgumentf("quest %q must have a target count of at least 1", q.ID)
		}
		if q.RequiredLevel < 0 {
			return errors.InvalidArgumentf("quest %q has a negative required level", q.ID)
		}

		for _, id := range q.RequiredSkills {
			if _, ok := c.skills[id]; !ok {
				return errors.InvalidArgumentf("quest %q requires unknown skill %q", q.ID, id)
			}
		}
		for _, id := range q.TargetSkills {
			if _, ok := c.skills[id]; !ok {
				return errors.InvalidArgumentf("quest %q targets unknown skill %q", q.ID, id)
			}
		}
		for _, id := range q.TargetTrees {
			if _, ok := c.Tree(id); !ok {
				return errors.InvalidArgumentf("quest %q targets unknown tree %q", q.ID, id)
			}
		}
	}

	// Prerequisite quests must themselves be templates
	for _, q := range c.templates {
		for _, id := range q.Prerequisites {
			if _, ok := seen[id]; !ok {
				return errors.InvalidArgumentf("quest %q lists unknown prerequisite quest %q", q.ID, id)
			}
		}
	}

	return nil
}
