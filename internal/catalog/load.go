package catalog

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/calistree/progression-api/internal/errors"
)

//go:embed data/trees.yaml
var treesYAML []byte

//go:embed data/quests.yaml
var questsYAML []byte

type treesFile struct {
	Trees []*Tree `yaml:"trees"`
}

type questsFile struct {
	Quests []*QuestTemplate `yaml:"quests"`
}

// Load parses the embedded tree and quest definitions into a validated
// catalog. Validation failures here are startup failures: a catalog that
// does not load cleanly must never reach the engines.
func Load() (*Catalog, error) {
	return LoadFromBytes(treesYAML, questsYAML)
}

// LoadFromBytes builds a catalog from raw YAML definitions. Exposed so
// tests can exercise validation with small fixture catalogs.
func LoadFromBytes(trees, quests []byte) (*Catalog, error) {
	var tf treesFile
	if err := yaml.Unmarshal(trees, &tf); err != nil {
		return nil, errors.Wrap(err, "failed to parse tree definitions")
	}

	var qf questsFile
	if err := yaml.Unmarshal(quests, &qf); err != nil {
		return nil, errors.Wrap(err, "failed to parse quest definitions")
	}

	c := &Catalog{
		trees:     tf.Trees,
		skills:    make(map[string]*Skill),
		templates: qf.Quests,
	}

	if err := c.index(); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// index flattens the tree definitions into the skill lookup map, stamping
// each skill with its tree, branch, and tier. Duplicate ids fail the load.
func (c *Catalog) index() error {
	add := func(s *Skill, tree, branch string, tier Tier) error {
		if s.ID == "" {
			return errors.InvalidArgumentf("tree %s contains a skill with no id", tree)
		}
		if _, exists := c.skills[s.ID]; exists {
			return errors.InvalidArgumentf("duplicate skill id %q", s.ID)
		}
		s.Tree = tree
		s.Branch = branch
		s.Tier = tier
		c.skills[s.ID] = s
		c.order = append(c.order, s.ID)
		return nil
	}

	for _, t := range c.trees {
		if t.ID == "" {
			return errors.InvalidArgument("tree with no id")
		}
		for _, s := range t.Foundational {
			if err := add(s, t.ID, "", TierFoundational); err != nil {
				return err
			}
		}
		for _, b := range t.Branches {
			if b.ID == "" {
				return errors.InvalidArgumentf("tree %s contains a branch with no id", t.ID)
			}
			for _, s := range b.Skills {
				if err := add(s, t.ID, b.ID, TierBranch); err != nil {
					return err
				}
			}
		}
		for _, s := range t.Masters {
			if err := add(s, t.ID, "", TierMaster); err != nil {
				return err
			}
		}
	}

	return nil
}
