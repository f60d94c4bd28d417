package skill_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/errors"
	"github.com/calistree/progression-api/internal/notify"
	"github.com/calistree/progression-api/internal/orchestrators/skill"
	skillmock "github.com/calistree/progression-api/internal/orchestrators/skill/mock"
	"github.com/calistree/progression-api/internal/redis"
	"github.com/calistree/progression-api/internal/repositories/unlocks"
	"github.com/calistree/progression-api/internal/testutils"
)

// Two-skill catalog: b gates behind a
const miniTrees = `
trees:
  - id: mini
    foundational:
      - id: a
    branches:
      - id: bb
        skills:
          - id: b
            requires: [a]
`

// Master skill m gates behind one skill from each of two branches
const masterTrees = `
trees:
  - id: t
    foundational:
      - id: f
    branches:
      - id: x
        skills:
          - id: sx
            requires: [f]
      - id: y
        skills:
          - id: sy
            requires: [f]
    masters:
      - id: m
        requires: [sx, sy]
`

const noQuests = "quests: []"

type EngineTestSuite struct {
	suite.Suite
	ctx     context.Context
	client  redis.Client
	cleanup func()
	repo    unlocks.Repository
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.client, s.cleanup = testutils.CreateTestRedisClient(s.T())

	repo, err := unlocks.NewRedisRepository(&unlocks.Config{Client: s.client})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *EngineTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *EngineTestSuite) newEngine(userID string, trees string) *skill.Engine {
	cat, err := catalog.LoadFromBytes([]byte(trees), []byte(noQuests))
	s.Require().NoError(err)

	eng, err := skill.NewEngine(&skill.Config{
		UserID:  userID,
		Catalog: cat,
		Repo:    s.repo,
	})
	s.Require().NoError(err)
	return eng
}

func (s *EngineTestSuite) TestUnlockChain() {
	// Scenario: b requires a; eligibility flips as a unlocks
	eng := s.newEngine("user-1", miniTrees)

	s.False(eng.CanUnlock("b"))
	s.True(eng.CanUnlock("a"))

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)

	s.True(eng.CanUnlock("b"))

	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "b"})
	s.Require().NoError(err)

	p := eng.TreeProgress("mini")
	s.Equal(2, p.Unlocked)
	s.Equal(2, p.Total)
}

func (s *EngineTestSuite) TestUnlockRejectsUnmetPrerequisites() {
	eng := s.newEngine("user-1", miniTrees)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "b"})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))

	meta := errors.GetMeta(err)
	s.Require().NotNil(meta)
	s.Equal([]string{"a"}, meta["missing_skills"])

	// Failed unlock must not mutate state
	s.False(eng.IsUnlocked("b"))
	s.Equal(0, eng.GlobalLevel())
}

func (s *EngineTestSuite) TestUnknownSkillFailsClosed() {
	eng := s.newEngine("user-1", miniTrees)

	s.False(eng.CanUnlock("levitation"))
	s.Empty(eng.UnmetRequirements("levitation"))

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "levitation"})
	s.True(errors.IsNotFound(err))
}

func (s *EngineTestSuite) TestUnlockIsIdempotent() {
	eng := s.newEngine("user-1", miniTrees)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)

	out, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	s.True(out.AlreadyUnlocked)
	s.Equal(1, eng.GlobalLevel())
}

func (s *EngineTestSuite) TestMasterSkillCrossBranchGate() {
	// Scenario: m requires one skill from branch x and one from branch y
	eng := s.newEngine("user-1", masterTrees)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "f"})
	s.Require().NoError(err)
	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "sx"})
	s.Require().NoError(err)

	s.False(eng.CanUnlock("m"))
	s.Equal([]string{"sy"}, eng.UnmetRequirements("m"))

	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "sy"})
	s.Require().NoError(err)

	s.True(eng.CanUnlock("m"))
	s.Empty(eng.UnmetRequirements("m"))
}

func (s *EngineTestSuite) TestBridgeReceivesExactlyOneEventPerUnlock() {
	eng := s.newEngine("user-1", miniTrees)

	ctrl := gomock.NewController(s.T())
	bridge := skillmock.NewMockBridge(ctrl)
	eng.AttachBridge(bridge)

	var delivered []string
	bridge.EXPECT().
		DeliverUnlock(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *skill.UnlockEvent) {
			delivered = append(delivered, ev.SkillID)
		}).
		Times(2)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "b"})
	s.Require().NoError(err)

	// Repeat unlock emits no event
	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)

	s.Equal([]string{"a", "b"}, delivered)
}

func (s *EngineTestSuite) TestBridgeSeesPostUnlockState() {
	eng := s.newEngine("user-1", miniTrees)

	ctrl := gomock.NewController(s.T())
	bridge := skillmock.NewMockBridge(ctrl)
	eng.AttachBridge(bridge)

	bridge.EXPECT().
		DeliverUnlock(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *skill.UnlockEvent) {
			// Delivery happens after the mutation is visible
			s.True(eng.IsUnlocked(ev.SkillID))
		})

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
}

func (s *EngineTestSuite) TestHubFiresAfterBridgeDelivery() {
	// A subscriber reacting to the unlock notification must already see
	// the quest-side effects of that unlock
	cat, err := catalog.LoadFromBytes([]byte(miniTrees), []byte(noQuests))
	s.Require().NoError(err)

	hub := notify.NewHub()
	eng, err := skill.NewEngine(&skill.Config{
		UserID:  "user-1",
		Catalog: cat,
		Repo:    s.repo,
		Hub:     hub,
	})
	s.Require().NoError(err)

	ctrl := gomock.NewController(s.T())
	bridge := skillmock.NewMockBridge(ctrl)
	eng.AttachBridge(bridge)

	var delivered bool
	bridge.EXPECT().
		DeliverUnlock(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, _ *skill.UnlockEvent) {
			delivered = true
		})

	hub.Subscribe(func(e notify.Event) {
		if e.Kind == notify.KindSkillUnlocked {
			s.True(delivered, "unlock notification published before bridge delivery")
		}
	})

	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	s.True(delivered)
}

func (s *EngineTestSuite) TestUnlockPersistsMergeWrite() {
	eng := s.newEngine("user-1", miniTrees)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	eng.Flush()

	out, err := s.repo.Get(s.ctx, unlocks.GetInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.True(out.Unlocked["a"])
	s.Len(out.Unlocked, 1)
}

func (s *EngineTestSuite) TestGuestSessionSkipsPersistence() {
	eng := s.newEngine("", miniTrees)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	eng.Flush()

	// Local state updated, nothing written remotely
	s.True(eng.IsUnlocked("a"))
	keys, err := s.client.Keys(s.ctx, "*").Result()
	s.Require().NoError(err)
	s.Empty(keys)
}

func (s *EngineTestSuite) TestLoadDefaultsForNewUser() {
	eng := s.newEngine("user-new", miniTrees)

	s.Require().NoError(eng.Load(s.ctx))
	s.Equal(0, eng.GlobalLevel())
}

func (s *EngineTestSuite) TestLoadRestoresPersistedState() {
	first := s.newEngine("user-1", miniTrees)
	_, err := first.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	first.Flush()

	second := s.newEngine("user-1", miniTrees)
	s.Require().NoError(second.Load(s.ctx))
	s.True(second.IsUnlocked("a"))
	s.Equal(1, second.GlobalLevel())
}

func (s *EngineTestSuite) TestLoadDropsUnknownSkillIDs() {
	_, err := s.repo.SetUnlocked(s.ctx, unlocks.SetUnlockedInput{UserID: "user-1", SkillID: "retired_skill"})
	s.Require().NoError(err)

	eng := s.newEngine("user-1", miniTrees)
	s.Require().NoError(eng.Load(s.ctx))
	s.Equal(0, eng.GlobalLevel())
}

func (s *EngineTestSuite) TestResetTreeLeavesOtherTreesUntouched() {
	// Scenario: reset pull, push unaffected
	cat, err := catalog.Load()
	s.Require().NoError(err)

	eng, err := skill.NewEngine(&skill.Config{
		UserID:  "user-1",
		Catalog: cat,
		Repo:    s.repo,
	})
	s.Require().NoError(err)

	for _, id := range []string{"dead_hang", "scapular_pull", "incline_row", "negative_pullup", "pullup"} {
		_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: id})
		s.Require().NoError(err)
	}
	for _, id := range []string{"wall_pushup", "support_hold"} {
		_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: id})
		s.Require().NoError(err)
	}

	s.Require().NoError(eng.ResetTree(s.ctx, "pull"))
	eng.Flush()

	pull := eng.TreeProgress("pull")
	s.Equal(0, pull.Unlocked)
	s.Equal(10, pull.Total)

	push := eng.TreeProgress("push")
	s.Equal(2, push.Unlocked)

	// Remote document keeps only the push keys
	out, err := s.repo.Get(s.ctx, unlocks.GetInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Len(out.Unlocked, 2)
	s.True(out.Unlocked["wall_pushup"])
}

func (s *EngineTestSuite) TestResetTreeUnknownTree() {
	eng := s.newEngine("user-1", miniTrees)
	err := eng.ResetTree(s.ctx, "swimming")
	s.True(errors.IsNotFound(err))
}

func (s *EngineTestSuite) TestResetAllClearsEverything() {
	eng := s.newEngine("user-1", miniTrees)

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)

	s.Require().NoError(eng.ResetAll(s.ctx))
	eng.Flush()

	s.Equal(0, eng.GlobalLevel())
	out, err := s.repo.Get(s.ctx, unlocks.GetInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Empty(out.Unlocked)
}

func (s *EngineTestSuite) TestResetPublishesBulkSignal() {
	cat, err := catalog.LoadFromBytes([]byte(miniTrees), []byte(noQuests))
	s.Require().NoError(err)

	hub := notify.NewHub()
	var events []notify.Event
	hub.Subscribe(func(e notify.Event) { events = append(events, e) })

	eng, err := skill.NewEngine(&skill.Config{
		UserID:  "user-1",
		Catalog: cat,
		Repo:    s.repo,
		Hub:     hub,
	})
	s.Require().NoError(err)

	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "a"})
	s.Require().NoError(err)
	s.Require().NoError(eng.ResetAll(s.ctx))

	s.Require().Len(events, 2)
	s.Equal(notify.KindSkillUnlocked, events[0].Kind)
	s.Equal("a", events[0].Field)
	s.Equal(notify.KindSkillsReset, events[1].Kind)
}

func (s *EngineTestSuite) TestDerivedMetrics() {
	eng := s.newEngine("user-1", masterTrees)

	s.Equal(0.0, eng.CompletionPercent())

	_, err := eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "f"})
	s.Require().NoError(err)
	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "sx"})
	s.Require().NoError(err)

	s.Equal(2, eng.GlobalLevel())
	s.InDelta(0.5, eng.CompletionPercent(), 0.001)

	bx := eng.BranchProgress("x", "t")
	s.Equal(1, bx.Unlocked)
	s.Equal(1, bx.Total)
	s.True(eng.IsBranchMastered("x", "t"))
	s.False(eng.IsBranchMastered("y", "t"))
	s.False(eng.IsTreeCompleted("t"))

	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "sy"})
	s.Require().NoError(err)
	_, err = eng.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "m"})
	s.Require().NoError(err)

	s.True(eng.IsTreeCompleted("t"))
	s.Equal(1.0, eng.CompletionPercent())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
