package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/calistree/progression-api/internal/auth"
	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/errors"
	"github.com/calistree/progression-api/internal/notify"
	"github.com/calistree/progression-api/internal/orchestrators/quest"
	"github.com/calistree/progression-api/internal/orchestrators/skill"
	"github.com/calistree/progression-api/internal/pkg/clock"
	"github.com/calistree/progression-api/internal/pkg/idgen"
	"github.com/calistree/progression-api/internal/redis"
	"github.com/calistree/progression-api/internal/repositories/queststate"
	"github.com/calistree/progression-api/internal/repositories/unlocks"
	"github.com/calistree/progression-api/internal/session"
	"github.com/calistree/progression-api/internal/testutils"
)

type SessionTestSuite struct {
	suite.Suite
	ctx        context.Context
	client     redis.Client
	cleanup    func()
	cat        *catalog.Catalog
	unlockRepo unlocks.Repository
	questRepo  queststate.Repository
	clock      *clock.Fixed
}

func (s *SessionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.client, s.cleanup = testutils.CreateTestRedisClient(s.T())

	cat, err := catalog.Load()
	s.Require().NoError(err)
	s.cat = cat

	unlockRepo, err := unlocks.NewRedisRepository(&unlocks.Config{Client: s.client})
	s.Require().NoError(err)
	s.unlockRepo = unlockRepo

	questRepo, err := queststate.NewRedisRepository(&queststate.Config{Client: s.client})
	s.Require().NoError(err)
	s.questRepo = questRepo

	s.clock = clock.NewFixed(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func (s *SessionTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *SessionTestSuite) newManager(authSvc auth.Service) *session.Manager {
	return s.newManagerWithHub(authSvc, nil)
}

func (s *SessionTestSuite) newManagerWithHub(authSvc auth.Service, hub *notify.Hub) *session.Manager {
	mgr, err := session.NewManager(&session.Config{
		Auth:        authSvc,
		Catalog:     s.cat,
		UnlockRepo:  s.unlockRepo,
		QuestRepo:   s.questRepo,
		IDGenerator: idgen.NewSequential("dq"),
		Clock:       s.clock,
		Hub:         hub,
	})
	s.Require().NoError(err)
	return mgr
}

func (s *SessionTestSuite) questIDs(list []*queststate.Quest) []string {
	out := make([]string, 0, len(list))
	for _, q := range list {
		out = append(out, q.ID)
	}
	return out
}

func (s *SessionTestSuite) TestUnlockDrivesQuestProgress() {
	// Full wiring: an unlock in the skill engine completes an active
	// quest and opens the follow-up, all within the one call
	mgr := s.newManager(auth.NewStatic("user-1"))

	sess, err := mgr.Open(s.ctx)
	s.Require().NoError(err)
	s.Equal("user-1", sess.UserID)

	_, err = sess.StartQuest(s.ctx, &quest.StartQuestInput{QuestID: "q_first_unlock"})
	s.Require().NoError(err)

	_, err = sess.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "dead_hang"})
	s.Require().NoError(err)

	lists := sess.Quests.ListQuests(s.ctx)
	s.Contains(s.questIDs(lists.Completed), "q_first_unlock")
	s.Contains(s.questIDs(lists.Available), "q_getting_started")

	// Global level is now 1, which opens the level-gated novice quests
	s.Contains(s.questIDs(lists.Available), "q_pull_novice")

	// Quest reward plus the foundational-unlock bonus
	ledger := sess.Quests.LedgerSnapshot(s.ctx)
	s.Equal(75, ledger.Experience)
	s.Equal(15, ledger.Coins)
}

func (s *SessionTestSuite) TestOpenReturnsCachedSession() {
	mgr := s.newManager(auth.NewStatic("user-1"))

	first, err := mgr.Open(s.ctx)
	s.Require().NoError(err)

	second, err := mgr.Open(s.ctx)
	s.Require().NoError(err)

	s.Same(first, second)
}

func (s *SessionTestSuite) TestGuestSessionsAreIndependent() {
	mgr := s.newManager(auth.Anonymous{})

	first, err := mgr.Open(s.ctx)
	s.Require().NoError(err)
	second, err := mgr.Open(s.ctx)
	s.Require().NoError(err)
	s.NotSame(first, second)

	_, err = first.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "dead_hang"})
	s.Require().NoError(err)

	s.True(first.Skills.IsUnlocked("dead_hang"))
	s.False(second.Skills.IsUnlocked("dead_hang"))

	// Guests never touch the store
	first.Flush()
	keys, err := s.client.Keys(s.ctx, "*").Result()
	s.Require().NoError(err)
	s.Empty(keys)
}

func (s *SessionTestSuite) TestStateSurvivesRestart() {
	mgr := s.newManager(auth.NewStatic("user-1"))

	sess, err := mgr.Open(s.ctx)
	s.Require().NoError(err)

	_, err = sess.StartQuest(s.ctx, &quest.StartQuestInput{QuestID: "q_first_unlock"})
	s.Require().NoError(err)
	_, err = sess.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "dead_hang"})
	s.Require().NoError(err)

	mgr.CloseAll()

	restarted := s.newManager(auth.NewStatic("user-1"))
	restored, err := restarted.Open(s.ctx)
	s.Require().NoError(err)

	s.True(restored.Skills.IsUnlocked("dead_hang"))
	s.Equal(1, restored.Skills.GlobalLevel())

	lists := restored.Quests.ListQuests(s.ctx)
	s.Contains(s.questIDs(lists.Completed), "q_first_unlock")

	ledger := restored.Quests.LedgerSnapshot(s.ctx)
	s.Equal(75, ledger.Experience)
}

func (s *SessionTestSuite) TestMutationsSerializedAcrossEngines() {
	// A quest mutation must not interleave between a skill unlock's
	// local mutation and its bridge delivery. The subscriber parks the
	// unlock mid-flight; the concurrent quest reset has to wait for the
	// whole operation.
	hub := notify.NewHub()
	mgr := s.newManagerWithHub(auth.NewStatic("user-1"), hub)

	sess, err := mgr.Open(s.ctx)
	s.Require().NoError(err)

	unlockParked := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	hub.Subscribe(func(e notify.Event) {
		if e.Kind == notify.KindSkillUnlocked {
			once.Do(func() {
				close(unlockParked)
				<-release
			})
		}
	})

	unlockDone := make(chan struct{})
	go func() {
		defer close(unlockDone)
		_, unlockErr := sess.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: "dead_hang"})
		s.NoError(unlockErr)
	}()

	<-unlockParked

	resetDone := make(chan struct{})
	go func() {
		defer close(resetDone)
		s.NoError(sess.ResetAllQuests(s.ctx))
	}()

	select {
	case <-resetDone:
		s.Fail("quest reset completed while a skill unlock was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-unlockDone
	<-resetDone

	// The reset ran after the unlock's full effect, so the foundational
	// trigger bonus cannot land in the zeroed ledger
	ledger := sess.Quests.LedgerSnapshot(s.ctx)
	s.Equal(0, ledger.Experience)
	s.Equal(0, ledger.Coins)
}

func (s *SessionTestSuite) TestDynamicQuestIDsDefaultToUUIDs() {
	mgr, err := session.NewManager(&session.Config{
		Auth:       auth.NewStatic("user-1"),
		Catalog:    s.cat,
		UnlockRepo: s.unlockRepo,
		QuestRepo:  s.questRepo,
	})
	s.Require().NoError(err)

	sess, err := mgr.Open(s.ctx)
	s.Require().NoError(err)

	// Master the pull rows branch end to end; the branch-mastered
	// trigger synthesizes a dynamic quest with a generated id
	for _, id := range []string{"dead_hang", "scapular_pull", "incline_row", "horizontal_row", "archer_row"} {
		_, err := sess.UnlockSkill(s.ctx, &skill.UnlockSkillInput{SkillID: id})
		s.Require().NoError(err)
	}

	lists := sess.Quests.ListQuests(s.ctx)
	var dynamic *queststate.Quest
	for _, q := range lists.Available {
		if q.TemplateID == "" {
			dynamic = q
			break
		}
	}
	s.Require().NotNil(dynamic, "branch mastery should synthesize a quest")
	s.Regexp(`^quest_[0-9a-f-]{36}$`, dynamic.ID)
	mgr.CloseAll()
}

func (s *SessionTestSuite) TestCloseEvictsSession() {
	mgr := s.newManager(auth.NewStatic("user-1"))

	first, err := mgr.Open(s.ctx)
	s.Require().NoError(err)

	mgr.Close("user-1")

	second, err := mgr.Open(s.ctx)
	s.Require().NoError(err)
	s.NotSame(first, second)
}

func (s *SessionTestSuite) TestConfigValidation() {
	_, err := session.NewManager(nil)
	s.True(errors.IsInvalidArgument(err))

	_, err = session.NewManager(&session.Config{})
	s.Require().Error(err)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
