package unlocks_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/calistree/progression-api/internal/errors"
	"github.com/calistree/progression-api/internal/repositories/unlocks"
	"github.com/calistree/progression-api/internal/testutils"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    unlocks.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()

	repo, err := unlocks.NewRedisRepository(&unlocks.Config{Client: client})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *RedisRepositoryTestSuite) TestGetReadsPreexistingDocument() {
	// Documents written by an earlier deployment are read as-is,
	// including fields holding a stale non-"1" value
	client, cleanup := testutils.CreateTestRedisClientWithSetup(s.T(), func(mr *miniredis.Miniredis) {
		mr.HSet("progress:skills:user-legacy", "pullup", "1")
		mr.HSet("progress:skills:user-legacy", "pushup", "1")
		mr.HSet("progress:skills:user-legacy", "dip", "0")
	})
	defer cleanup()

	repo, err := unlocks.NewRedisRepository(&unlocks.Config{Client: client})
	s.Require().NoError(err)

	out, err := repo.Get(s.ctx, unlocks.GetInput{UserID: "user-legacy"})
	s.Require().NoError(err)
	s.True(out.Unlocked["pullup"])
	s.True(out.Unlocked["pushup"])
	s.False(out.Unlocked["dip"])
}

func (s *RedisRepositoryTestSuite) TestGetMissingDocumentReturnsEmptyMap() {
	out, err := s.repo.Get(s.ctx, unlocks.GetInput{UserID: "user-new"})
	s.Require().NoError(err)
	s.Require().NotNil(out)
	s.Empty(out.Unlocked)
}

func (s *RedisRepositoryTestSuite) TestSetUnlockedMergesIntoDocument() {
	_, err := s.repo.SetUnlocked(s.ctx, unlocks.SetUnlockedInput{UserID: "user-1", SkillID: "pullup"})
	s.Require().NoError(err)

	_, err = s.repo.SetUnlocked(s.ctx, unlocks.SetUnlockedInput{UserID: "user-1", SkillID: "pushup"})
	s.Require().NoError(err)

	out, err := s.repo.Get(s.ctx, unlocks.GetInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.True(out.Unlocked["pullup"])
	s.True(out.Unlocked["pushup"])
	s.Len(out.Unlocked, 2)
}

func (s *RedisRepositoryTestSuite) TestDeleteRemovesOnlyGivenKeys() {
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.repo.SetUnlocked(s.ctx, unlocks.SetUnlockedInput{UserID: "user-1", SkillID: id})
		s.Require().NoError(err)
	}

	out, err := s.repo.Delete(s.ctx, unlocks.DeleteInput{UserID: "user-1", SkillIDs: []string{"a", "b"}})
	s.Require().NoError(err)
	s.Equal(int64(2), out.Removed)

	getOut, err := s.repo.Get(s.ctx, unlocks.GetInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Len(getOut.Unlocked, 1)
	s.True(getOut.Unlocked["c"])
}

func (s *RedisRepositoryTestSuite) TestDeleteWithNoKeysIsNoOp() {
	out, err := s.repo.Delete(s.ctx, unlocks.DeleteInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Equal(int64(0), out.Removed)
}

func (s *RedisRepositoryTestSuite) TestEmptyUserIDRejected() {
	_, err := s.repo.Get(s.ctx, unlocks.GetInput{})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.SetUnlocked(s.ctx, unlocks.SetUnlockedInput{SkillID: "pullup"})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Delete(s.ctx, unlocks.DeleteInput{SkillIDs: []string{"pullup"}})
	s.True(errors.IsInvalidArgument(err))
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
