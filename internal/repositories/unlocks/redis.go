package unlocks

import (
	"context"

	"github.com/calistree/progression-api/internal/errors"
	redisclient "github.com/calistree/progression-api/internal/redis"
)

const (
	// Key pattern: progress:skills:{user_id}, one hash field per skill
	skillsKeyPrefix = "progress:skills:"

	unlockedValue = "1"

	// Error messages
	errUserIDEmpty  = "user ID cannot be empty"
	errSkillIDEmpty = "skill ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
}

// NewRedisRepository creates a new Redis repository for unlock documents
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Get reads the full unlock document for a user. A missing document is a
// first-time user and yields an empty map.
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	fields, err := r.client.HGetAll(ctx, r.buildKey(input.UserID)).Result()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to read unlock document")
	}

	unlocked := make(map[string]bool, len(fields))
	for skillID, v := range fields {
		unlocked[skillID] = v == unlockedValue
	}

	return &GetOutput{Unlocked: unlocked}, nil
}

// SetUnlocked merge-writes a single unlocked skill into the document
func (r *redisRepository) SetUnlocked(ctx context.Context, input SetUnlockedInput) (*SetUnlockedOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}
	if input.SkillID == "" {
		return nil, errors.InvalidArgument(errSkillIDEmpty)
	}

	err := r.client.HSet(ctx, r.buildKey(input.UserID), input.SkillID, unlockedValue).Err()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to write unlock document")
	}

	return &SetUnlockedOutput{}, nil
}

// Delete removes the given skill keys from the document
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}
	if len(input.SkillIDs) == 0 {
		return &DeleteOutput{}, nil
	}

	removed, err := r.client.HDel(ctx, r.buildKey(input.UserID), input.SkillIDs...).Result()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to delete unlock keys")
	}

	return &DeleteOutput{Removed: removed}, nil
}

// buildKey creates the Redis key for a user's unlock document
func (r *redisRepository) buildKey(userID string) string {
	return skillsKeyPrefix + userID
}
