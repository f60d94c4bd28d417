package queststate

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/calistree/progression-api/internal/errors"
	redisclient "github.com/calistree/progression-api/internal/redis"
)

const (
	// Key pattern: progress:quests:{user_id}
	questsKeyPrefix = "progress:quests:"

	// Error messages
	errUserIDEmpty  = "user ID cannot be empty"
	errDocumentNil  = "document cannot be nil"
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

// NewRedisRepository creates a new Redis repository for quest documents
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

// Get reads the quest document for a user
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	raw, err := r.client.Get(ctx, r.buildKey(input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("no quest document for user %s", input.UserID)
		}
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to read quest document")
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal quest document")
	}

	return &GetOutput{Document: &doc}, nil
}

// Save writes the full quest document for a user
func (r *redisRepository) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}
	if input.Document == nil {
		return nil, errors.InvalidArgument(errDocumentNil)
	}

	raw, err := json.Marshal(input.Document)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal quest document")
	}

	// Quest documents live as long as the account does
	if err := r.client.Set(ctx, r.buildKey(input.UserID), raw, 0).Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to write quest document")
	}

	return &SaveOutput{}, nil
}

// Delete removes the quest document for a user
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.UserID == "" {
		return nil, errors.InvalidArgument(errUserIDEmpty)
	}

	if err := r.client.Del(ctx, r.buildKey(input.UserID)).Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to delete quest document")
	}

	return &DeleteOutput{}, nil
}

// buildKey creates the Redis key for a user's quest document
func (r *redisRepository) buildKey(userID string) string {
	return questsKeyPrefix + userID
}
