package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

const (
	storyKeyPrefix   = "story:"
	sessionKeyPrefix = "session:"

	// Sessions are transient reader state; stories persist until deleted.
	sessionTTL = 24 * time.Hour
)

// RedisStore implements Storage backed by Redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStore)(nil)

// NewRedisStore creates a Redis storage instance. Accepts either a
// redis:// URL or a bare host:port address.
func NewRedisStore(redisURL string, logger *slog.Logger) *RedisStore {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Story operations

func (r *RedisStore) SaveStory(ctx context.Context, s *story.Story) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal story: %w", err)
	}

	if err := r.client.Set(ctx, storyKeyPrefix+s.ID, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save story", "story_id", s.ID, "error", err)
		return fmt.Errorf("failed to save story: %w", err)
	}
	return nil
}

func (r *RedisStore) GetStory(ctx context.Context, id string) (*story.Story, error) {
	data, err := r.client.Get(ctx, storyKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to load story", "story_id", id, "error", err)
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	var s story.Story
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal story: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) ListStories(ctx context.Context, filter StoryFilter) ([]*story.Story, error) {
	var stories []*story.Story
	iter := r.client.Scan(ctx, 0, storyKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue // expired between scan and get
			}
			return nil, fmt.Errorf("failed to load story %s: %w", iter.Val(), err)
		}

		var s story.Story
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			r.logger.Warn("Skipping unreadable story record", "key", iter.Val(), "error", err)
			continue
		}
		if matchesFilter(&s, filter) {
			stories = append(stories, &s)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan stories: %w", err)
	}
	return stories, nil
}

func matchesFilter(s *story.Story, filter StoryFilter) bool {
	if filter.Language != "" && s.Language != filter.Language {
		return false
	}
	if filter.StoryType != "" && s.StoryType != filter.StoryType {
		return false
	}
	if filter.Culture != "" &&
		!strings.Contains(strings.ToLower(s.Culture), strings.ToLower(filter.Culture)) {
		return false
	}
	return true
}

func (r *RedisStore) DeleteStory(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, storyKeyPrefix+id).Result()
	if err != nil {
		r.logger.Error("Failed to delete story", "story_id", id, "error", err)
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// Session operations

func (r *RedisStore) SaveSession(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, string(data), sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
