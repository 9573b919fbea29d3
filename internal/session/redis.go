package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "marudor:session:"

// RedisStore keeps sessions as JSON values so conversations survive a
// restart of the bot.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore uses client for storage. A ttl of zero keeps sessions until
// the conversation ends.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix, ttl: ttl}
}

func (r *RedisStore) key(chatID int64) string {
	return r.prefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (Session, error) {
	raw, err := r.client.Get(ctx, r.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: get %d: %w", chatID, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("%w: decode %d: %w", ErrCorrupt, chatID, err)
	}
	if err := s.Validate(); err != nil {
		return Session{}, fmt.Errorf("%w: chat %d: %w", ErrCorrupt, chatID, err)
	}
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, chatID int64, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !s.Active() {
		return r.Clear(ctx, chatID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode %d: %w", chatID, err)
	}
	if err := r.client.Set(ctx, r.key(chatID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: put %d: %w", chatID, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, r.key(chatID)).Err(); err != nil {
		return fmt.Errorf("session: clear %d: %w", chatID, err)
	}
	return nil
}
