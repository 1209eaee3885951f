package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStateTTL = 24 * time.Hour

// RedisStore keeps conversation state in Redis so several bot instances can
// share one dialogue. State still expires; durability is not the goal.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, senderID string) (State, error) {
	data, err := s.client.Get(ctx, stateKey(senderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("conversation: load state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("conversation: decode state: %w", err)
	}
	return st, nil
}

func (s *RedisStore) Put(ctx context.Context, senderID string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("conversation: marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(senderID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("conversation: persist state: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, senderID string) error {
	if err := s.client.Del(ctx, stateKey(senderID)).Err(); err != nil {
		return fmt.Errorf("conversation: clear state: %w", err)
	}
	return nil
}

func stateKey(senderID string) string {
	return fmt.Sprintf("conversation_state:%s", senderID)
}
