package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStatePrefix = "oauth-state:"

// StateRedis keeps pending OAuth states in Redis so any replica can complete the flow
type StateRedis struct {
	client *redis.Client
	prefix string
}

// NewStateRedis creates a Redis-backed state store; prefix is prepended to the state key
func NewStateRedis(client *redis.Client, prefix string) *StateRedis {
	return &StateRedis{
		client: client,
		prefix: strings.TrimSpace(prefix) + defaultStatePrefix,
	}
}

func (s *StateRedis) key(state string) string {
	return s.prefix + state
}

// Put records a state value valid for ttl
func (s *StateRedis) Put(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("storing oauth state: %w", err)
	}
	return nil
}

// Consume atomically removes the state and reports whether it was present
func (s *StateRedis) Consume(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, s.key(state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consuming oauth state: %w", err)
	}
	return true, nil
}
