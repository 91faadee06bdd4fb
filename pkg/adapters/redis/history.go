// Package redis provides a Redis-backed history store, for shells whose
// history should survive the host and be shared across replicas.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "parley:history:"

// HistoryStore persists history lines in a Redis list.
type HistoryStore struct {
	client *redis.Client
	prefix string
	name   string
}

// Option configures the store.
type Option func(*HistoryStore)

// WithKeyPrefix overrides the default key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *HistoryStore) {
		s.prefix = prefix
	}
}

// NewHistoryStore creates a store for the given shell name.
func NewHistoryStore(client *redis.Client, name string, opts ...Option) *HistoryStore {
	s := &HistoryStore{
		client: client,
		prefix: defaultKeyPrefix,
		name:   name,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HistoryStore) key() string { return s.prefix + s.name }

// Append records a line at the end of the history list.
func (s *HistoryStore) Append(ctx context.Context, line string) error {
	if err := s.client.RPush(ctx, s.key(), line).Err(); err != nil {
		return fmt.Errorf("failed to append history to redis: %w", err)
	}
	return nil
}

// List returns all recorded lines, oldest first.
func (s *HistoryStore) List(ctx context.Context) ([]string, error) {
	lines, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}
	return lines, nil
}

// Clear removes the history list.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear history in redis: %w", err)
	}
	return nil
}
