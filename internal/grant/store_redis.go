package grant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dataportal/pkg/platform/sentinel"
)

// RedisStore persists grants as one JSON value per (subject, resource) key.
// Redis single-key commands are atomic, which satisfies the same-key
// last-committed-write-wins contract without transactions.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func grantRedisKey(subject, resourceRef string) string {
	return "grant:" + subject + ":" + resourceRef
}

func (s *RedisStore) Upsert(ctx context.Context, g Grant) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}
	if err := s.client.Set(ctx, grantRedisKey(g.Subject, g.ResourceRef), payload, 0).Err(); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

func (s *RedisStore) Revoke(ctx context.Context, subject, resourceRef string) (bool, error) {
	removed, err := s.client.Del(ctx, grantRedisKey(subject, resourceRef)).Result()
	if err != nil {
		return false, fmt.Errorf("revoke grant: %w", err)
	}
	return removed > 0, nil
}

func (s *RedisStore) Lookup(ctx context.Context, subject, resourceRef string) (Grant, error) {
	payload, err := s.client.Get(ctx, grantRedisKey(subject, resourceRef)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Grant{}, sentinel.ErrNotFound
		}
		return Grant{}, fmt.Errorf("lookup grant: %w", err)
	}
	var g Grant
	if err := json.Unmarshal(payload, &g); err != nil {
		return Grant{}, fmt.Errorf("unmarshal grant: %w", err)
	}
	return g, nil
}
