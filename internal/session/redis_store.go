package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store keeping one hash per session.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "checkout:",
		ttl:    ttl,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (Context, error) {
	var c Context
	if sessionID == "" {
		return c, nil
	}

	vals, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("session: load %s: %w", sessionID, err)
	}

	for _, f := range Fields {
		if raw, ok := vals[string(f)]; ok {
			c.decode(f, raw)
		}
	}
	return c, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, c Context, fields ...Field) error {
	if sessionID == "" {
		return fmt.Errorf("session: missing session_id")
	}

	set := make(map[string]any)
	var del []string
	for _, f := range fields {
		if v, ok := c.encode(f); ok {
			set[string(f)] = v
		} else {
			del = append(del, string(f))
		}
	}

	key := r.key(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, key, set)
		}
		if len(del) > 0 {
			pipe.HDel(ctx, key, del...)
		}
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: save %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}
