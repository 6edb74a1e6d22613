package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each stream as a Redis list. Append and trim run in one
// MULTI/EXEC block, so concurrent writers never drop each other's records.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a store whose keys are namespaced by prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Append(ctx context.Context, key string, record []byte, limit int) error {
	if !json.Valid(record) {
		return fmt.Errorf("append %s: record is not valid json", key)
	}

	redisKey := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, redisKey, record)
		if limit > 0 {
			pipe.LTrim(ctx, redisKey, int64(-limit), -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]json.RawMessage, error) {
	values, err := s.client.LRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	records := make([]json.RawMessage, 0, len(values))
	for _, value := range values {
		records = append(records, json.RawMessage(value))
	}
	return records, nil
}

func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, s.key(key))
	}
	return s.client.Del(ctx, redisKeys...).Err()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}
