package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "chat:history"

// RedisStore keeps transcripts in Redis lists, one key per session,
// trimmed to the per-session cap on every append. It lets several
// dispatcher instances share one log.
type RedisStore struct {
	client        *redis.Client
	maxPerSession int
	ttl           time.Duration
}

// NewRedisStore wraps an existing client. ttl of zero keeps sessions
// forever (subject to PruneBefore sweeps).
func NewRedisStore(client *redis.Client, maxPerSession int, ttl time.Duration) *RedisStore {
	if maxPerSession <= 0 {
		maxPerSession = DefaultMaxPerSession
	}
	return &RedisStore{client: client, maxPerSession: maxPerSession, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return redisKeyPrefix + ":" + sessionID
}

func (s *RedisStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("memory: encode entry: %w", err)
	}

	key := sessionKey(entry.SessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxPerSession), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("memory: append to %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	items, err := s.client.LRange(ctx, sessionKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("memory: read %s: %w", sessionKey(sessionID), err)
	}

	out := make([]Entry, 0, len(items))
	for _, item := range items {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *RedisStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	keys, err := s.client.Keys(ctx, redisKeyPrefix+":*").Result()
	if err != nil {
		return 0, fmt.Errorf("memory: list sessions: %w", err)
	}

	removed := 0
	for _, key := range keys {
		items, err := s.client.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return removed, fmt.Errorf("memory: read %s: %w", key, err)
		}
		kept := make([]interface{}, 0, len(items))
		for _, item := range items {
			var entry Entry
			if err := json.Unmarshal([]byte(item), &entry); err != nil {
				continue
			}
			if entry.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) == len(items) {
			continue
		}
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, key)
		if len(kept) > 0 {
			pipe.RPush(ctx, key, kept...)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("memory: rewrite %s: %w", key, err)
		}
	}
	return removed, nil
}
