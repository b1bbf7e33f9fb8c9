package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// changesSeenKey is where the "changes seen" flag lives in Redis.
const changesSeenKey = "schedtrack:changes_seen"

// RedisPrefs is a PrefStore backed by Redis, shared between the CLI and
// whatever front end renders the change highlights.
type RedisPrefs struct {
	client *redis.Client
}

// NewRedisPrefs creates a PrefStore on an existing Redis client.
func NewRedisPrefs(client *redis.Client) *RedisPrefs {
	return &RedisPrefs{client: client}
}

func (p *RedisPrefs) SetChangesSeen(ctx context.Context, seen bool) error {
	if err := p.client.Set(ctx, changesSeenKey, seen, 0).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", changesSeenKey, err)
	}
	return nil
}

// ChangesSeen returns the stored flag. A missing key reads as true:
// with no recorded changes there is nothing unseen.
func (p *RedisPrefs) ChangesSeen(ctx context.Context) (bool, error) {
	val, err := p.client.Get(ctx, changesSeenKey).Bool()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", changesSeenKey, err)
	}
	return val, nil
}
