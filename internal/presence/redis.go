// Package presence keeps the set of logged-in usernames in Redis so other
// processes can see who is online.
package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis set holding online usernames.
const DefaultKey = "linechat:online"

// RedisPresence implements core.Presence on a Redis set.
type RedisPresence struct {
	client *redis.Client
	key    string
}

// NewRedis connects to redisURL and checks the connection.
func NewRedis(ctx context.Context, redisURL string) (*RedisPresence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPresence{client: client, key: DefaultKey}, nil
}

// WithKey returns a copy that uses key instead of DefaultKey.
func (p *RedisPresence) WithKey(key string) *RedisPresence {
	return &RedisPresence{client: p.client, key: key}
}

// Online adds username to the online set.
func (p *RedisPresence) Online(ctx context.Context, username string) error {
	return p.client.SAdd(ctx, p.key, username).Err()
}

// Offline removes username from the online set.
func (p *RedisPresence) Offline(ctx context.Context, username string) error {
	return p.client.SRem(ctx, p.key, username).Err()
}

// IsOnline reports whether username is in the online set.
func (p *RedisPresence) IsOnline(ctx context.Context, username string) (bool, error) {
	return p.client.SIsMember(ctx, p.key, username).Result()
}

// List returns all online usernames in no particular order.
func (p *RedisPresence) List(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, p.key).Result()
}

// Clear empties the online set, e.g. at startup after an unclean exit.
func (p *RedisPresence) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key).Err()
}

// Close closes the Redis connection.
func (p *RedisPresence) Close() error {
	return p.client.Close()
}
