package drivers

import (
	"context"
	"errors"
	"time"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for per-owner session hashes
	sessionKeyPrefix = "synister:sessions:"
	// Redis set holding provisioned owners
	accountsKey = "synister:accounts"
	// Default TTL for session hashes (24 hours)
	defaultTTL = 24 * time.Hour
)

// RedisStore implements session.Medium and session.Accounts on Redis.
// Each owner's sessions live in one hash, so owners never share a key.
// The hash TTL is refreshed on every read and write.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-based medium.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Load implements session.Medium.
func (s *RedisStore) Load(ctx context.Context, owner, id string) ([]byte, error) {
	key := s.key(owner)
	val, err := s.client.HGet(ctx, key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, synister.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Refresh TTL on read
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return val, nil
}

// Save implements session.Medium.
func (s *RedisStore) Save(ctx context.Context, owner, id string, blob []byte) error {
	key := s.key(owner)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, id, blob)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

// Remove implements session.Medium.
func (s *RedisStore) Remove(ctx context.Context, owner, id string) error {
	return s.client.HDel(ctx, s.key(owner), id).Err()
}

// List implements session.Medium.
func (s *RedisStore) List(ctx context.Context, owner string) (map[string][]byte, error) {
	key := s.key(owner)
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(vals))
	for id, v := range vals {
		out[id] = []byte(v)
	}
	if len(out) > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	return out, nil
}

// Exists implements session.Accounts.
func (s *RedisStore) Exists(ctx context.Context, owner string) (bool, error) {
	return s.client.SIsMember(ctx, accountsKey, owner).Result()
}

// Provision implements session.Accounts.
func (s *RedisStore) Provision(ctx context.Context, owner string) error {
	if owner == "" {
		return synister.ErrOwnerNotFound
	}
	return s.client.SAdd(ctx, accountsKey, owner).Err()
}

// Close implements session.Medium.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// key returns the hash key holding owner's sessions.
func (s *RedisStore) key(owner string) string {
	return sessionKeyPrefix + owner
}

var (
	_ session.Medium   = (*RedisStore)(nil)
	_ session.Accounts = (*RedisStore)(nil)
)
