package drivers

import (
	"time"

	"github.com/ChitterSync/SynisterChat/supabase"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Option is a functional option for Open.
type Option func(*config)

// config holds configuration for session mediums.
type config struct {
	redisClient redis.UniversalClient
	redisTTL    time.Duration
	boltPath    string
	db          *sqlx.DB
	supabase    *supabase.Config
}

// WithRedisClient sets the Redis client for the Redis medium.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(c *config) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the TTL for Redis keys.
func WithRedisTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.redisTTL = ttl
	}
}

// WithBoltPath sets the database file for the bolt medium.
func WithBoltPath(path string) Option {
	return func(c *config) {
		c.boltPath = path
	}
}

// WithPostgres sets the connection for the postgres medium.
func WithPostgres(db *sqlx.DB) Option {
	return func(c *config) {
		c.db = db
	}
}

// WithSupabase sets the project for the supabase medium.
func WithSupabase(cfg supabase.Config) Option {
	return func(c *config) {
		c.supabase = &cfg
	}
}
