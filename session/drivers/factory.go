package drivers

import (
	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/ChitterSync/SynisterChat/supabase"
)

// StoreType represents the type of session medium.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypeBolt     StoreType = "bolt"
	StoreTypePostgres StoreType = "postgres"
	StoreTypeSupabase StoreType = "supabase"
)

// Backend is a medium that also tracks provisioned owners. Every driver in
// this package is one.
type Backend interface {
	session.Medium
	session.Accounts
}

// Open creates the medium for storeType.
// Redis requires WithRedisClient, bolt WithBoltPath, postgres WithPostgres
// and supabase WithSupabase.
func Open(storeType StoreType, opts ...Option) (Backend, error) {
	config := &config{}

	// Apply options
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewInMemoryStore(), nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, synister.ErrInvalidConfig
		}
		return NewRedisStore(config.redisClient, config.redisTTL), nil

	case StoreTypeBolt:
		s, err := OpenBoltStore(config.boltPath)
		if err != nil {
			return nil, err
		}
		return s, nil

	case StoreTypePostgres:
		if config.db == nil {
			return nil, synister.ErrInvalidConfig
		}
		return NewPostgresStore(config.db), nil

	case StoreTypeSupabase:
		if config.supabase == nil {
			return nil, synister.ErrInvalidConfig
		}
		c, err := supabase.New(*config.supabase)
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, synister.ErrInvalidStoreType
	}
}
