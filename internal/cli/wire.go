package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ChitterSync/SynisterChat/cipher"
	"github.com/ChitterSync/SynisterChat/internal/config"
	"github.com/ChitterSync/SynisterChat/internal/database"
	"github.com/ChitterSync/SynisterChat/internal/logging"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/ChitterSync/SynisterChat/session/drivers"
	"github.com/ChitterSync/SynisterChat/supabase"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// app holds the pieces shared by every command.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	keys    *cipher.KeyManager
	backend drivers.Backend
	store   session.Store
}

func wireApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.NewWithOutput(cfg.Log, logOut)

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}

	a := &app{cfg: cfg, log: log, backend: backend}

	opts := []session.StoreOption{session.WithLogger(log)}
	if cfg.Store.Encrypt {
		keyOpts := []cipher.Option{
			cipher.WithInterval(cfg.Cipher.RotationInterval),
			cipher.WithLogger(log),
		}
		if cfg.Cipher.MasterSecret != "" {
			keyOpts = append(keyOpts, cipher.WithMasterSecret([]byte(cfg.Cipher.MasterSecret)))
		} else {
			log.WithField("store", cfg.Store.Type).
				Warn("no cipher.master_secret set; this process uses its own random key and cannot read records written by other processes")
		}
		a.keys, err = cipher.NewKeyManager(keyOpts...)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("create key manager: %w", err)
		}
		opts = append(opts, session.WithCipher(cipher.New(a.keys)))
	} else {
		log.Warn("session encryption disabled; records are stored as plain JSON")
		opts = append(opts, session.WithPlaintext())
	}

	a.store, err = session.NewStore(backend, backend, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func openBackend(cfg *config.Config) (drivers.Backend, error) {
	storeType := drivers.StoreType(cfg.Store.Type)

	var opts []drivers.Option
	switch storeType {
	case drivers.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		opts = append(opts, drivers.WithRedisClient(client), drivers.WithRedisTTL(cfg.Store.Redis.TTL))
	case drivers.StoreTypeBolt:
		opts = append(opts, drivers.WithBoltPath(cfg.Store.Bolt.Path))
	case drivers.StoreTypePostgres:
		db, err := database.NewConnection(cfg.Store.Postgres)
		if err != nil {
			return nil, err
		}
		opts = append(opts, drivers.WithPostgres(db))
	case drivers.StoreTypeSupabase:
		opts = append(opts, drivers.WithSupabase(supabase.Config{
			URL:      cfg.Store.Supabase.URL,
			APIKey:   cfg.Store.Supabase.APIKey,
			CacheTTL: cfg.Store.Supabase.CacheTTL,
		}))
	}

	return drivers.Open(storeType, opts...)
}

// Close releases the store and wipes the active key.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	} else if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.keys != nil {
		errs = append(errs, a.keys.Close())
	}
	return errors.Join(errs...)
}
