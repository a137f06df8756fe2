package drivers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/session"
	bolt "go.etcd.io/bbolt"
)

var (
	sessionsBucket = []byte("sessions")
	accountsBucket = []byte("accounts")
)

// BoltStore implements session.Medium and session.Accounts on a single
// bbolt file. Sessions live in a nested bucket per owner under "sessions".
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: bolt path is required", synister.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sessionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Load implements session.Medium.
func (s *BoltStore) Load(ctx context.Context, owner, id string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket).Bucket([]byte(owner))
		if b == nil {
			return synister.ErrNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return synister.ErrNotFound
		}
		// v is only valid for the life of the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Save implements session.Medium.
func (s *BoltStore) Save(ctx context.Context, owner, id string, blob []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(sessionsBucket).CreateBucketIfNotExists([]byte(owner))
		if err != nil {
			return err
		}
		return b.Put([]byte(id), blob)
	})
}

// Remove implements session.Medium.
func (s *BoltStore) Remove(ctx context.Context, owner, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
}

// List implements session.Medium.
func (s *BoltStore) List(ctx context.Context, owner string) (map[string][]byte, error) {
	out := map[string][]byte{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if v == nil {
				return nil
			}
			out[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exists implements session.Accounts.
func (s *BoltStore) Exists(ctx context.Context, owner string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(accountsBucket).Get([]byte(owner)) != nil
		return nil
	})
	return ok, err
}

// Provision implements session.Accounts.
func (s *BoltStore) Provision(ctx context.Context, owner string) error {
	if owner == "" {
		return synister.ErrOwnerNotFound
	}
	created := []byte(time.Now().UTC().Format(time.RFC3339))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accountsBucket)
		if b.Get([]byte(owner)) != nil {
			return nil
		}
		return b.Put([]byte(owner), created)
	})
}

// Close implements session.Medium.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var (
	_ session.Medium   = (*BoltStore)(nil)
	_ session.Accounts = (*BoltStore)(nil)
)
