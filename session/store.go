package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/sirupsen/logrus"
)

// NewStore creates a Store over medium. Either WithCipher or WithPlaintext
// is required.
func NewStore(medium Medium, accounts Accounts, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if medium == nil || accounts == nil || cfg.codec == nil {
		return nil, synister.ErrInvalidConfig
	}
	if cfg.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		cfg.log = discard
	}

	return &store{
		medium:   medium,
		accounts: accounts,
		codec:    cfg.codec,
		log:      cfg.log.WithField("component", "session-store"),
	}, nil
}

type store struct {
	medium   Medium
	accounts Accounts
	codec    Codec
	log      logrus.FieldLogger
}

// Get implements Store.
func (s *store) Get(ctx context.Context, owner, id string) (*Record, error) {
	blob, err := s.medium.Load(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	rec, err := s.decode(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", synister.ErrNotFound, err)
	}
	rec.ID = id
	return rec, nil
}

// GetAll implements Store.
func (s *store) GetAll(ctx context.Context, owner string) (map[string]*Record, error) {
	blobs, err := s.medium.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Record, len(blobs))
	for id, blob := range blobs {
		rec, err := s.decode(blob)
		if err != nil {
			s.log.WithError(err).WithField("session_id", id).Warn("skipping unreadable session")
			continue
		}
		rec.ID = id
		out[id] = rec
	}
	return out, nil
}

// Set implements Store.
func (s *store) Set(ctx context.Context, owner, id string, rec *Record) error {
	if rec == nil || id == "" {
		return fmt.Errorf("%w: record and id are required", synister.ErrInvalidConfig)
	}
	if owner == "" {
		return synister.ErrOwnerNotFound
	}
	ok, err := s.accounts.Exists(ctx, owner)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if !ok {
		return synister.ErrOwnerNotFound
	}

	c := rec.Clone()
	c.ID = id
	blob, err := s.codec.Encrypt(c)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.medium.Save(ctx, owner, id, blob)
}

// Delete implements Store.
func (s *store) Delete(ctx context.Context, owner, id string) error {
	return s.medium.Remove(ctx, owner, id)
}

// Clear implements Store.
func (s *store) Clear(ctx context.Context, owner string) error {
	blobs, err := s.medium.List(ctx, owner)
	if err != nil {
		return err
	}

	var errs []error
	for id := range blobs {
		if err := s.medium.Remove(ctx, owner, id); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Close implements Store.
func (s *store) Close() error {
	return s.medium.Close()
}

// decode decrypts blob into a loose map and normalizes it, so that records
// written by older clients with missing or malformed fields still load.
func (s *store) decode(blob []byte) (*Record, error) {
	var raw map[string]any
	if err := s.codec.Decrypt(blob, &raw); err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}
