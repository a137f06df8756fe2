package cipher

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// DefaultRotationInterval is how long a key stays active.
	DefaultRotationInterval = 10 * time.Minute
)

// KeySource produces the key for a given epoch.
type KeySource func(epoch uint64) ([]byte, error)

// RandomKeys returns a fresh random key for every epoch. Keys cannot be
// recovered once rotated away.
func RandomKeys() KeySource {
	return func(uint64) ([]byte, error) {
		key := make([]byte, KeySize)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		return key, nil
	}
}

// DerivedKeys derives the key for an epoch from a shared master secret using
// HKDF-SHA256, so that every process holding the secret agrees on the key of
// the current epoch.
func DerivedKeys(secret []byte) KeySource {
	return func(epoch uint64) ([]byte, error) {
		info := make([]byte, 8)
		binary.BigEndian.PutUint64(info, epoch)
		r := hkdf.New(sha256.New, secret, nil, append([]byte("synister-session-key:"), info...))
		key := make([]byte, KeySize)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("derive key: %w", err)
		}
		return key, nil
	}
}

// KeyManager owns the process-wide rotating key. Rotation discards the
// previous key, so anything encrypted before a rotation becomes undecryptable.
type KeyManager struct {
	mu        sync.RWMutex
	key       []byte
	epoch     uint64
	rotatedAt time.Time
	closed    bool

	interval  time.Duration
	source    KeySource
	wallEpoch bool
	now       func() time.Time
	log       logrus.FieldLogger

	stopOnce sync.Once
	stop     chan struct{}
}

// Option configures a KeyManager.
type Option func(*KeyManager)

// WithInterval sets the rotation interval.
func WithInterval(d time.Duration) Option {
	return func(m *KeyManager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithClock replaces time.Now, letting tests drive rotation.
func WithClock(now func() time.Time) Option {
	return func(m *KeyManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithKeySource sets how keys are produced. Defaults to RandomKeys.
func WithKeySource(src KeySource) Option {
	return func(m *KeyManager) {
		if src != nil {
			m.source = src
		}
	}
}

// WithMasterSecret switches to DerivedKeys with epochs numbered from the
// wall clock, so independent processes rotate in lockstep.
func WithMasterSecret(secret []byte) Option {
	return func(m *KeyManager) {
		if len(secret) > 0 {
			m.source = DerivedKeys(secret)
			m.wallEpoch = true
		}
	}
}

// WithLogger sets the logger used for rotation events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *KeyManager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewKeyManager creates a KeyManager holding its first key.
func NewKeyManager(opts ...Option) (*KeyManager, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &KeyManager{
		interval: DefaultRotationInterval,
		source:   RandomKeys(),
		now:      time.Now,
		log:      discard,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.install(m.nextEpoch(true)); err != nil {
		return nil, err
	}
	return m, nil
}

// CurrentKey returns a copy of the active key, rotating first when the
// interval has elapsed. It returns nil after Close.
func (m *KeyManager) CurrentKey() []byte {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil
	}
	due := m.due()
	if !due {
		key := append([]byte(nil), m.key...)
		m.mu.RUnlock()
		return key
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if m.due() {
		if err := m.install(m.nextEpoch(false)); err != nil {
			m.log.WithError(err).Error("key rotation failed, keeping previous key")
		}
	}
	return append([]byte(nil), m.key...)
}

// Epoch returns the generation number of the active key.
func (m *KeyManager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// Rotate replaces the active key immediately.
func (m *KeyManager) Rotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return synister.ErrClosed
	}
	return m.install(m.nextEpoch(false))
}

// Start rotates the key on every interval tick until ctx is done or Close is
// called. It blocks; run it in its own goroutine.
func (m *KeyManager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			if err := m.Rotate(); err != nil {
				m.log.WithError(err).Error("scheduled key rotation failed")
			}
		}
	}
}

// Close stops scheduled rotation and wipes the key from memory. The manager
// hands out no key afterwards.
func (m *KeyManager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.key {
		m.key[i] = 0
	}
	m.key = nil
	m.closed = true
	return nil
}

// due reports whether the active key has outlived the interval. Callers hold mu.
func (m *KeyManager) due() bool {
	if m.wallEpoch {
		return m.wallClockEpoch() > m.epoch
	}
	return m.now().Sub(m.rotatedAt) >= m.interval
}

func (m *KeyManager) wallClockEpoch() uint64 {
	return uint64(m.now().UnixNano() / int64(m.interval))
}

// nextEpoch picks the epoch for the next key. Callers hold mu.
func (m *KeyManager) nextEpoch(first bool) uint64 {
	if m.wallEpoch {
		e := m.wallClockEpoch()
		if !first && e == m.epoch {
			// Forced rotation inside a wall-clock epoch moves ahead of it.
			e++
		}
		return e
	}
	if first {
		return 0
	}
	return m.epoch + 1
}

// install makes the key for epoch active. Callers hold mu.
func (m *KeyManager) install(epoch uint64) error {
	key, err := m.source(epoch)
	if err != nil {
		return err
	}
	if len(key) != KeySize {
		return fmt.Errorf("key source returned %d bytes, want %d", len(key), KeySize)
	}
	for i := range m.key {
		m.key[i] = 0
	}
	m.key = key
	m.epoch = epoch
	m.rotatedAt = m.now()
	m.log.WithField("epoch", epoch).Debug("session key rotated")
	return nil
}
