package supabase

import (
	"context"
	"fmt"
	"sync"
	"time"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/supabase-community/supabase-go"
)

const (
	accountsTable = "accounts"
	sessionsTable = "chat_sessions"
)

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the Store interface using Supabase
type Client struct {
	client   *supabase.Client
	cache    *cache
	cacheTTL time.Duration
}

// cache remembers provisioned owners so Set does not hit the accounts
// table on every write. Only positive lookups are cached.
type cache struct {
	mu       sync.RWMutex
	accounts map[string]*cacheEntry[bool]
	now      func() time.Time
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func newCache() *cache {
	return &cache{
		accounts: make(map[string]*cacheEntry[bool]),
		now:      time.Now,
	}
}

// New creates a new Supabase client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase URL is required", synister.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: supabase API key is required", synister.ErrInvalidConfig)
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		cacheTTL: cfg.CacheTTL,
		cache:    newCache(),
	}, nil
}

// Load implements session.Medium.
func (c *Client) Load(ctx context.Context, owner, id string) ([]byte, error) {
	var rows []SessionRow
	_, err := c.client.From(sessionsTable).
		Select("id,payload", "", false).
		Eq("owner", owner).
		Eq("id", id).
		ExecuteTo(&rows)

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(rows) == 0 {
		return nil, synister.ErrNotFound
	}
	return []byte(rows[0].Payload), nil
}

// Save implements session.Medium.
func (c *Client) Save(ctx context.Context, owner, id string, blob []byte) error {
	now := time.Now().UTC()
	row := SessionRow{Owner: owner, ID: id, Payload: string(blob), UpdatedAt: &now}

	_, _, err := c.client.From(sessionsTable).
		Upsert(row, "owner,id", "minimal", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Remove implements session.Medium.
func (c *Client) Remove(ctx context.Context, owner, id string) error {
	_, _, err := c.client.From(sessionsTable).
		Delete("minimal", "").
		Eq("owner", owner).
		Eq("id", id).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List implements session.Medium.
func (c *Client) List(ctx context.Context, owner string) (map[string][]byte, error) {
	var rows []SessionRow
	_, err := c.client.From(sessionsTable).
		Select("id,payload", "", false).
		Eq("owner", owner).
		ExecuteTo(&rows)

	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make(map[string][]byte, len(rows))
	for _, r := range rows {
		out[r.ID] = []byte(r.Payload)
	}
	return out, nil
}

// Exists implements session.Accounts.
func (c *Client) Exists(ctx context.Context, owner string) (bool, error) {
	// Check cache first
	if c.cache.known(owner) {
		return true, nil
	}

	var accounts []Account
	_, err := c.client.From(accountsTable).
		Select("owner", "", false).
		Eq("owner", owner).
		ExecuteTo(&accounts)

	if err != nil {
		return false, fmt.Errorf("failed to get account: %w", err)
	}

	if len(accounts) == 0 {
		return false, nil
	}

	c.cache.add(owner, c.cacheTTL)
	return true, nil
}

// Provision implements session.Accounts.
func (c *Client) Provision(ctx context.Context, owner string) error {
	if owner == "" {
		return synister.ErrOwnerNotFound
	}

	_, _, err := c.client.From(accountsTable).
		Upsert(Account{Owner: owner}, "owner", "minimal", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to provision account: %w", err)
	}

	c.cache.add(owner, c.cacheTTL)
	return nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// known reports whether owner is cached and unexpired.
func (c *cache) known(owner string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.accounts[owner]; ok {
		if c.now().Before(e.expiresAt) {
			return e.value
		}
	}
	return false
}

// add caches owner as provisioned for ttl.
func (c *cache) add(owner string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[owner] = &cacheEntry[bool]{
		value:     true,
		expiresAt: c.now().Add(ttl),
	}
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)
