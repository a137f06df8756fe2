package session

import "context"

// Store persists chat sessions partitioned by owner. No operation can read
// or modify a record belonging to another owner.
type Store interface {
	// Get returns the owner's session id. It returns synister.ErrNotFound
	// when the record is absent or can no longer be decoded.
	Get(ctx context.Context, owner, id string) (*Record, error)

	// GetAll returns every decodable session of owner, keyed by id.
	// Undecodable records are skipped.
	GetAll(ctx context.Context, owner string) (map[string]*Record, error)

	// Set replaces the owner's session id with rec. rec.ID is forced to id.
	// It returns synister.ErrOwnerNotFound for unknown owners.
	Set(ctx context.Context, owner, id string, rec *Record) error

	// Delete removes one session. Deleting a missing session is not an error.
	Delete(ctx context.Context, owner, id string) error

	// Clear removes every session of owner. It is not atomic and may be
	// invoked again after a partial failure.
	Clear(ctx context.Context, owner string) error

	// Close releases the underlying medium.
	Close() error
}

// Medium stores opaque blobs under (owner, id). Implementations must keep
// owners isolated from each other.
type Medium interface {
	// Load returns synister.ErrNotFound when no blob exists.
	Load(ctx context.Context, owner, id string) ([]byte, error)
	Save(ctx context.Context, owner, id string, blob []byte) error
	// Remove is a no-op when no blob exists.
	Remove(ctx context.Context, owner, id string) error
	// List returns every blob of owner keyed by id.
	List(ctx context.Context, owner string) (map[string][]byte, error)
	Close() error
}

// Accounts tracks which owner identities are provisioned.
type Accounts interface {
	Exists(ctx context.Context, owner string) (bool, error)
	Provision(ctx context.Context, owner string) error
}

// Codec turns records into blobs and back. *cipher.Cipher satisfies it.
type Codec interface {
	Encrypt(v any) ([]byte, error)
	Decrypt(blob []byte, v any) error
}
