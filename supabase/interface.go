package supabase

import (
	"time"

	"github.com/ChitterSync/SynisterChat/session"
)

// Store persists chat sessions and provisioned owners in Supabase.
type Store interface {
	session.Medium
	session.Accounts
}

// Account represents a provisioned owner from the accounts table
type Account struct {
	Owner     string     `json:"owner"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// SessionRow represents one stored session from the chat_sessions table.
// Payload holds the encoded record, which is already text (base64 cipher
// output or JSON).
type SessionRow struct {
	Owner     string     `json:"owner"`
	ID        string     `json:"id"`
	Payload   string     `json:"payload"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
