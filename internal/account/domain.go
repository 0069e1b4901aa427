package account

import "context"

// Status is the lifecycle state of a user account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// User represents a tracked account. Records are persisted as a single
// JSON blob holding the full user set; the store is the source of truth
// on conflict.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	CredentialDigest string `json:"credentialDigest"`
	Status           Status `json:"status"`
	IsAdmin          bool   `json:"isAdmin,omitempty"`
}

// Store is the key-value persistence boundary the manager reads from and
// writes to. Reads fail open: missing or corrupt data yields an empty
// result, never an error.
type Store interface {
	GetUsers(ctx context.Context) []User
	SaveUsers(ctx context.Context, users []User) error
	GetCurrentSessionEmail(ctx context.Context) (string, bool)
	SetCurrentSessionEmail(ctx context.Context, email string) error
	RemoveCurrentSessionEmail(ctx context.Context) error
}

// Snapshot is a point-in-time copy of the manager's reactive state, safe
// for the caller to retain.
type Snapshot struct {
	CurrentUser *User
	IsAdmin     bool
	IsLoading   bool
	AllUsers    []User
}
