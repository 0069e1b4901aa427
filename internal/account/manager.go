package account

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ManagerConfig carries the knobs for constructing a Manager.
type ManagerConfig struct {
	// AdminEmail is the well-known address of the distinguished admin
	// account. Exactly one such account exists after initialization.
	AdminEmail string
	// AdminPassword seeds the admin's credential digest when the account
	// has to be synthesized on first start.
	AdminPassword string
	// Digest overrides the credential digest function. Defaults to
	// DefaultDigest.
	Digest DigestFunc
}

// Manager owns the reactive view of the user set and the current session
// for one execution context. All public operations are atomic with respect
// to each other; cross-context convergence happens through store change
// notifications fed into ApplyExternalUsers.
type Manager struct {
	store  Store
	logger *slog.Logger
	digest DigestFunc

	adminEmail    string
	adminPassword string

	mu          sync.Mutex
	allUsers    []User
	currentUser *User
	isAdmin     bool
	loading     bool
}

// NewManager constructs a Manager. Init must be called before any other
// operation.
func NewManager(store Store, logger *slog.Logger, cfg ManagerConfig) *Manager {
	digest := cfg.Digest
	if digest == nil {
		digest = DefaultDigest
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:         store,
		logger:        logger,
		digest:        digest,
		adminEmail:    cfg.AdminEmail,
		adminPassword: cfg.AdminPassword,
		loading:       true,
	}
}

// Init loads the user set, guarantees the admin account exists with
// isAdmin=true and status=approved, restores a persisted session pointer,
// and clears the loading flag. It never fails: a missing or corrupt store
// is treated as an empty user set.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := m.store.GetUsers(ctx)
	users, corrected := EnsureAdmin(users, m.adminEmail, m.digest(m.adminPassword))
	if corrected {
		if err := m.store.SaveUsers(ctx, users); err != nil {
			m.logger.Warn("persist corrected user set", slog.Any("error", err))
		}
	}
	m.allUsers = users

	if email, ok := m.store.GetCurrentSessionEmail(ctx); ok {
		if u := findByEmail(users, email); u != nil {
			m.setSessionLocked(u)
		} else {
			// Stale pointer: the referenced account no longer exists.
			m.logger.Warn("stale session pointer removed", slog.String("email", email))
			if err := m.store.RemoveCurrentSessionEmail(ctx); err != nil {
				m.logger.Warn("remove session pointer", slog.Any("error", err))
			}
		}
	}
	m.loading = false
}

// EnsureAdmin returns the user set with the admin invariant applied:
// exactly one record for adminEmail with isAdmin=true and status=approved,
// synthesized when absent. The second result reports whether the set was
// modified.
func EnsureAdmin(users []User, adminEmail, adminDigest string) ([]User, bool) {
	for i := range users {
		if users[i].Email != adminEmail {
			continue
		}
		corrected := false
		if !users[i].IsAdmin {
			users[i].IsAdmin = true
			corrected = true
		}
		if users[i].Status != StatusApproved {
			users[i].Status = StatusApproved
			corrected = true
		}
		return users, corrected
	}
	admin := User{
		ID:               uuid.NewString(),
		Email:            adminEmail,
		CredentialDigest: adminDigest,
		Status:           StatusApproved,
		IsAdmin:          true,
	}
	return append(users, admin), true
}

// Login authenticates against a fresh store read, not the cached view.
// On success the session is established and the cached view is refreshed
// from the same read. On failure no state changes.
func (m *Manager) Login(ctx context.Context, email, secret string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := m.store.GetUsers(ctx)
	u := findByEmail(users, email)
	if u == nil || u.CredentialDigest != m.digest(secret) {
		m.logger.Info("login rejected", slog.String("email", email))
		return false
	}
	m.setSessionLocked(u)
	if err := m.store.SetCurrentSessionEmail(ctx, u.Email); err != nil {
		m.logger.Warn("persist session pointer", slog.Any("error", err))
	}
	m.allUsers = users
	return true
}

// Signup creates a pending account and immediately establishes it as the
// active session. The existence check runs against the cached view, not a
// fresh read; a signup racing the same email in another context can
// succeed in both until the next reconciliation, with the last store
// write winning.
func (m *Manager) Signup(ctx context.Context, email, secret string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if findByEmail(m.allUsers, email) != nil {
		m.logger.Info("signup rejected, email exists", slog.String("email", email))
		return false
	}
	newUser := User{
		ID:               uuid.NewString(),
		Email:            email,
		CredentialDigest: m.digest(secret),
		Status:           StatusPending,
		IsAdmin:          false,
	}
	updated := append(append([]User(nil), m.allUsers...), newUser)
	if err := m.store.SaveUsers(ctx, updated); err != nil {
		m.logger.Warn("persist user set", slog.Any("error", err))
	}
	m.allUsers = updated
	m.setSessionLocked(&newUser)
	if err := m.store.SetCurrentSessionEmail(ctx, newUser.Email); err != nil {
		m.logger.Warn("persist session pointer", slog.Any("error", err))
	}
	return true
}

// Logout clears the local session and the persisted pointer. It never
// touches the user set and has no failure mode.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearSessionLocked(ctx)
}

// UpdateStatus applies the desired status to the target user in the
// cached set and persists the full set. Unknown targets are a logged
// no-op. An admin target is always forced back to approved regardless of
// the requested status. A self-targeting admin is not rejected here; the
// invariant correction simply reapplies.
func (m *Manager) UpdateStatus(ctx context.Context, userID string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.allUsers {
		if m.allUsers[i].ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.logger.Warn("status update target not found", slog.String("user_id", userID))
		return
	}

	updated := append([]User(nil), m.allUsers...)
	updated[idx].Status = status
	if updated[idx].IsAdmin && updated[idx].Status != StatusApproved {
		m.logger.Warn("admin status change overridden to approved",
			slog.String("email", updated[idx].Email),
			slog.String("requested", string(status)))
		updated[idx].Status = StatusApproved
	}
	if err := m.store.SaveUsers(ctx, updated); err != nil {
		m.logger.Warn("persist user set", slog.Any("error", err))
	}
	m.allUsers = updated

	if m.currentUser != nil && m.currentUser.ID == userID {
		m.setSessionLocked(&updated[idx])
	}
}

// ApplyExternalUsers reconciles local state with a user-set value written
// by another execution context. A nil or unparseable payload is treated
// as an empty set. Applying the same payload twice yields the same end
// state.
func (m *Manager) ApplyExternalUsers(ctx context.Context, raw []byte) {
	users := decodeUsers(raw, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()

	pointer := ""
	havePointer := false
	if m.currentUser == nil {
		pointer, havePointer = m.store.GetCurrentSessionEmail(ctx)
	}

	res := reconcile(reconcileState{users: m.allUsers, current: m.currentUser}, users, pointer, havePointer)
	m.allUsers = res.state.users
	if res.state.current != nil {
		m.setSessionLocked(res.state.current)
	} else if m.currentUser != nil {
		m.logger.Warn("session terminated, user removed in another context",
			slog.String("user_id", m.currentUser.ID))
		m.clearSessionLocked(ctx)
	}
}

// Snapshot returns a copy of the reactive state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		IsAdmin:   m.isAdmin,
		IsLoading: m.loading,
		AllUsers:  append([]User(nil), m.allUsers...),
	}
	if m.currentUser != nil {
		u := *m.currentUser
		snap.CurrentUser = &u
	}
	return snap
}

// IsLoading reports whether initialization has completed. Consumers gate
// rendering on this flag.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// CurrentUser returns a copy of the active session's user, if any.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentUser == nil {
		return User{}, false
	}
	return *m.currentUser, true
}

func (m *Manager) setSessionLocked(u *User) {
	copied := *u
	m.currentUser = &copied
	m.isAdmin = copied.IsAdmin
}

func (m *Manager) clearSessionLocked(ctx context.Context) {
	m.currentUser = nil
	m.isAdmin = false
	if err := m.store.RemoveCurrentSessionEmail(ctx); err != nil {
		m.logger.Warn("remove session pointer", slog.Any("error", err))
	}
}

func findByEmail(users []User, email string) *User {
	for i := range users {
		if users[i].Email == email {
			return &users[i]
		}
	}
	return nil
}
