package account

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	users    []User
	email    string
	hasEmail bool
	saves    int
}

func (s *memStore) GetUsers(ctx context.Context) []User {
	return append([]User(nil), s.users...)
}

func (s *memStore) SaveUsers(ctx context.Context, users []User) error {
	s.users = append([]User(nil), users...)
	s.saves++
	return nil
}

func (s *memStore) GetCurrentSessionEmail(ctx context.Context) (string, bool) {
	return s.email, s.hasEmail
}

func (s *memStore) SetCurrentSessionEmail(ctx context.Context, email string) error {
	s.email = email
	s.hasEmail = true
	return nil
}

func (s *memStore) RemoveCurrentSessionEmail(ctx context.Context) error {
	s.email = ""
	s.hasEmail = false
	return nil
}

const (
	testAdminEmail    = "admin@gymtrack.com"
	testAdminPassword = "admin123"
)

func newTestManager(t *testing.T, st *memStore) *Manager {
	t.Helper()
	return NewManager(st, slog.Default(), ManagerConfig{
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
	})
}

func TestInitSynthesizesAdmin(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	m.Init(context.Background())

	require.False(t, m.IsLoading())
	require.Len(t, st.users, 1)
	admin := st.users[0]
	assert.Equal(t, testAdminEmail, admin.Email)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, StatusApproved, admin.Status)
	assert.Equal(t, DefaultDigest(testAdminPassword), admin.CredentialDigest)
	assert.NotEmpty(t, admin.ID)
	assert.Equal(t, 1, st.saves)
}

func TestInitCorrectsDemotedAdmin(t *testing.T) {
	st := &memStore{users: []User{{
		ID:               "a1",
		Email:            testAdminEmail,
		CredentialDigest: DefaultDigest(testAdminPassword),
		Status:           StatusRejected,
		IsAdmin:          false,
	}}}
	m := newTestManager(t, st)
	m.Init(context.Background())

	require.Len(t, st.users, 1)
	assert.True(t, st.users[0].IsAdmin)
	assert.Equal(t, StatusApproved, st.users[0].Status)
	assert.Equal(t, 1, st.saves)
}

func TestInitDoesNotRewriteHealthyAdmin(t *testing.T) {
	st := &memStore{users: []User{{
		ID:               "a1",
		Email:            testAdminEmail,
		CredentialDigest: DefaultDigest(testAdminPassword),
		Status:           StatusApproved,
		IsAdmin:          true,
	}}}
	m := newTestManager(t, st)
	m.Init(context.Background())

	assert.Equal(t, 0, st.saves)
}

func TestInitRestoresSessionFromPointer(t *testing.T) {
	st := &memStore{
		users: []User{{
			ID: "u1", Email: "user@test.local",
			CredentialDigest: DefaultDigest("secret1"),
			Status:           StatusApproved,
		}},
		email:    "user@test.local",
		hasEmail: true,
	}
	m := newTestManager(t, st)
	m.Init(context.Background())

	u, ok := m.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)
	assert.False(t, m.Snapshot().IsAdmin)
}

func TestInitClearsStalePointer(t *testing.T) {
	st := &memStore{email: "ghost@test.local", hasEmail: true}
	m := newTestManager(t, st)
	m.Init(context.Background())

	_, ok := m.CurrentUser()
	assert.False(t, ok)
	assert.False(t, st.hasEmail)
}

func TestLogin(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)

	require.False(t, m.Login(ctx, "nobody@test.local", "whatever"))
	require.False(t, m.Login(ctx, testAdminEmail, "wrongpass"))
	_, ok := m.CurrentUser()
	assert.False(t, ok, "failed login must not establish a session")
	assert.Equal(t, 1, st.saves, "login must never mutate the user set")

	require.True(t, m.Login(ctx, testAdminEmail, testAdminPassword))
	u, ok := m.CurrentUser()
	require.True(t, ok)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, testAdminEmail, st.email)
}

func TestLoginReadsFreshStore(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)

	// Simulate another context adding a user after this manager cached
	// its view; login must still find it.
	st.users = append(st.users, User{
		ID: "u9", Email: "late@test.local",
		CredentialDigest: DefaultDigest("pw123456"),
		Status:           StatusPending,
	})
	require.True(t, m.Login(ctx, "late@test.local", "pw123456"))
	assert.Len(t, m.Snapshot().AllUsers, 2, "login refreshes the cached view from the same read")
}

func TestSignup(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)

	require.True(t, m.Signup(ctx, "new@test.local", "pw123456"))
	u, ok := m.CurrentUser()
	require.True(t, ok, "signup auto-logs-in the new user")
	assert.Equal(t, StatusPending, u.Status)
	assert.False(t, u.IsAdmin)
	assert.Equal(t, "new@test.local", st.email)
	require.Len(t, st.users, 2)

	require.False(t, m.Signup(ctx, "new@test.local", "other"), "duplicate email rejected")
	assert.Len(t, st.users, 2)
}

func TestSignupChecksCachedViewNotStore(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)

	// A user written by another context that this manager has not
	// reconciled yet does not block signup; the store's last write wins.
	st.users = append(st.users, User{ID: "u7", Email: "raced@test.local", Status: StatusPending})
	assert.True(t, m.Signup(ctx, "raced@test.local", "pw123456"))
}

func TestLogout(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)
	require.True(t, m.Login(ctx, testAdminEmail, testAdminPassword))

	m.Logout(ctx)
	_, ok := m.CurrentUser()
	assert.False(t, ok)
	assert.False(t, st.hasEmail)
	assert.Len(t, st.users, 1, "logout never touches the user set")
}

func TestUpdateStatus(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)
	require.True(t, m.Signup(ctx, "member@test.local", "pw123456"))
	memberID := st.users[1].ID

	m.UpdateStatus(ctx, memberID, StatusApproved)
	assert.Equal(t, StatusApproved, st.users[1].Status)

	// Self-target: the acting user's session record refreshes too.
	u, _ := m.CurrentUser()
	assert.Equal(t, StatusApproved, u.Status)

	saves := st.saves
	m.UpdateStatus(ctx, "missing-id", StatusRejected)
	assert.Equal(t, saves, st.saves, "unknown target is a no-op")
}

func TestUpdateStatusAdminInvariant(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)
	adminID := st.users[0].ID

	for _, status := range []Status{StatusPending, StatusRejected, StatusApproved} {
		m.UpdateStatus(ctx, adminID, status)
		assert.Equal(t, StatusApproved, st.users[0].Status,
			"admin status must stay approved after requesting %q", status)
	}
}
