package account

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileSessionDeleted(t *testing.T) {
	current := &User{ID: "u1", Email: "user@test.local", Status: StatusApproved}
	prev := reconcileState{users: []User{*current}, current: current}

	res := reconcile(prev, []User{}, "", false)
	assert.Nil(t, res.state.current)
	assert.True(t, res.dropPointer)
	assert.Empty(t, res.state.users)
}

func TestReconcileStatusChangePropagates(t *testing.T) {
	current := &User{ID: "u1", Email: "user@test.local", Status: StatusPending}
	next := []User{{ID: "u1", Email: "user@test.local", Status: StatusApproved}}

	res := reconcile(reconcileState{current: current}, next, "", false)
	require.NotNil(t, res.state.current)
	assert.Equal(t, StatusApproved, res.state.current.Status)
	assert.False(t, res.dropPointer)
}

func TestReconcileUnchangedKeepsSession(t *testing.T) {
	current := &User{ID: "u1", Email: "user@test.local", Status: StatusApproved}
	next := []User{{ID: "u1", Email: "user@test.local", Status: StatusApproved}}

	res := reconcile(reconcileState{current: current}, next, "", false)
	assert.Same(t, current, res.state.current)
}

func TestReconcileAdoptsPointerSession(t *testing.T) {
	next := []User{{ID: "u1", Email: "user@test.local", Status: StatusApproved}}

	res := reconcile(reconcileState{}, next, "user@test.local", true)
	require.NotNil(t, res.state.current)
	assert.Equal(t, "u1", res.state.current.ID)

	res = reconcile(reconcileState{}, next, "other@test.local", true)
	assert.Nil(t, res.state.current)

	res = reconcile(reconcileState{}, next, "", false)
	assert.Nil(t, res.state.current)
}

func TestReconcileIdempotent(t *testing.T) {
	current := &User{ID: "u1", Email: "user@test.local", Status: StatusPending}
	next := []User{{ID: "u1", Email: "user@test.local", Status: StatusApproved}}

	first := reconcile(reconcileState{current: current}, next, "", false)
	second := reconcile(first.state, next, "", false)
	assert.Equal(t, first.state.users, second.state.users)
	assert.Equal(t, *first.state.current, *second.state.current)
}

func TestDecodeUsersFailsOpen(t *testing.T) {
	logger := slog.Default()
	assert.Nil(t, decodeUsers(nil, logger))
	assert.Nil(t, decodeUsers([]byte("{not json"), logger))

	raw, err := json.Marshal([]User{{ID: "u1"}})
	require.NoError(t, err)
	assert.Len(t, decodeUsers(raw, logger), 1)
}

func TestApplyExternalUsersApprovalLive(t *testing.T) {
	// Tab B: a pending user is logged in; tab A approves them.
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)
	require.True(t, m.Signup(ctx, "member@test.local", "pw123456"))

	approved := st.GetUsers(ctx)
	approved[1].Status = StatusApproved
	raw, err := json.Marshal(approved)
	require.NoError(t, err)

	m.ApplyExternalUsers(ctx, raw)
	u, ok := m.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, StatusApproved, u.Status)
}

func TestApplyExternalUsersForcedLogout(t *testing.T) {
	// Tab A deletes the user logged in on tab B.
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)
	require.True(t, m.Signup(ctx, "member@test.local", "pw123456"))

	withoutMember := st.GetUsers(ctx)[:1]
	raw, err := json.Marshal(withoutMember)
	require.NoError(t, err)

	m.ApplyExternalUsers(ctx, raw)
	_, ok := m.CurrentUser()
	assert.False(t, ok)
	assert.False(t, st.hasEmail, "forced logout removes the persisted pointer")

	// Applying the same payload again must not resurrect anything.
	m.ApplyExternalUsers(ctx, raw)
	_, ok = m.CurrentUser()
	assert.False(t, ok)
}

func TestApplyExternalUsersAdoptsForeignLogin(t *testing.T) {
	// This context is unauthenticated; another context signed up and set
	// the shared pointer, then wrote the user set.
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)

	foreign := append(st.GetUsers(ctx), User{
		ID: "u2", Email: "other@test.local", Status: StatusPending,
	})
	require.NoError(t, st.SetCurrentSessionEmail(ctx, "other@test.local"))
	raw, err := json.Marshal(foreign)
	require.NoError(t, err)

	m.ApplyExternalUsers(ctx, raw)
	u, ok := m.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "u2", u.ID)
}

func TestApplyExternalUsersMalformedPayload(t *testing.T) {
	st := &memStore{}
	m := newTestManager(t, st)
	ctx := context.Background()
	m.Init(ctx)
	require.True(t, m.Login(ctx, testAdminEmail, testAdminPassword))

	// Unparseable payload reads as an empty set: the logged-in user is
	// gone from it, so the session terminates rather than erroring.
	m.ApplyExternalUsers(ctx, []byte("{{{"))
	assert.Empty(t, m.Snapshot().AllUsers)
	_, ok := m.CurrentUser()
	assert.False(t, ok)
}
