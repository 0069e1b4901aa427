package account_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/store"
	_ "github.com/gymtrack/gymtrack/testing"
)

// tab bundles one execution context: its own store handle and manager
// over the shared keyspace, plus its notification feed.
type tab struct {
	store   *store.Store
	manager *account.Manager
	feed    <-chan store.Notification
}

func openTab(t *testing.T, ctx context.Context, mr *miniredis.Miniredis) *tab {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	st := store.New(client, nil)
	manager := account.NewManager(st, nil, account.ManagerConfig{
		AdminEmail:    "admin@gymtrack.com",
		AdminPassword: "admin123",
	})
	feed := st.Watch(ctx, store.UsersKey)
	time.Sleep(50 * time.Millisecond)
	manager.Init(ctx)
	return &tab{store: st, manager: manager, feed: feed}
}

// pump applies the next pending notification to the tab's manager.
func (tb *tab) pump(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case n := <-tb.feed:
		tb.manager.ApplyExternalUsers(ctx, n.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestApprovalPropagatesAcrossTabs(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA := openTab(t, ctx, mr)
	tabB := openTab(t, ctx, mr)

	// U signs up and stays logged in on tab B.
	require.True(t, tabB.manager.Signup(ctx, "u@test.local", "pw123456"))
	tabA.pump(t, ctx)

	// The admin approves U from tab A.
	var target string
	for _, u := range tabA.manager.Snapshot().AllUsers {
		if u.Email == "u@test.local" {
			target = u.ID
		}
	}
	require.NotEmpty(t, target)
	tabA.manager.UpdateStatus(ctx, target, account.StatusApproved)

	tabB.pump(t, ctx)
	u, ok := tabB.manager.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, account.StatusApproved, u.Status,
		"approval reaches the open session without a reload")
}

func TestConcurrentDeletionForcesLogout(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA := openTab(t, ctx, mr)
	tabB := openTab(t, ctx, mr)

	require.True(t, tabB.manager.Signup(ctx, "u@test.local", "pw123456"))
	tabA.pump(t, ctx)

	// Tab A removes U from the set out of band.
	var kept []account.User
	for _, u := range tabA.manager.Snapshot().AllUsers {
		if u.Email != "u@test.local" {
			kept = append(kept, u)
		}
	}
	require.NoError(t, tabA.store.SaveUsers(ctx, kept))

	tabB.pump(t, ctx)
	_, ok := tabB.manager.CurrentUser()
	assert.False(t, ok, "deleted user is logged out remotely")
	_, hasPointer := tabB.store.GetCurrentSessionEmail(ctx)
	assert.False(t, hasPointer)
}

func TestDuplicateSignupRaceLastWriteWins(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA := openTab(t, ctx, mr)
	tabB := openTab(t, ctx, mr)

	// Both tabs sign up the same email before either reconciles: both
	// report success locally and the second write replaces the first.
	require.True(t, tabA.manager.Signup(ctx, "dup@test.local", "pw123456"))
	require.True(t, tabB.manager.Signup(ctx, "dup@test.local", "pw123456"))

	matches := 0
	for _, u := range tabB.store.GetUsers(ctx) {
		if u.Email == "dup@test.local" {
			matches++
		}
	}
	assert.Equal(t, 1, matches, "tab B never saw tab A's write, so its set has one record")
}
