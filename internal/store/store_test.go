package store_test

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

func newTestStore(t *testing.T) (*store.Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.New(client, nil), mr, client
}

func TestUsersRoundTrip(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()

	assert.Empty(t, st.GetUsers(ctx), "missing key fails open to empty")

	users := []account.User{{
		ID: "u1", Email: "user@test.local",
		CredentialDigest: "digest", Status: account.StatusPending,
	}}
	require.NoError(t, st.SaveUsers(ctx, users))
	got := st.GetUsers(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, users[0], got[0])
}

func TestCorruptValueFailsOpen(t *testing.T) {
	st, mr, _ := newTestStore(t)
	require.NoError(t, mr.Set(store.UsersKey, "{{{not json"))
	assert.Empty(t, st.GetUsers(context.Background()))
}

func TestSessionPointer(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()

	_, ok := st.GetCurrentSessionEmail(ctx)
	assert.False(t, ok)

	require.NoError(t, st.SetCurrentSessionEmail(ctx, "user@test.local"))
	email, ok := st.GetCurrentSessionEmail(ctx)
	require.True(t, ok)
	assert.Equal(t, "user@test.local", email)

	require.NoError(t, st.RemoveCurrentSessionEmail(ctx))
	_, ok = st.GetCurrentSessionEmail(ctx)
	assert.False(t, ok)
}

func TestWatchDeliversForeignWritesOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = clientA.Close(); _ = clientB.Close() })

	storeA := store.New(clientA, nil)
	storeB := store.New(clientB, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fromA := storeA.Watch(ctx, store.UsersKey)
	fromB := storeB.Watch(ctx, store.UsersKey)

	// Give the subscriptions a moment to establish.
	time.Sleep(50 * time.Millisecond)

	users := []account.User{{ID: "u1", Email: "user@test.local", Status: account.StatusPending}}
	require.NoError(t, storeA.SaveUsers(ctx, users))

	select {
	case n := <-fromB:
		assert.Equal(t, store.UsersKey, n.Key)
		assert.Contains(t, string(n.Value), "user@test.local")
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification in the other context")
	}

	select {
	case n := <-fromA:
		t.Fatalf("writer received its own notification: %+v", n)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchIgnoresUnwatchedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = clientA.Close(); _ = clientB.Close() })

	storeA := store.New(clientA, nil)
	storeB := store.New(clientB, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fromB := storeB.Watch(ctx, store.UsersKey)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, storeA.SaveWorkouts(ctx, nil))

	select {
	case n := <-fromB:
		t.Fatalf("received notification for unwatched key: %+v", n)
	case <-time.After(200 * time.Millisecond):
	}
}
