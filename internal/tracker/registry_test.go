package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func TestRegistryKeepsUsersPerSession(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(NewMemoryKV())
	sessions := NewRegistry(RegistryConfig{}, WithStore(store))

	alice := sessions.Open(ctx, ClientInfo{IPAddress: "10.0.0.1"})
	other := sessions.Open(ctx, ClientInfo{IPAddress: "10.0.0.2"})
	require.NotEqual(t, alice.SessionID(), other.SessionID())

	alice.TrackLogin(ctx, "alice")
	err := other.TrackCreditAwarded(ctx, "cr9", "s9", 5)
	require.ErrorIs(t, err, ErrNoCurrentUser)
	require.Empty(t, other.UserLogs())

	require.NoError(t, alice.TrackCreditAwarded(ctx, "cr9", "s9", 5))
	require.Equal(t, "alice", alice.UserLogs()[0].UserID)
	require.Equal(t, "10.0.0.1", alice.UserLogs()[0].IPAddress)

	// both trackers share the store but not the streams
	require.Len(t, other.StoredEvents(ctx), 1)
	alice.ClearStoredData(ctx)
	require.Len(t, other.StoredEvents(ctx), 1)
	raw, err := store.Load(ctx, EventsKey)
	require.NoError(t, err)
	require.Empty(t, raw)

	found, ok := sessions.Get(other.SessionID())
	require.True(t, ok)
	require.Same(t, other, found)
}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
	sessions := NewRegistry(RegistryConfig{IdleTTL: time.Minute, Now: clock.Now})

	idle := sessions.Open(ctx, ClientInfo{})
	active := sessions.Open(ctx, ClientInfo{})

	clock.now = clock.now.Add(45 * time.Second)
	_, ok := sessions.Get(active.SessionID())
	require.True(t, ok)

	clock.now = clock.now.Add(30 * time.Second)
	_, ok = sessions.Get(idle.SessionID())
	require.False(t, ok)
	_, ok = sessions.Get(active.SessionID())
	require.True(t, ok)
	require.Equal(t, 1, sessions.Len())
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
	sessions := NewRegistry(RegistryConfig{MaxSessions: 2, Now: clock.Now})

	first := sessions.Open(ctx, ClientInfo{})
	clock.now = clock.now.Add(time.Second)
	second := sessions.Open(ctx, ClientInfo{})
	clock.now = clock.now.Add(time.Second)
	_, ok := sessions.Get(first.SessionID())
	require.True(t, ok)

	clock.now = clock.now.Add(time.Second)
	third := sessions.Open(ctx, ClientInfo{})
	require.Equal(t, 2, sessions.Len())

	_, ok = sessions.Get(second.SessionID())
	require.False(t, ok)
	_, ok = sessions.Get(first.SessionID())
	require.True(t, ok)
	_, ok = sessions.Get(third.SessionID())
	require.True(t, ok)

	require.True(t, sessions.Close(third.SessionID()))
	require.False(t, sessions.Close(third.SessionID()))
}
