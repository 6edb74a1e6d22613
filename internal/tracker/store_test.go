package tracker

import (
	"context"
	"fmt"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "classtracker:test"), server
}

func TestKVStoreAbsentKeyIsEmpty(t *testing.T) {
	store := NewKVStore(NewMemoryKV())

	records, err := store.Load(context.Background(), EventsKey)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestKVStoreCapsOldestFirst(t *testing.T) {
	kv := NewMemoryKV()
	store := NewKVStore(kv)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, UserLogsKey, []byte(fmt.Sprintf(`{"seq":%d}`, i)), 3))
	}

	records, err := store.Load(ctx, UserLogsKey)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.JSONEq(t, `{"seq":2}`, string(records[0]))
	require.JSONEq(t, `{"seq":4}`, string(records[2]))

	raw, ok, err := kv.Get(ctx, UserLogsKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"seq":2},{"seq":3},{"seq":4}]`, raw)
}

func TestKVStoreReplacesCorruptValue(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, EventsKey, "not json"))

	store := NewKVStore(kv)
	_, err := store.Load(ctx, EventsKey)
	require.Error(t, err)

	require.NoError(t, store.Append(ctx, EventsKey, []byte(`{"eventType":"page_view"}`), 10))
	records, err := store.Load(ctx, EventsKey)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestKVStoreRejectsInvalidRecord(t *testing.T) {
	store := NewKVStore(NewMemoryKV())
	require.Error(t, store.Append(context.Background(), EventsKey, []byte("{"), 10))
}

func TestKVStoreRemove(t *testing.T) {
	store := NewKVStore(NewMemoryKV())
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, EventsKey, []byte(`{}`), 10))
	require.NoError(t, store.Append(ctx, UserLogsKey, []byte(`{}`), 10))

	require.NoError(t, store.Remove(ctx, EventsKey, UserLogsKey))

	events, err := store.Load(ctx, EventsKey)
	require.NoError(t, err)
	require.Empty(t, events)
	logs, err := store.Load(ctx, UserLogsKey)
	require.NoError(t, err)
	require.Empty(t, logs)
}

func TestRedisStoreCapsOldestFirst(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		require.NoError(t, store.Append(ctx, EventsKey, []byte(fmt.Sprintf(`{"seq":%d}`, i)), DefaultCapacity))
	}

	records, err := store.Load(ctx, EventsKey)
	require.NoError(t, err)
	require.Len(t, records, DefaultCapacity)
	require.JSONEq(t, `{"seq":50}`, string(records[0]))
	require.JSONEq(t, `{"seq":149}`, string(records[len(records)-1]))
	require.True(t, server.Exists("classtracker:test:"+EventsKey))
}

func TestRedisStoreConcurrentAppendsAreNotLost(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_ = store.Append(ctx, UserLogsKey, []byte(fmt.Sprintf(`{"worker":%d,"seq":%d}`, worker, i)), DefaultCapacity)
			}
		}(worker)
	}
	wg.Wait()

	records, err := store.Load(ctx, UserLogsKey)
	require.NoError(t, err)
	require.Len(t, records, 80)
}

func TestRedisStoreRemoveAndMissingKey(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	records, err := store.Load(ctx, UserLogsKey)
	require.NoError(t, err)
	require.Empty(t, records)

	require.NoError(t, store.Append(ctx, UserLogsKey, []byte(`{"action":"x"}`), 0))
	require.NoError(t, store.Remove(ctx, UserLogsKey, EventsKey))

	records, err = store.Load(ctx, UserLogsKey)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestTrackerOverRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	tr := New(ctx, WithStore(store))

	tr.TrackLogin(ctx, "t1")
	require.NoError(t, tr.TrackClassCreated(ctx, "c1", ClassSummary{Name: "Algebra", Subject: "Math", Grade: "9"}))

	events := tr.StoredEvents(ctx)
	require.Len(t, events, 4)
	require.Equal(t, "page_load", events[0].EventType)
	require.Equal(t, "class_created", events[3].EventType)

	logs := tr.StoredUserLogs(ctx)
	require.Len(t, logs, 1)
	require.Equal(t, "t1", logs[0].UserID)

	tr.ClearStoredData(ctx)
	require.Empty(t, tr.StoredEvents(ctx))
	require.Empty(t, tr.StoredUserLogs(ctx))
}
