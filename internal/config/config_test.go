package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLASSTRACKER_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Class Tracker API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, TrackerStoreMemory, cfg.TrackerStore)
	require.Equal(t, TrackerSinkNone, cfg.TrackerSink)
	require.Equal(t, 100, cfg.TrackerCapacity)
	require.Equal(t, 20, cfg.RateLimitTracker)
	require.Equal(t, 30*time.Minute, cfg.TrackerIdleTTL)
	require.Equal(t, 1000, cfg.TrackerSessions)
	require.Equal(t, time.Minute, cfg.StatsCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLASSTRACKER_JWT_SECRET", "secret")
	t.Setenv("CLASSTRACKER_APP_PORT", ":9000")
	t.Setenv("CLASSTRACKER_DATABASE_DRIVER", "SQLite")
	t.Setenv("CLASSTRACKER_TRACKER_CAPACITY", "25")
	t.Setenv("CLASSTRACKER_TRACKER_STORE", "redis")
	t.Setenv("CLASSTRACKER_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CLASSTRACKER_TRACKER_IDLE_TTL", "5m")
	t.Setenv("CLASSTRACKER_TRACKER_MAX_SESSIONS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, 25, cfg.TrackerCapacity)
	require.Equal(t, TrackerStoreRedis, cfg.TrackerStore)
	require.Equal(t, 5*time.Minute, cfg.TrackerIdleTTL)
	require.Equal(t, 10, cfg.TrackerSessions)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("CLASSTRACKER_JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("redis store without url", func(t *testing.T) {
		t.Setenv("CLASSTRACKER_JWT_SECRET", "secret")
		t.Setenv("CLASSTRACKER_TRACKER_STORE", "redis")
		t.Setenv("CLASSTRACKER_REDIS_URL", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown sink", func(t *testing.T) {
		t.Setenv("CLASSTRACKER_JWT_SECRET", "secret")
		t.Setenv("CLASSTRACKER_TRACKER_SINK", "kafka")
		_, err := Load()
		require.Error(t, err)
	})
}
