package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Tracker store backends.
const (
	TrackerStoreMemory = "memory"
	TrackerStoreRedis  = "redis"
	TrackerStoreNone   = "none"
)

// Tracker sink targets.
const (
	TrackerSinkNone    = "none"
	TrackerSinkDurable = "durable"
	TrackerSinkNATS    = "nats"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseDriver   string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	NATSSubject      string
	JWTSecret        string
	AllowOrigins     string
	TrackerStore     string
	TrackerCapacity  int
	TrackerSink      string
	TrackerIdleTTL   time.Duration
	TrackerSessions  int
	RateLimitTracker int
	StatsCacheTTL    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSTRACKER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Class Tracker API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject", "classtracker")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("tracker.store", TrackerStoreMemory)
	v.SetDefault("tracker.capacity", 100)
	v.SetDefault("tracker.sink", TrackerSinkNone)
	v.SetDefault("tracker.idle_ttl", "30m")
	v.SetDefault("tracker.max_sessions", 1000)
	v.SetDefault("rate_limit.tracker", 20)
	v.SetDefault("credits.stats_ttl", "1m")

	ttl, err := time.ParseDuration(v.GetString("credits.stats_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid credit statistics ttl: %w", err)
	}
	idleTTL, err := time.ParseDuration(v.GetString("tracker.idle_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid tracker idle ttl: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseDriver:   strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		NATSSubject:      v.GetString("nats.subject"),
		JWTSecret:        v.GetString("jwt.secret"),
		AllowOrigins:     v.GetString("cors.origins"),
		TrackerStore:     strings.ToLower(v.GetString("tracker.store")),
		TrackerCapacity:  v.GetInt("tracker.capacity"),
		TrackerSink:      strings.ToLower(v.GetString("tracker.sink")),
		TrackerIdleTTL:   idleTTL,
		TrackerSessions:  v.GetInt("tracker.max_sessions"),
		RateLimitTracker: v.GetInt("rate_limit.tracker"),
		StatsCacheTTL:    ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.TrackerStore {
	case TrackerStoreMemory, TrackerStoreNone:
	case TrackerStoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("tracker.store=redis requires redis.url")
		}
	default:
		return Config{}, fmt.Errorf("unknown tracker store %q", cfg.TrackerStore)
	}

	switch cfg.TrackerSink {
	case TrackerSinkNone, TrackerSinkDurable:
	case TrackerSinkNATS:
		if cfg.NATSURL == "" {
			return Config{}, fmt.Errorf("tracker.sink=nats requires nats.url")
		}
	default:
		return Config{}, fmt.Errorf("unknown tracker sink %q", cfg.TrackerSink)
	}

	if cfg.TrackerCapacity <= 0 {
		cfg.TrackerCapacity = 100
	}
	if cfg.TrackerSessions <= 0 {
		cfg.TrackerSessions = 1000
	}
	if cfg.RateLimitTracker <= 0 {
		cfg.RateLimitTracker = 20
	}

	return cfg, nil
}
